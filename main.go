package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cashflow/config"
	"cashflow/database"
	"cashflow/logger"
	"cashflow/router"
	"cashflow/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title 资金流水 API
// @version 1.0
// @description 记录经营与个人资金流水，支持分类树、筛选、汇总与导出
// @host localhost:8080
// @BasePath /

var (
	configFile  string
	port        string
	showVersion bool
	seedOnly    bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
	flag.BoolVar(&seedOnly, "seed", false, "导入初始基础数据后退出")
}

func main() {
	os.Exit(start())
}

// start 返回进程退出码；main 在其全部 defer 执行后才退出
func start() int {
	flag.Parse()

	if showVersion {
		log.Println("资金流水 v1.0.0")
		return 0
	}

	// .env 可选，环境变量优先于配置文件
	_ = godotenv.Load()

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Printf("加载配置失败: %v", err)
		return 1
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}

	zlog := logger.New(cfg.Server.Mode, cfg.Log)
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Error("服务异常退出", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	if err := database.Init(cfg); err != nil {
		return err
	}
	db := database.GetDB()
	zlog.Info("数据库已连接", zap.String("driver", cfg.Database.Driver))

	var events service.Publisher = service.NopPublisher{}
	if cfg.Events.Enabled {
		pub, err := service.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, zlog)
		if err != nil {
			return err
		}
		events = pub
		zlog.Info("账本事件推送已启用", zap.String("exchange", cfg.Events.Exchange))
	}
	defer events.Close()

	svc := router.NewServices(cfg, db, events)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Seed || seedOnly {
		seeder := service.NewSeeder(db, svc.Refs, svc.Cats, svc.Txs, zlog)
		if err := seeder.LoadInitialData(ctx); err != nil {
			return err
		}
		if cfg.Database.SampleData {
			if err := seeder.CreateSampleTransactions(ctx); err != nil {
				return err
			}
		}
		if seedOnly {
			zlog.Info("初始数据导入完成")
			return nil
		}
	}

	r, err := router.SetupRouter(ctx, cfg, svc, zlog)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           cfg.Server.Port,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("资金流水服务已启动",
			zap.String("addr", cfg.Server.Port),
			zap.String("home", cfg.Server.BaseURL+"/"),
			zap.String("swagger", cfg.Server.BaseURL+"/swagger/index.html"),
			zap.String("api", cfg.Server.BaseURL+"/api/v1/"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("正在关闭服务")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zlog.Info("服务已停止")
	return nil
}
