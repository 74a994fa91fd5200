package router

import (
	"context"
	"fmt"
	"net/http"

	"cashflow/api"
	"cashflow/config"
	_ "cashflow/docs"
	"cashflow/middleware"
	"cashflow/service"
	"cashflow/web"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 账本业务服务
type Services struct {
	Refs     *service.ReferenceService
	Cats     *service.CategoryService
	Txs      *service.TransactionService
	Exporter service.Exporter
}

// NewServices 按配置组装业务服务
func NewServices(cfg *config.Config, db *gorm.DB, events service.Publisher) *Services {
	cls := service.NewClassifier(cfg.Ledger.IncomeTypeNames, cfg.Ledger.ExpenseTypeNames)
	return &Services{
		Refs:     service.NewReferenceService(db, events),
		Cats:     service.NewCategoryService(db, events),
		Txs:      service.NewTransactionService(db, cls, cfg.Ledger.PageSize, events),
		Exporter: service.Exporter{FontPath: cfg.Ledger.PDFFont},
	}
}

// SetupRouter 设置路由，ctx 结束时释放中间件的后台协程
func SetupRouter(ctx context.Context, cfg *config.Config, svc *Services, log *zap.Logger) (*gin.Engine, error) {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))

	// CORS 中间件
	r.Use(CORSMiddleware())

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("解析页面模板失败: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// 浏览器页面
	pageHandler := api.NewPageHandler(svc.Refs, svc.Cats, svc.Txs, log)
	r.GET("/", pageHandler.Home)
	r.GET("/transaction/create", pageHandler.NewForm)
	r.POST("/transaction/create", pageHandler.Create)
	r.GET("/transaction/:id/edit", pageHandler.EditForm)
	r.POST("/transaction/:id/edit", pageHandler.Update)
	r.GET("/transaction/:id/delete", pageHandler.DeleteConfirm)
	r.POST("/transaction/:id/delete", pageHandler.Delete)
	r.GET("/reference-management", pageHandler.References)
	r.GET("/ajax/categories-by-type", pageHandler.CategoriesByType)

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组，写操作限流
	v1 := r.Group("/api/v1")
	v1.Use(middleware.WriteRateLimit(ctx, cfg.Server.WriteRateLimit, cfg.Server.WriteRateWindow))
	{
		statusHandler := api.NewStatusHandler(svc.Refs, log)
		statuses := v1.Group("/statuses")
		{
			statuses.GET("", statusHandler.List)
			statuses.POST("", statusHandler.Create)
			statuses.GET("/:id", statusHandler.Get)
			statuses.PUT("/:id", statusHandler.Update)
			statuses.PATCH("/:id", statusHandler.Patch)
			statuses.DELETE("/:id", statusHandler.Delete)
		}

		typeHandler := api.NewTransactionTypeHandler(svc.Refs, log)
		types := v1.Group("/transaction-types")
		{
			types.GET("", typeHandler.List)
			types.POST("", typeHandler.Create)
			types.GET("/:id", typeHandler.Get)
			types.PUT("/:id", typeHandler.Update)
			types.PATCH("/:id", typeHandler.Patch)
			types.DELETE("/:id", typeHandler.Delete)
		}

		categoryHandler := api.NewCategoryHandler(svc.Cats, log)
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.POST("", categoryHandler.Create)
			categories.GET("/tree", categoryHandler.Tree)
			categories.GET("/by_type", categoryHandler.ByType)
			categories.GET("/:id", categoryHandler.Get)
			categories.GET("/:id/children", categoryHandler.Children)
			categories.PUT("/:id", categoryHandler.Update)
			categories.PATCH("/:id", categoryHandler.Patch)
			categories.DELETE("/:id", categoryHandler.Delete)
		}

		transactionHandler := api.NewTransactionHandler(svc.Txs, svc.Exporter, log)
		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.POST("", transactionHandler.Create)
			transactions.GET("/stats", transactionHandler.Stats)
			transactions.GET("/export", transactionHandler.Export)
			transactions.GET("/:id", transactionHandler.Get)
			transactions.PUT("/:id", transactionHandler.Update)
			transactions.PATCH("/:id", transactionHandler.Patch)
			transactions.DELETE("/:id", transactionHandler.Delete)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.Response{Code: http.StatusNotFound, Message: "接口不存在"})
	})

	return r, nil
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
