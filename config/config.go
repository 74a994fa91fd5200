package config

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port                   string        `mapstructure:"port"`
	Mode                   string        `mapstructure:"mode"`
	BaseURL                string        `mapstructure:"base_url"`
	ReadTimeoutSeconds     int           `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int           `mapstructure:"write_timeout_seconds"`
	WriteRateLimit         int           `mapstructure:"write_rate_limit"`
	WriteRateWindowSeconds int           `mapstructure:"write_rate_window_seconds"`
	ReadTimeout            time.Duration `mapstructure:"-"`
	WriteTimeout           time.Duration `mapstructure:"-"`
	WriteRateWindow        time.Duration `mapstructure:"-"`
}

// DatabaseConfig 数据库配置，driver 可选 mysql / postgres / sqlite
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	Charset      string `mapstructure:"charset"`
	SSLMode      string `mapstructure:"sslmode"`
	TimeZone     string `mapstructure:"timezone"`
	Path         string `mapstructure:"path"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
	Seed         bool   `mapstructure:"seed"`
	SampleData   bool   `mapstructure:"sample_data"`
}

// LogConfig 日志配置，file 为空时只输出到控制台
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LedgerConfig 账本业务配置
type LedgerConfig struct {
	PageSize         int      `mapstructure:"page_size"`
	IncomeTypeNames  []string `mapstructure:"income_type_names"`
	ExpenseTypeNames []string `mapstructure:"expense_type_names"`
	// PDFFont 导出 PDF 使用的 TTF 字体路径，为空时使用内置 Helvetica（不支持中文）
	PDFFont string `mapstructure:"pdf_font"`
}

// EventsConfig 流水事件推送（RabbitMQ）
type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

// DefaultTimeZone postgres 会话时区默认值
const DefaultTimeZone = "UTC"

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}

	// 2. 尝试加载外部配置文件（可选，用于覆盖默认配置）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("警告: 无法读取指定配置文件 %s: %v", configPath, err)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/cashflow")
		externalViper.AddConfigPath("$HOME/.cashflow")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Printf("警告: 合并外部配置失败: %v", err)
			}
		}
	}

	// 3. 环境变量覆盖，如 CASHFLOW_DATABASE_DRIVER=sqlite
	v.SetEnvPrefix("CASHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.WriteRateWindowSeconds <= 0 {
		c.Server.WriteRateWindowSeconds = 60
	}
	c.Server.ReadTimeout = time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
	c.Server.WriteTimeout = time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
	c.Server.WriteRateWindow = time.Duration(c.Server.WriteRateWindowSeconds) * time.Second

	if c.Server.Port != "" && !strings.HasPrefix(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
	if c.Ledger.PageSize <= 0 {
		c.Ledger.PageSize = 20
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.TimeZone = strings.TrimSpace(c.Database.TimeZone); c.Database.TimeZone == "" {
		c.Database.TimeZone = DefaultTimeZone
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q（可选 mysql / postgres / sqlite）", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("sqlite 驱动需要配置 database.path")
	}
	if len(c.Ledger.IncomeTypeNames) == 0 || len(c.Ledger.ExpenseTypeNames) == 0 {
		return fmt.Errorf("ledger.income_type_names 与 ledger.expense_type_names 不能为空")
	}
	if c.Events.Enabled && c.Events.AMQPURL == "" {
		return fmt.Errorf("启用事件推送时需要配置 events.amqp_url")
	}
	return nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if GlobalConfig == nil {
		panic("配置未初始化，请先调用 LoadConfig")
	}
	return GlobalConfig
}

// IsRelease 是否为生产模式
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}
