// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Context   ContextConfig   `mapstructure:"context"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Search    SearchConfig    `mapstructure:"search"`
	Translate TranslateConfig `mapstructure:"translate"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig 存储 PostgreSQL 数据库的配置。
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	BaseURL        string              `mapstructure:"base_url"`
	APIKey         string              `mapstructure:"api_key"`
	Model          string              `mapstructure:"model"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	Generation     LLMGenerationConfig `mapstructure:"generation"`
	Prompt         LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig 配置系统提示；为空时使用内置的教育规则文本。
type LLMPromptConfig struct {
	Rules string `mapstructure:"rules"`
}

// ContextConfig 配置本地文档加载与对话窗口。
type ContextConfig struct {
	Folder       string `mapstructure:"folder"`
	MaxChars     int    `mapstructure:"max_chars"`
	HistoryPairs int    `mapstructure:"history_pairs"`
}

// CrawlerConfig 配置网页抓取器的边界。
type CrawlerConfig struct {
	Seeds          []string `mapstructure:"seeds"`
	MaxPages       int      `mapstructure:"max_pages"`
	BatchSize      int      `mapstructure:"batch_size"`
	DelayMs        int      `mapstructure:"delay_ms"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	RefreshMinutes int      `mapstructure:"refresh_minutes"`
}

// SearchConfig 配置回退网页搜索。
type SearchConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TopK           int    `mapstructure:"top_k"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TranslateConfig 配置翻译服务客户端。
type TranslateConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// FeedbackConfig 配置反馈查看密钥与可选的 JSON 镜像文件。
type FeedbackConfig struct {
	SecretKey  string `mapstructure:"secret_key"`
	MirrorPath string `mapstructure:"mirror_path"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// 部署敏感的值允许通过环境变量覆盖，变量名与云端部署保持一致。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	bindings := map[string]string{
		"llm.base_url":          "LLM_ENDPOINT",
		"llm.api_key":           "LLM_API_KEY",
		"feedback.secret_key":   "FEEDBACK_SECRET_KEY",
		"database.postgres.dsn": "DATABASE_URL",
		"database.redis.addr":   "REDIS_ADDR",
		"context.folder":        "DOCS_FOLDER",
		"server.port":           "PORT",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			panic(fmt.Errorf("绑定环境变量 %s 失败: %w", env, err))
		}
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
