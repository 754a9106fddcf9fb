package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Upload   UploadConfig   `yaml:"upload"`
	WebDav   WebDavConfig   `yaml:"webdav"`
	Auth     AuthConfig     `yaml:"auth"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	ChunkCacheExpire int    `yaml:"chunk_cache_expire"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type UploadConfig struct {
	// ChunkSize 同时是单条消息能承载的最大字节数，超过该大小的文件必须分块
	ChunkSize       int64 `yaml:"chunk_size"`
	TaskExpireDays  int   `yaml:"task_expire_days"`
	CleanupInterval int   `yaml:"cleanup_interval"`
}

type WebDavConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.Upload.ChunkSize == 0 {
		cfg.Upload.ChunkSize = 10 * 1024 * 1024
	}
	if cfg.Upload.TaskExpireDays == 0 {
		cfg.Upload.TaskExpireDays = 7
	}
	if cfg.Upload.CleanupInterval == 0 {
		cfg.Upload.CleanupInterval = 24 * 60 * 60
	}
	if cfg.Redis.ChunkCacheExpire == 0 {
		cfg.Redis.ChunkCacheExpire = cfg.Upload.TaskExpireDays * 24 * 60 * 60
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 72
	}
}
