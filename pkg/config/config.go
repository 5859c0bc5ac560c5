package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	MySQL        MySQLConfig        `mapstructure:"mysql"`
	Redis        RedisConfig        `mapstructure:"redis"`
	MongoDB      MongoDBConfig      `mapstructure:"mongodb"`
	Security     SecurityConfig     `mapstructure:"security"`
	Tokenization TokenizationConfig `mapstructure:"tokenization"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Product      ProductConfig      `mapstructure:"product"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type SecurityConfig struct {
	// APIKey must be sent as X-API-KEY on every business route.
	APIKey string `mapstructure:"api_key"`
	// EncryptionKey is the base64-encoded AES-256 key for card data.
	EncryptionKey     string `mapstructure:"encryption_key"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

type TokenizationConfig struct {
	RejectProbability float64 `mapstructure:"reject_probability"`
}

type PaymentConfig struct {
	ApproveProbability float64       `mapstructure:"approve_probability"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	RetryMultiplier    float64       `mapstructure:"retry_multiplier"`
}

type ProductConfig struct {
	MinStockVisible int `mapstructure:"min_stock_visible"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	From string `mapstructure:"from"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("payment.approve_probability", 0.7)
	v.SetDefault("payment.max_attempts", 3)
	v.SetDefault("payment.retry_delay", time.Second)
	v.SetDefault("payment.retry_multiplier", 2.0)
	v.SetDefault("security.requests_per_minute", 60)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}
