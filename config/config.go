package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	ServerMaxInFlight  int64         `mapstructure:"server_max_in_flight"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 缓存提供者配置
	CacheType          string        `mapstructure:"cache_type"`
	CacheRedisAddr     string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string        `mapstructure:"cache_redis_password"`
	CacheRedisDB       int           `mapstructure:"cache_redis_db"`
	CacheOwnerTTL      time.Duration `mapstructure:"cache_owner_ttl"`

	// 存储配置
	StorageType          string `mapstructure:"storage_type"`
	StorageLocalPath     string `mapstructure:"storage_local_path"`
	StoragePublicBaseURL string `mapstructure:"storage_public_base_url"`
	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioBucketName      string `mapstructure:"minio_bucket_name"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`
	WebDAVURL            string `mapstructure:"webdav_url"`
	WebDAVUsername       string `mapstructure:"webdav_username"`
	WebDAVPassword       string `mapstructure:"webdav_password"`
	WebDAVRootPath       string `mapstructure:"webdav_root_path"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitWriteRPS   float64       `mapstructure:"rate_limit_write_rps"`
	RateLimitWriteBurst int           `mapstructure:"rate_limit_write_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 上传配置
	UploadMaxSizeMB int `mapstructure:"upload_max_size_mb"`

	// Feed 配置
	FeedLookupConcurrency int           `mapstructure:"feed_lookup_concurrency"`
	FeedLookupTimeout     time.Duration `mapstructure:"feed_lookup_timeout"`

	// 实时中继配置
	RelayRedisChannel  string        `mapstructure:"relay_redis_channel"`
	RelaySendBuffer    int           `mapstructure:"relay_send_buffer"`
	RelayMaxMessageKB  int           `mapstructure:"relay_max_message_kb"`
	RelayPingPeriod    time.Duration `mapstructure:"relay_ping_period"`
	RelayAllowedOrigin string        `mapstructure:"relay_allowed_origin"`

	// 身份认证配置（外部身份提供者签发的 token）
	AuthJWTSecret string `mapstructure:"auth_jwt_secret"`
	AuthIssuer    string `mapstructure:"auth_issuer"`
	AuthRequired  bool   `mapstructure:"auth_required"`

	// 事件配置
	KafkaBrokers   string `mapstructure:"kafka_brokers"`
	KafkaTopic     string `mapstructure:"kafka_topic"`
	KafkaWorkers   int    `mapstructure:"kafka_workers"`
	KafkaQueueSize int    `mapstructure:"kafka_queue_size"`

	// 日志配置
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
	}
	viper.SetConfigFile(configFile)
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8000)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("server_max_in_flight", 200)

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "colab")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	// 缓存提供者配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_owner_ttl", "5m")

	// 存储配置默认值
	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_local_path", "./data/media")
	viper.SetDefault("storage_public_base_url", "")
	viper.SetDefault("minio_bucket_name", "colab")
	viper.SetDefault("minio_use_ssl", false)
	viper.SetDefault("webdav_root_path", "/colab")

	// 限流配置默认值
	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_write_rps", 5.0)
	viper.SetDefault("rate_limit_write_burst", 20)
	viper.SetDefault("rate_limit_expire_time", "10m")

	// 上传配置默认值
	viper.SetDefault("upload_max_size_mb", 20)

	// Feed 配置默认值
	viper.SetDefault("feed_lookup_concurrency", 8)
	viper.SetDefault("feed_lookup_timeout", "2s")

	// 实时中继配置默认值
	viper.SetDefault("relay_redis_channel", "colab:relay")
	viper.SetDefault("relay_send_buffer", 64)
	viper.SetDefault("relay_max_message_kb", 16)
	viper.SetDefault("relay_ping_period", "30s")
	viper.SetDefault("relay_allowed_origin", "")

	// 身份认证默认值
	viper.SetDefault("auth_jwt_secret", "")
	viper.SetDefault("auth_issuer", "")
	viper.SetDefault("auth_required", true)

	// 事件配置默认值
	viper.SetDefault("kafka_brokers", "")
	viper.SetDefault("kafka_topic", "colab.events")
	viper.SetDefault("kafka_workers", 4)
	viper.SetDefault("kafka_queue_size", 1000)

	// 日志配置默认值
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8000
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成媒体链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// MediaBaseURL 返回媒体文件的公共访问前缀
func (c *Config) MediaBaseURL() string {
	if c.StoragePublicBaseURL != "" {
		return strings.TrimRight(c.StoragePublicBaseURL, "/")
	}
	return c.BaseURL() + "/media"
}

// KafkaBrokerList 解析逗号分隔的 broker 列表
func (c *Config) KafkaBrokerList() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// RelayMaxMessageBytes 单帧最大字节数
func (c *Config) RelayMaxMessageBytes() int64 {
	if c.RelayMaxMessageKB <= 0 {
		return 16 << 10
	}
	return int64(c.RelayMaxMessageKB) << 10
}
