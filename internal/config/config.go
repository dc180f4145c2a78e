package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// SubgraphConfig holds subgraph endpoint configuration
type SubgraphConfig struct {
	LandURL     string        `mapstructure:"land_url"`
	CitizenURL  string        `mapstructure:"citizen_url"`
	PageSize    int           `mapstructure:"page_size"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// EthereumConfig holds Ethereum-specific configuration
type EthereumConfig struct {
	RPCURL            string `mapstructure:"rpc_url"`
	PieceTokenAddress string `mapstructure:"piece_token_address"`
}

// CivilizationConfig holds reward and cave tuning for the idle game
type CivilizationConfig struct {
	OwnerRewardPeriod        time.Duration `mapstructure:"owner_reward_period"`
	OwnerRewardAmount        int64         `mapstructure:"owner_reward_amount"`
	OwnerCitizenRewardPeriod time.Duration `mapstructure:"owner_citizen_reward_period"`
	OwnerCitizenRewardAmount int64         `mapstructure:"owner_citizen_reward_amount"`
	CitizenRewardPeriod      time.Duration `mapstructure:"citizen_reward_period"`
	CitizenRewardAmount      int64         `mapstructure:"citizen_reward_amount"`
	MaxCavesPerSegment       int           `mapstructure:"max_caves_per_segment"`
	CavePrice                int64         `mapstructure:"cave_price"`
	MinJoinBalance           int64         `mapstructure:"min_join_balance"`
}

// MarketConfig holds marketplace data source configuration
type MarketConfig struct {
	OpenSeaURL     string        `mapstructure:"opensea_url"`
	OpenSeaAPIKey  string        `mapstructure:"opensea_api_key"`
	CollectionSlug string        `mapstructure:"collection_slug"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

// ImagesConfig holds merged-segment image storage configuration
type ImagesConfig struct {
	Dir         string `mapstructure:"dir"`
	BaseURL     string `mapstructure:"base_url"`
	MiniSize    int    `mapstructure:"mini_size"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Subgraph     SubgraphConfig     `mapstructure:"subgraph"`
	Ethereum     EthereumConfig     `mapstructure:"ethereum"`
	Civilization CivilizationConfig `mapstructure:"civilization"`
	Images       ImagesConfig       `mapstructure:"images"`
	Worker       WorkerConfig       `mapstructure:"worker"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig     `mapstructure:",squash"`
	Database       DatabaseConfig     `mapstructure:"database"`
	Subgraph       SubgraphConfig     `mapstructure:"subgraph"`
	Market         MarketConfig       `mapstructure:"market"`
	Civilization   CivilizationConfig `mapstructure:"civilization"`
	Worker         WorkerConfig       `mapstructure:"worker"`
	PopulationCron string             `mapstructure:"population_cron"`
	ResyncCron     string             `mapstructure:"resync_cron"`
	MarketCron     string             `mapstructure:"market_cron"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	setDatabaseDefaults(v)
	setSubgraphDefaults(v)
	setCivilizationDefaults(v)
	v.SetDefault("images.dir", "data/images")
	v.SetDefault("images.base_url", "/images")
	v.SetDefault("images.mini_size", 50)
	v.SetDefault("images.max_file_size", 10*1024*1024) // 10MB
	v.SetDefault("worker.pool_size", 10)
	v.SetDefault("worker.queue_size", 256)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}

	return &cfg, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setSubgraphDefaults(v)
	setCivilizationDefaults(v)
	v.SetDefault("market.opensea_url", "https://api.opensea.io/api/v2")
	v.SetDefault("market.collection_slug", "world-in-pieces")
	v.SetDefault("market.http_timeout", "30s")
	v.SetDefault("worker.pool_size", 20)
	v.SetDefault("worker.queue_size", 1024)
	v.SetDefault("population_cron", "0 * * * *")
	v.SetDefault("resync_cron", "0 * * * *")
	v.SetDefault("market_cron", "0 12 * * *")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
}

func setSubgraphDefaults(v *viper.Viper) {
	v.SetDefault("subgraph.page_size", 1000)
	v.SetDefault("subgraph.http_timeout", "30s")
}

func setCivilizationDefaults(v *viper.Viper) {
	v.SetDefault("civilization.owner_reward_period", "24h")
	v.SetDefault("civilization.owner_reward_amount", 100)
	v.SetDefault("civilization.owner_citizen_reward_period", "24h")
	v.SetDefault("civilization.owner_citizen_reward_amount", 10)
	v.SetDefault("civilization.citizen_reward_period", "24h")
	v.SetDefault("civilization.citizen_reward_amount", 50)
	v.SetDefault("civilization.max_caves_per_segment", 5)
	v.SetDefault("civilization.cave_price", 500)
	v.SetDefault("civilization.min_join_balance", 1)
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/sweeper/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("WIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Subgraph
		"subgraph.land_url",
		"subgraph.citizen_url",
		"subgraph.page_size",
		"subgraph.http_timeout",
		// Ethereum
		"ethereum.rpc_url",
		"ethereum.piece_token_address",
		// Civilization
		"civilization.owner_reward_period",
		"civilization.owner_reward_amount",
		"civilization.owner_citizen_reward_period",
		"civilization.owner_citizen_reward_amount",
		"civilization.citizen_reward_period",
		"civilization.citizen_reward_amount",
		"civilization.max_caves_per_segment",
		"civilization.cave_price",
		"civilization.min_join_balance",
		// Market
		"market.opensea_url",
		"market.opensea_api_key",
		"market.collection_slug",
		"market.http_timeout",
		// Images
		"images.dir",
		"images.base_url",
		"images.mini_size",
		"images.max_file_size",
		// Worker
		"worker.pool_size",
		"worker.queue_size",
		// Sweeper schedules
		"population_cron",
		"resync_cron",
		"market_cron",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
