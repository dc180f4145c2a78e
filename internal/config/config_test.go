package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte(content), 0600)
	require.NoError(t, err)
	return configFile
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: 127.0.0.1
  port: 9090
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
subgraph:
  land_url: "https://api.thegraph.com/subgraphs/name/wip/land"
  citizen_url: "https://api.thegraph.com/subgraphs/name/wip/citizen"
  page_size: 500
ethereum:
  rpc_url: "http://localhost:8545"
  piece_token_address: "0x00000000000000000000000000000000000000aa"
civilization:
  owner_reward_period: "12h"
  owner_reward_amount: 200
  max_caves_per_segment: 3
images:
  dir: "/tmp/images"
  base_url: "/static/images"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "https://api.thegraph.com/subgraphs/name/wip/land", cfg.Subgraph.LandURL)
				assert.Equal(t, 500, cfg.Subgraph.PageSize)
				assert.Equal(t, "http://localhost:8545", cfg.Ethereum.RPCURL)
				assert.Equal(t, 12*time.Hour, cfg.Civilization.OwnerRewardPeriod)
				assert.Equal(t, int64(200), cfg.Civilization.OwnerRewardAmount)
				assert.Equal(t, 3, cfg.Civilization.MaxCavesPerSegment)
				assert.Equal(t, "/tmp/images", cfg.Images.Dir)
				assert.Equal(t, "/static/images", cfg.Images.BaseURL)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 1000, cfg.Subgraph.PageSize)
				assert.Equal(t, 24*time.Hour, cfg.Civilization.OwnerRewardPeriod)
				assert.Equal(t, int64(100), cfg.Civilization.OwnerRewardAmount)
				assert.Equal(t, int64(50), cfg.Civilization.CitizenRewardAmount)
				assert.Equal(t, 5, cfg.Civilization.MaxCavesPerSegment)
				assert.Equal(t, int64(500), cfg.Civilization.CavePrice)
				assert.Equal(t, 50, cfg.Images.MiniSize)
				assert.Equal(t, 10, cfg.Worker.WorkerPoolSize)
			},
		},
		{
			name: "missing database host",
			configFile: `
database:
  user: testuser
  dbname: testdb
`,
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, tt.configFile)

			cfg, err := LoadAPIConfig(configFile, "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadSweeperConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *SweeperConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
subgraph:
  land_url: "https://api.thegraph.com/subgraphs/name/wip/land"
  citizen_url: "https://api.thegraph.com/subgraphs/name/wip/citizen"
market:
  opensea_api_key: "test-key"
  collection_slug: "test-collection"
population_cron: "30 * * * *"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *SweeperConfig) {
				assert.Equal(t, "test-key", cfg.Market.OpenSeaAPIKey)
				assert.Equal(t, "test-collection", cfg.Market.CollectionSlug)
				assert.Equal(t, "30 * * * *", cfg.PopulationCron)
				// Defaults
				assert.Equal(t, "https://api.opensea.io/api/v2", cfg.Market.OpenSeaURL)
				assert.Equal(t, "0 * * * *", cfg.ResyncCron)
				assert.Equal(t, "0 12 * * *", cfg.MarketCron)
				assert.Equal(t, 20, cfg.Worker.WorkerPoolSize)
			},
		},
		{
			name:        "missing database config",
			configFile:  "debug: true",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, tt.configFile)

			cfg, err := LoadSweeperConfig(configFile, "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "wip",
		Password: "secret",
		DBName:   "wip",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db.example.com port=5433 user=wip password=secret dbname=wip sslmode=require", cfg.DSN())
}
