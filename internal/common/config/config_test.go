package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "realestate-agent", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 30, cfg.LLM.Timeout)
	assert.Equal(t, 200, cfg.Workflow.RowLimit)
	assert.Equal(t, 300, cfg.Workflow.StrategyCacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Workflow: WorkflowConfig{RowLimit: 50}}
	applyDefaults(&cfg)
	assert.Equal(t, 50, cfg.Workflow.RowLimit)
}

func TestValidateConfig(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Postgres: PostgresConfig{Host: "localhost", Database: "agent"}},
		Workflow: WorkflowConfig{RowLimit: 200},
	}
	require.NoError(t, validateConfig(&cfg))

	cfg.Database.Postgres.Host = ""
	assert.Error(t, validateConfig(&cfg))
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("DATASET_PATH", "/data/ledger.csv")

	var cfg Config
	overrideFromEnv(&cfg)
	assert.Equal(t, "from-env", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, "/data/ledger.csv", cfg.Dataset.Path)

	cfg.LLM.OpenAIAPIKey = "from-config"
	overrideFromEnv(&cfg)
	assert.Equal(t, "from-config", cfg.LLM.OpenAIAPIKey, "config value wins over env")
}

func TestPostgresGetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5432, Database: "agent",
		User: "svc", Password: "secret", SSLMode: "disable",
	}
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "dbname=agent")
	assert.Contains(t, dsn, "sslmode=disable")
}
