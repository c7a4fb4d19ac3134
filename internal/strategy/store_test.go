package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-agent/internal/common/database"
	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/logger"
)

func strategyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"strategy_name", "provider", "model_name", "intent", "extract", "general_qa",
	}).AddRow("default", "openai", "gpt-4o-mini",
		"Classify the intent.", "Extract parameters.", "Answer the question.")
}

func newTestCache(t *testing.T) *database.RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
}

func TestLookup(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT s.strategy_name").
		WithArgs("default").
		WillReturnRows(strategyRows())

	store := NewStore(db, nil, time.Minute, logger.NewTestLogger(t))
	strat, err := store.Lookup(context.Background(), "default")

	require.NoError(t, err)
	assert.Equal(t, "default", strat.Name)
	assert.Equal(t, "openai", strat.Provider)
	assert.Equal(t, "gpt-4o-mini", strat.Model)
	assert.Equal(t, "Classify the intent.", strat.Prompts[RoleIntent])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupUnknownStrategy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT s.strategy_name").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"strategy_name", "provider", "model_name", "intent", "extract", "general_qa",
		}))

	store := NewStore(db, nil, time.Minute, logger.NewTestLogger(t))
	_, err = store.Lookup(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
	assert.Contains(t, err.Error(), "missing")
}

func TestLookupMissingPromptTemplate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT s.strategy_name").
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{
			"strategy_name", "provider", "model_name", "intent", "extract", "general_qa",
		}).AddRow("default", "openai", "gpt-4o-mini", "Classify.", "", "Answer."))

	store := NewStore(db, nil, time.Minute, logger.NewTestLogger(t))
	_, err = store.Lookup(context.Background(), "default")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
	assert.Contains(t, err.Error(), "extract")
}

func TestLookupUsesCache(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	// Only one query should reach postgres; the second lookup is a cache hit.
	mock.ExpectQuery("SELECT s.strategy_name").
		WithArgs("default").
		WillReturnRows(strategyRows())

	store := NewStore(db, newTestCache(t), time.Minute, logger.NewTestLogger(t))

	first, err := store.Lookup(context.Background(), "default")
	require.NoError(t, err)
	second, err := store.Lookup(context.Background(), "default")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateDropsCacheEntry(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT s.strategy_name").WithArgs("default").WillReturnRows(strategyRows())
	mock.ExpectQuery("SELECT s.strategy_name").WithArgs("default").WillReturnRows(strategyRows())

	store := NewStore(db, newTestCache(t), time.Minute, logger.NewTestLogger(t))

	_, err = store.Lookup(context.Background(), "default")
	require.NoError(t, err)

	store.Invalidate(context.Background(), "default")

	_, err = store.Lookup(context.Background(), "default")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStrategyValidate(t *testing.T) {
	strat := &Strategy{
		Name:     "partial",
		Provider: "openai",
		Model:    "gpt-4o-mini",
		Prompts:  map[PromptRole]string{RoleIntent: "Classify."},
	}
	err := strat.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract")
	assert.Contains(t, err.Error(), "general_qa")

	strat.Prompts[RoleExtract] = "Extract."
	strat.Prompts[RoleGeneralQA] = "Answer."
	assert.NoError(t, strat.Validate())
}
