// Package strategy looks up the named LLM strategy configuration: provider,
// model and the prompt templates for each workflow step.
package strategy

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"realestate-agent/internal/common/database"
	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/logger"
)

const lookupQuery = `
SELECT s.strategy_name, s.provider, s.model_name,
       COALESCE(ip.content, ''), COALESCE(ep.content, ''), COALESCE(gp.content, '')
FROM strategy_prompt_mappings s
LEFT JOIN prompts ip ON ip.name = s.intent_prompt_id AND ip.is_active
LEFT JOIN prompts ep ON ep.name = s.extract_prompt_id AND ep.is_active
LEFT JOIN prompts gp ON gp.name = s.general_qa_prompt_id AND gp.is_active
WHERE s.strategy_name = $1 AND s.is_active`

// Store reads strategies from postgres with a redis read-through cache.
type Store struct {
	db     *sql.DB
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(db *sql.DB, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		db:    db,
		cache: cache,
		ttl:   ttl,
		logger: log.With(map[string]interface{}{
			"component": "strategy",
		}),
	}
}

func cacheKey(name string) string {
	return "agent:strategy:" + name
}

// Lookup returns the active strategy for name, validated to carry every
// required prompt template. CONFIGURATION_ERROR when absent or incomplete.
func (s *Store) Lookup(ctx context.Context, name string) (*Strategy, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, cacheKey(name)); err == nil {
			var cached Strategy
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var (
		strat                       Strategy
		intentP, extractP, generalP string
	)
	strat.Prompts = make(map[PromptRole]string)

	row := s.db.QueryRowContext(ctx, lookupQuery, name)
	err := row.Scan(&strat.Name, &strat.Provider, &strat.Model, &intentP, &extractP, &generalP)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewConfigurationError(fmt.Sprintf("no active strategy named %q", name))
	}
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("strategy lookup failed: %v", err))
	}

	strat.Prompts[RoleIntent] = intentP
	strat.Prompts[RoleExtract] = extractP
	strat.Prompts[RoleGeneralQA] = generalP

	if err := strat.Validate(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(&strat); err == nil {
			if err := s.cache.Set(ctx, cacheKey(name), data, s.ttl); err != nil {
				s.logger.Warn("strategy cache write failed", map[string]interface{}{
					"strategy": name,
					"error":    err.Error(),
				})
			}
		}
	}

	s.logger.Info("strategy loaded", map[string]interface{}{
		"strategy": strat.Name,
		"provider": strat.Provider,
		"model":    strat.Model,
	})

	return &strat, nil
}

// Invalidate drops a cached strategy, used after admin updates.
func (s *Store) Invalidate(ctx context.Context, name string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cacheKey(name))
	}
}
