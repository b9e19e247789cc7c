// Package store is the persistence port for the board: a string key-value
// map with typed key constants, mirroring the storage schema the dashboard
// has always used. Production runs on SQLite; tests use the in-memory
// adapter.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// Store is the injected persistence port. Every mutation of a collection
// rewrites the whole value under its key; read-your-writes on reload is the
// contract, write efficiency is not.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Persisted keys. These names are the wire-level storage schema and must not
// change without a migration.
const (
	KeyCriticalActions = "portfolio_ceo_critical_actions"
	KeyQuickActions    = "portfolio_ceo_quick_actions"
	KeyCriticalSeq     = "portfolio_ceo_critical_seq"
	KeyQuickSeq        = "portfolio_ceo_quick_seq"
	KeyPlans           = "portfolio_ceo_plans"
	KeyLastAnalysis    = "portfolio_ceo_last_analysis"

	KeySalesMetrics     = "user_metrics"
	KeyInstagramMetrics = "instagram_metrics"
	KeyFinancialMetrics = "financial_metrics"

	KeyAccessGranted       = "access_granted"
	KeyOnboardingCompleted = "onboarding_completed"
	KeyLoggedIn            = "portfolio_ceo_logged_in"
	KeyHasVisitedBefore    = "has_visited_before"
	KeyUserCode            = "user_code"
)

// GetJSON reads key and unmarshals its value into out.
func GetJSON(ctx context.Context, s Store, key string, out any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// Flag reports a boolean flag stored as the literal "true" or absent.
func Flag(ctx context.Context, s Store, key string) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

// SetFlag writes "true" for on and deletes the key for off.
func SetFlag(ctx context.Context, s Store, key string, on bool) error {
	if on {
		return s.Set(ctx, key, "true")
	}
	return s.Delete(ctx, key)
}
