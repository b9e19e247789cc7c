// Package app wires the board, store, remote client, and config into one
// engine the server and CLI both drive.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"ceoboard/internal/assemble"
	"ceoboard/internal/board"
	"ceoboard/internal/config"
	"ceoboard/internal/domain"
	"ceoboard/internal/events"
	"ceoboard/internal/remote"
	"ceoboard/internal/store"
)

// runtimeState pairs the active config with the webhook client built from
// it. The pair is immutable once stored; updates swap the whole pair.
type runtimeState struct {
	cfg    *config.Config
	remote *remote.Client
}

type App struct {
	DB     *sql.DB
	Store  store.Store
	Board  *board.Manager
	Events *events.Writer
	Now    func() time.Time

	rt atomic.Pointer[runtimeState]
}

func New(db *sql.DB, cfg *config.Config) *App {
	st := store.NewSQLite(db)
	ev := &events.Writer{DB: db}
	b := board.New(st, ev)
	a := &App{
		DB:     db,
		Store:  st,
		Board:  b,
		Events: ev,
		Now:    time.Now,
	}
	a.SetConfig(cfg)
	return a
}

// Config returns the active config. Treat it as read-only; it is shared
// across requests and the refresher.
func (a *App) Config() *config.Config {
	return a.rt.Load().cfg
}

// Remote returns the webhook client built from the active config.
func (a *App) Remote() *remote.Client {
	return a.rt.Load().remote
}

// SetConfig swaps the config and the webhook client together so readers
// never see a client built from a stale config.
func (a *App) SetConfig(cfg *config.Config) {
	a.rt.Store(&runtimeState{
		cfg:    cfg,
		remote: remote.NewClient(cfg.Remote.WebhookURL, time.Duration(cfg.Remote.TimeoutSeconds)*time.Second),
	})
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// GetConfig reads the canonical config row.
func GetConfig(ctx context.Context, db *sql.DB) (*config.Config, error) {
	var payload string
	err := db.QueryRowContext(ctx, `SELECT config_json FROM board_configs WHERE id=1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

// UpsertConfig validates and writes the canonical config row.
func UpsertConfig(ctx context.Context, db *sql.DB, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = db.ExecContext(ctx, `INSERT INTO board_configs(id,config_json,created_at,updated_at) VALUES (1,?,?,?)
ON CONFLICT(id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, string(payload), now, now)
	return err
}

// ResolveConfig returns the active config: the DB row when present,
// otherwise a workspace ceoboard.yml (persisted to the DB), otherwise the
// seeded default.
func ResolveConfig(ctx context.Context, db *sql.DB, workspace string) (*config.Config, error) {
	cfg, err := GetConfig(ctx, db)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	cfg, err = config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default("DEMO")
	}
	if err := UpsertConfig(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("seed config: %w", err)
	}
	return cfg, nil
}

// Analysis returns the current bundle: the cached copy when present, else a
// fresh fetch, else the demo fallback when enabled. The bool reports whether
// the fallback stood in.
func (a *App) Analysis(ctx context.Context) (*domain.AnalysisBundle, bool, error) {
	var cached domain.AnalysisBundle
	err := store.GetJSON(ctx, a.Store, store.KeyLastAnalysis, &cached)
	if err == nil {
		return &cached, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	return a.RefreshAnalysis(ctx)
}

// RefreshAnalysis fetches the bundle from the webhook and caches it. On
// fetch failure the fallback bundle is returned (and not cached) when the
// config allows, so the board stays usable offline.
func (a *App) RefreshAnalysis(ctx context.Context) (*domain.AnalysisBundle, bool, error) {
	rt := a.rt.Load()
	bundle, err := rt.remote.FetchAnalysis(ctx)
	if err != nil {
		if !rt.cfg.FallbackEnabled() {
			return nil, false, err
		}
		log.Printf("analysis: fetch failed, using fallback: %v", err)
		return remote.FallbackBundle(), true, nil
	}
	if err := store.SetJSON(ctx, a.Store, store.KeyLastAnalysis, bundle); err != nil {
		return nil, false, err
	}
	return bundle, false, nil
}

// LoadBoard returns both collections, seeding from the current bundle on
// first load.
func (a *App) LoadBoard(ctx context.Context) ([]domain.CriticalAction, []domain.QuickAction, error) {
	bundle, _, err := a.Analysis(ctx)
	if err != nil {
		// Seeding is best-effort; an empty board is still a board.
		bundle = nil
	}
	return a.Board.Load(ctx, bundle)
}

// UserCode prefers the code saved at login over the configured one.
func (a *App) UserCode(ctx context.Context) string {
	code, err := a.Store.Get(ctx, store.KeyUserCode)
	if err == nil && code != "" {
		return code
	}
	return a.Config().Board.UserCode
}

// SubmitResult pairs the outbound payload with what the webhook returned.
type SubmitResult struct {
	Payload  assemble.Payload
	Response *remote.Response
	Plan     *domain.Plan
}

// Submit assembles the current dashboard state and posts it under the given
// action tag. A create_plan response is also recorded on the plan trail.
func (a *App) Submit(ctx context.Context, actorID, actionTag string) (*SubmitResult, error) {
	rt := a.rt.Load()
	criticals, quicks, err := a.LoadBoard(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := a.Board.Metrics(ctx, rt.cfg.Board.MetricsVariant)
	if err != nil {
		return nil, err
	}
	summary := ""
	if bundle, _, err := a.Analysis(ctx); err == nil {
		summary = bundle.Analysis.ExecutiveSummary
	}
	payload := assemble.Build(assemble.Input{
		Action:           actionTag,
		UserCode:         a.UserCode(ctx),
		Metrics:          metrics,
		Criticals:        criticals,
		Quicks:           quicks,
		ExecutiveSummary: summary,
		Now:              a.now(),
	})
	res, err := rt.remote.Submit(ctx, payload)
	if err != nil {
		a.audit(ctx, "submission.failed", actionTag, actorID, events.EventPayload{"error": err.Error()})
		return nil, err
	}
	a.audit(ctx, "submission.sent", actionTag, actorID, events.EventPayload{"status": res.Status})
	result := &SubmitResult{Payload: payload, Response: res}
	if actionTag == assemble.ActionCreatePlan {
		plan, err := a.Board.AppendPlan(ctx, actorID, planTitle(res), res.Body)
		if err != nil {
			return nil, err
		}
		result.Plan = &plan
	}
	return result, nil
}

// planTitle pulls a title out of the webhook reply when it sent one.
func planTitle(res *remote.Response) string {
	if res.JSON == nil {
		return ""
	}
	var body struct {
		Title  string `json:"title"`
		Titulo string `json:"titulo"`
	}
	if err := json.Unmarshal(res.JSON, &body); err != nil {
		return ""
	}
	if body.Title != "" {
		return body.Title
	}
	return body.Titulo
}

func (a *App) audit(ctx context.Context, evtType, tag, actorID string, payload events.EventPayload) {
	if actorID == "" {
		actorID = "local-user"
	}
	payload["action"] = tag
	if err := a.Events.Append(ctx, evtType, "submission", tag, actorID, payload); err != nil {
		log.Printf("app: append event %s failed: %v", evtType, err)
	}
}
