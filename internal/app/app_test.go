package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ceoboard/internal/assemble"
	"ceoboard/internal/board"
	"ceoboard/internal/config"
	"ceoboard/internal/store"
)

func newTestApp(webhookURL string) (*App, *store.Memory) {
	mem := store.NewMemory()
	cfg := config.Default("CEO2024")
	cfg.Remote.WebhookURL = webhookURL
	cfg.Remote.TimeoutSeconds = 1
	a := &App{
		Store: mem,
		Board: board.New(mem, nil),
		Now:   func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	a.SetConfig(cfg)
	a.Board.Now = a.Now
	return a, mem
}

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Analysis fetch: one critical action, nothing else.
			json.NewEncoder(w).Encode(map[string]any{
				"analysis": map[string]any{
					"executive_summary": "One opportunity.",
					"critical_actions": []map[string]any{
						{"action": "Raise rent", "impact": "+$10K", "urgency": "high", "details": "14 units under market"},
					},
				},
				"metrics":      map[string]string{},
				"next_30_days": []string{},
			})
			return
		}
		captured, _ = io.ReadAll(r.Body)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	a, _ := newTestApp(srv.URL)
	result, err := a.Submit(ctx, "tester", assemble.ActionNavigateToPlanes)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Response.Body != "ok" {
		t.Fatalf("response body %q", result.Response.Body)
	}
	if result.Plan != nil {
		t.Fatal("navigate_to_planes must not record a plan")
	}

	var payload struct {
		Action           string                 `json:"action"`
		UserCode         string                 `json:"user_code"`
		TopOpportunities []assemble.Opportunity `json:"top_opportunities"`
	}
	if err := json.Unmarshal(captured, &payload); err != nil {
		t.Fatalf("decode captured payload: %v\n%s", err, captured)
	}
	if payload.Action != "navigate_to_planes" {
		t.Fatalf("action %q", payload.Action)
	}
	if payload.UserCode != "CEO2024" {
		t.Fatalf("user code %q", payload.UserCode)
	}
	if len(payload.TopOpportunities) != 1 {
		t.Fatalf("opportunities %+v", payload.TopOpportunities)
	}
	want := assemble.Opportunity{Titulo: "Raise rent", Descripcion: "14 units under market", ValorAnual: "+$10K", Prioridad: "ALTA"}
	if payload.TopOpportunities[0] != want {
		t.Fatalf("opportunity = %+v, want %+v", payload.TopOpportunities[0], want)
	}
}

func TestSubmitCreatePlanRecordsTrail(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Plan Q3","steps":["a","b"]}`))
	}))
	defer srv.Close()

	a, _ := newTestApp(srv.URL)
	result, err := a.Submit(ctx, "tester", assemble.ActionCreatePlan)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Plan == nil {
		t.Fatal("create_plan must record a plan")
	}
	if result.Plan.Title != "Plan Q3" {
		t.Fatalf("plan title %q", result.Plan.Title)
	}

	plans, err := a.Board.Plans(ctx)
	if err != nil {
		t.Fatalf("plans: %v", err)
	}
	if len(plans) != 1 || plans[0].Content != `{"title":"Plan Q3","steps":["a","b"]}` {
		t.Fatalf("trail %+v", plans)
	}
}

func TestAnalysisFallsBackWhenWebhookDown(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a, _ := newTestApp(srv.URL)
	bundle, fallback, err := a.Analysis(ctx)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if !fallback {
		t.Fatal("expected fallback bundle")
	}
	if len(bundle.Analysis.CriticalActions) != 3 {
		t.Fatalf("fallback bundle wrong: %+v", bundle.Analysis.CriticalActions)
	}

	// Fallback is not cached; the board still seeds from it.
	criticals, quicks, err := a.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("load board: %v", err)
	}
	if len(criticals) != 3 || len(quicks) != 4 {
		t.Fatalf("seeded %d criticals, %d quicks", len(criticals), len(quicks))
	}
}

func TestAnalysisDisabledFallbackSurfacesError(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a, _ := newTestApp(srv.URL)
	off := false
	cfg := *a.Config()
	cfg.Remote.Fallback = &off
	a.SetConfig(&cfg)
	if _, _, err := a.Analysis(ctx); err == nil {
		t.Fatal("expected fetch error with fallback disabled")
	}
}

func TestConfigSwapSafeUnderConcurrentUse(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"analysis":     map[string]any{"executive_summary": "ok", "critical_actions": []any{}},
			"metrics":      map[string]string{},
			"next_30_days": []string{},
		})
	}))
	defer srv.Close()

	a, _ := newTestApp(srv.URL)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cfg := config.Default("CEO2024")
				cfg.Remote.WebhookURL = srv.URL
				cfg.Remote.TimeoutSeconds = 1
				a.SetConfig(cfg)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, _, err := a.RefreshAnalysis(ctx); err != nil {
					t.Errorf("refresh: %v", err)
					return
				}
				a.UserCode(ctx)
			}
		}()
	}
	wg.Wait()
}

func TestAnalysisCachesFetchedBundle(t *testing.T) {
	ctx := context.Background()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"analysis":     map[string]any{"executive_summary": "cached", "critical_actions": []any{}},
			"metrics":      map[string]string{},
			"next_30_days": []string{},
		})
	}))
	defer srv.Close()

	a, _ := newTestApp(srv.URL)
	if _, _, err := a.Analysis(ctx); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, _, err := a.Analysis(ctx); err != nil {
		t.Fatalf("second: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
}
