package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ceoboard/internal/app"
	"ceoboard/internal/config"
	"ceoboard/internal/db"
	"ceoboard/internal/domain"
	"ceoboard/internal/migrate"
)

type testServer struct {
	URL    string
	App    *app.App
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

// newWebhookStub answers GET with a one-critical bundle and POST with "ok".
func newWebhookStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			bundle := domain.AnalysisBundle{
				Metrics:    map[string]string{"reach": "50K"},
				Next30Days: []string{"Call bank", "Walk units"},
			}
			bundle.Analysis.ExecutiveSummary = "One opportunity."
			bundle.Analysis.CriticalActions = []domain.BundleAction{
				{Action: "Raise rent", Impact: "+$10K", Urgency: "high", Details: "14 units under market"},
			}
			json.NewEncoder(w).Encode(bundle)
			return
		}
		w.Write([]byte("ok"))
	}))
}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	stub := newWebhookStub(t)
	cfg := config.Default("CEO2024")
	cfg.Remote.WebhookURL = stub.URL
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := app.UpsertConfig(context.Background(), conn, cfg); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	a := app.New(conn, cfg)
	handler, err := New(Config{App: a, Auth: AuthConfig{JWTSecret: "test-secret"}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		App:    a,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
			stub.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer) map[string]string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/session/login", LoginRequest{Code: "ceo2024"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, data)
	}
	var out LoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if out.UserCode != "CEO2024" {
		t.Fatalf("login user code %q", out.UserCode)
	}
	return map[string]string{"Authorization": "Bearer " + out.Token}
}

func TestLoginRejectsWrongCode(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/session/login", LoginRequest{Code: "NOPE"}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if envelope.Error.Code != "invalid_code" {
		t.Fatalf("error code %q", envelope.Error.Code)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/board", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/board", nil, map[string]string{"Authorization": "Bearer garbage"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status %d", res.StatusCode)
	}
	// Health stays open.
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
	// So does the OpenAPI document the docs page loads.
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", res.StatusCode)
	}
	if !json.Valid(data) {
		t.Fatalf("openapi body is not JSON: %s", data[:min(len(data), 80)])
	}
}

func TestBoardCRUDFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv)

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/board", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("board status %d: %s", res.StatusCode, data)
	}
	var boardRes BoardResponse
	if err := json.Unmarshal(data, &boardRes); err != nil {
		t.Fatalf("unmarshal board: %v", err)
	}
	if len(boardRes.CriticalActions) != 1 || len(boardRes.QuickActions) != 2 {
		t.Fatalf("seeded board %+v", boardRes)
	}
	if boardRes.CriticalActions[0].ID != "critical-0" {
		t.Fatalf("seed id %q", boardRes.CriticalActions[0].ID)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/board/critical", AddActionRequest{
		Action: "Refinance", Impact: "+$110K",
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("add status %d: %s", res.StatusCode, data)
	}
	var added domain.CriticalAction
	if err := json.Unmarshal(data, &added); err != nil {
		t.Fatalf("unmarshal added: %v", err)
	}
	if added.ID != "critical-1" || added.Urgency != "medium" {
		t.Fatalf("added %+v", added)
	}

	newImpact := "+$120K"
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v1/board/critical/"+added.ID, UpdateActionRequest{Impact: &newImpact}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", res.StatusCode, data)
	}
	var updated domain.CriticalAction
	json.Unmarshal(data, &updated)
	if updated.Impact != "+$120K" || updated.Action != "Refinance" {
		t.Fatalf("updated %+v", updated)
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/board/quick/quick-0", nil, headers)
	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		t.Fatalf("remove status %d: %s", res.StatusCode, data)
	}
	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/board/quick/quick-0", nil, headers)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("double remove status %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/board/critical", AddActionRequest{Action: "   "}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank action status %d: %s", res.StatusCode, data)
	}
}

func TestMetricsRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv)

	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/v1/metrics", SaveMetricsRequest{
		Values: map[string]string{"current_noi": "$84K", "portfolio_roi": "12%"},
	}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("save status %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/metrics", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get status %d: %s", res.StatusCode, data)
	}
	var out struct {
		Variant string                  `json:"variant"`
		Values  domain.FinancialMetrics `json:"values"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal metrics: %v", err)
	}
	if out.Variant != config.VariantFinancial {
		t.Fatalf("variant %q", out.Variant)
	}
	if out.Values.CurrentNOI != "$84K" || out.Values.PortfolioROI != "12%" {
		t.Fatalf("values %+v", out.Values)
	}
}

func TestSubmitAndPlans(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/submit", SubmitRequest{Action: "create_plan"}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d: %s", res.StatusCode, data)
	}
	var out SubmitResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal submit: %v", err)
	}
	if out.Body != "ok" || out.UserCode != "CEO2024" || out.Plan == nil {
		t.Fatalf("submit response %+v", out)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/plans", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("plans status %d: %s", res.StatusCode, data)
	}
	var plans []domain.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		t.Fatalf("unmarshal plans: %v", err)
	}
	if len(plans) != 1 || plans[0].Content != "ok" {
		t.Fatalf("plans %+v", plans)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/submit", SubmitRequest{Action: "destroy"}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown tag status %d: %s", res.StatusCode, data)
	}
}

func TestSessionFlags(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv)

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/session", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("session status %d: %s", res.StatusCode, data)
	}
	var state SessionResponse
	json.Unmarshal(data, &state)
	if !state.LoggedIn || !state.AccessGranted || !state.HasVisitedBefore || state.OnboardingCompleted {
		t.Fatalf("after login %+v", state)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/session/onboarding", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("onboarding status %d: %s", res.StatusCode, data)
	}
	json.Unmarshal(data, &state)
	if !state.OnboardingCompleted {
		t.Fatalf("after onboarding %+v", state)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/session/logout", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("logout status %d: %s", res.StatusCode, data)
	}
	json.Unmarshal(data, &state)
	if state.LoggedIn {
		t.Fatalf("after logout %+v", state)
	}
	if state.UserCode != "CEO2024" {
		t.Fatalf("user code survives logout, got %+v", state)
	}
}

func TestConfigUpdate(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv)

	variant := config.VariantInstagram
	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/v1/config", UpdateConfigRequest{MetricsVariant: &variant}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", res.StatusCode, data)
	}
	var out ConfigResponse
	json.Unmarshal(data, &out)
	if out.MetricsVariant != config.VariantInstagram {
		t.Fatalf("config %+v", out)
	}

	bad := "engagement"
	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v1/config", UpdateConfigRequest{MetricsVariant: &bad}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad variant status %d: %s", res.StatusCode, data)
	}
}

func TestConfigUpdateConcurrentWithRefresh(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			timeout := 5 + i%3
			b, err := json.Marshal(UpdateConfigRequest{TimeoutSeconds: &timeout})
			if err != nil {
				t.Errorf("marshal: %v", err)
				return
			}
			req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/config", bytes.NewReader(b))
			if err != nil {
				t.Errorf("new request: %v", err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", headers["Authorization"])
			res, err := client.Do(req)
			if err != nil {
				t.Errorf("update config: %v", err)
				return
			}
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			if res.StatusCode != http.StatusOK {
				t.Errorf("update config status %d", res.StatusCode)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			if _, _, err := srv.App.RefreshAnalysis(context.Background()); err != nil {
				t.Errorf("refresh: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestEventsRecorded(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/board/quick", AddActionRequest{Action: "Call bank"}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("add status %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/events?type=action.created", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %s", res.StatusCode, data)
	}
	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events %+v", events)
	}
	if events[0].ActorID != "CEO2024" || events[0].EntityKind != "board.quick" {
		t.Fatalf("event %+v", events[0])
	}
}
