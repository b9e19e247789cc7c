// Package server exposes the board over HTTP with an OpenAPI surface, the
// same shape the dashboard's localStorage-and-fetch layer used to cover.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"ceoboard/internal/app"
	"ceoboard/internal/assemble"
	"ceoboard/internal/board"
	"ceoboard/internal/config"
	"ceoboard/internal/domain"
	"ceoboard/internal/remote"
	"ceoboard/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	App      *app.App
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"critical critical-7: action not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the ceoboard API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Ceoboard API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerSession(group, cfg.App, cfg.Auth)
	registerBoard(group, cfg.App)
	registerMetrics(group, cfg.App)
	registerAnalysis(group, cfg.App)
	registerSubmit(group, cfg.App)
	registerPlans(group, cfg.App)
	registerConfig(group, cfg.App)
	registerEvents(group, cfg.App)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve board.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"field": ve.Field})
	}
	var re *remote.Error
	if errors.As(err, &re) {
		details := map[string]any{"kind": re.Kind}
		if re.Status != 0 {
			details["status"] = re.Status
		}
		return newAPIError(http.StatusBadGateway, "webhook_failed", err.Error(), details)
	}
	if errors.Is(err, board.ErrNotFound) || errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") || strings.Contains(lowered, "unknown") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusBadGateway:
		return "webhook_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var once sync.Once
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			spec, _ = json.Marshal(api.OpenAPI())
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Ceoboard API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; from /session/login.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerSession(api huma.API, a *app.App, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "session-login",
		Method:      http.MethodPost,
		Path:        "/session/login",
		Summary:     "Exchange the user code for a bearer token",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		code := strings.ToUpper(strings.TrimSpace(input.Body.Code))
		if code == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "code is required", nil)
		}
		if code != strings.ToUpper(a.Config().Board.UserCode) {
			return nil, newAPIError(http.StatusUnauthorized, "invalid_code", "código no encontrado", nil)
		}
		now := time.Now()
		if a.Now != nil {
			now = a.Now()
		}
		token, err := signToken(authCfg.JWTSecret, code, authCfg.ttl(), now)
		if err != nil {
			return nil, handleError(err)
		}
		if err := a.Store.Set(ctx, store.KeyUserCode, code); err != nil {
			return nil, handleError(err)
		}
		for _, key := range []string{store.KeyLoggedIn, store.KeyAccessGranted, store.KeyHasVisitedBefore} {
			if err := store.SetFlag(ctx, a.Store, key, true); err != nil {
				return nil, handleError(err)
			}
		}
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{Token: token, UserCode: code}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-logout",
		Method:      http.MethodPost,
		Path:        "/session/logout",
		Summary:     "Clear the logged-in flag",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := store.SetFlag(ctx, a.Store, store.KeyLoggedIn, false); err != nil {
			return nil, handleError(err)
		}
		return sessionState(ctx, a)
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-state",
		Method:      http.MethodGet,
		Path:        "/session",
		Summary:     "Session flags",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		return sessionState(ctx, a)
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-onboarding",
		Method:      http.MethodPost,
		Path:        "/session/onboarding",
		Summary:     "Mark onboarding completed",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := store.SetFlag(ctx, a.Store, store.KeyOnboardingCompleted, true); err != nil {
			return nil, handleError(err)
		}
		return sessionState(ctx, a)
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-visited",
		Method:      http.MethodPost,
		Path:        "/session/visited",
		Summary:     "Mark the first-visit flag",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := store.SetFlag(ctx, a.Store, store.KeyHasVisitedBefore, true); err != nil {
			return nil, handleError(err)
		}
		return sessionState(ctx, a)
	})
}

func sessionState(ctx context.Context, a *app.App) (*struct {
	Body SessionResponse `json:"body"`
}, error) {
	var res SessionResponse
	var err error
	if res.LoggedIn, err = store.Flag(ctx, a.Store, store.KeyLoggedIn); err != nil {
		return nil, handleError(err)
	}
	if res.AccessGranted, err = store.Flag(ctx, a.Store, store.KeyAccessGranted); err != nil {
		return nil, handleError(err)
	}
	if res.OnboardingCompleted, err = store.Flag(ctx, a.Store, store.KeyOnboardingCompleted); err != nil {
		return nil, handleError(err)
	}
	if res.HasVisitedBefore, err = store.Flag(ctx, a.Store, store.KeyHasVisitedBefore); err != nil {
		return nil, handleError(err)
	}
	if code, err := a.Store.Get(ctx, store.KeyUserCode); err == nil {
		res.UserCode = code
	}
	return &struct {
		Body SessionResponse `json:"body"`
	}{Body: res}, nil
}

func validKind(kind string) bool {
	return kind == board.KindCritical || kind == board.KindQuick
}

func registerBoard(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/board",
		Summary:     "Both action collections, seeding on first load",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body BoardResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		criticals, quicks, err := a.LoadBoard(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body BoardResponse `json:"body"`
		}{Body: BoardResponse{CriticalActions: criticals, QuickActions: quicks}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-action",
		Method:        http.MethodPost,
		Path:          "/board/{kind}",
		Summary:       "Add an action",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Kind string           `path:"kind" enum:"critical,quick"`
		Body AddActionRequest `json:"body"`
	}) (*struct {
		Body domain.CriticalAction `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if !validKind(input.Kind) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "kind must be critical or quick", nil)
		}
		if input.Kind == board.KindQuick {
			qa, err := a.Board.AddQuick(ctx, actor, input.Body.Action)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body domain.CriticalAction `json:"body"`
			}{Body: domain.CriticalAction{ID: qa.ID, Action: qa.Action}}, nil
		}
		ca, err := a.Board.AddCritical(ctx, actor, domain.CriticalAction{
			Action:  input.Body.Action,
			Impact:  input.Body.Impact,
			Urgency: input.Body.Urgency,
			Details: input.Body.Details,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CriticalAction `json:"body"`
		}{Body: ca}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-action",
		Method:      http.MethodPatch,
		Path:        "/board/{kind}/{id}",
		Summary:     "Partially update an action",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Kind string              `path:"kind" enum:"critical,quick"`
		ID   string              `path:"id"`
		Body UpdateActionRequest `json:"body"`
	}) (*struct {
		Body domain.CriticalAction `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if !validKind(input.Kind) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "kind must be critical or quick", nil)
		}
		if input.Kind == board.KindQuick {
			if input.Body.Action == nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "action is required", nil)
			}
			qa, err := a.Board.UpdateQuick(ctx, actor, input.ID, *input.Body.Action)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body domain.CriticalAction `json:"body"`
			}{Body: domain.CriticalAction{ID: qa.ID, Action: qa.Action}}, nil
		}
		ca, err := a.Board.UpdateCritical(ctx, actor, input.ID, board.CriticalPatch{
			Action:  input.Body.Action,
			Impact:  input.Body.Impact,
			Urgency: input.Body.Urgency,
			Details: input.Body.Details,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CriticalAction `json:"body"`
		}{Body: ca}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-action",
		Method:      http.MethodDelete,
		Path:        "/board/{kind}/{id}",
		Summary:     "Remove an action",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Kind string `path:"kind" enum:"critical,quick"`
		ID   string `path:"id"`
	}) (*struct{}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if !validKind(input.Kind) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "kind must be critical or quick", nil)
		}
		var err error
		if input.Kind == board.KindQuick {
			err = a.Board.RemoveQuick(ctx, actor, input.ID)
		} else {
			err = a.Board.RemoveCritical(ctx, actor, input.ID)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerMetrics(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "get-metrics",
		Method:      http.MethodGet,
		Path:        "/metrics",
		Summary:     "Active variant's metrics record",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MetricsResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		variant := a.Config().Board.MetricsVariant
		values, err := a.Board.Metrics(ctx, variant)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MetricsResponse `json:"body"`
		}{Body: MetricsResponse{Variant: variant, Values: values}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-metrics",
		Method:      http.MethodPut,
		Path:        "/metrics",
		Summary:     "Replace the metrics record wholesale",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SaveMetricsRequest `json:"body"`
	}) (*struct {
		Body MetricsResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		variant := a.Config().Board.MetricsVariant
		values, err := a.Board.SaveMetrics(ctx, actor, variant, input.Body.Values)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MetricsResponse `json:"body"`
		}{Body: MetricsResponse{Variant: variant, Values: values}}, nil
	})
}

func registerAnalysis(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "get-analysis",
		Method:      http.MethodGet,
		Path:        "/analysis",
		Summary:     "Current analysis bundle",
		Errors:      []int{http.StatusBadGateway},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body AnalysisResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		bundle, fallback, err := a.Analysis(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AnalysisResponse `json:"body"`
		}{Body: AnalysisResponse{Bundle: bundle, Fallback: fallback}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-analysis",
		Method:      http.MethodPost,
		Path:        "/analysis/refresh",
		Summary:     "Re-fetch the analysis bundle from the webhook",
		Errors:      []int{http.StatusBadGateway},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body AnalysisResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		bundle, fallback, err := a.RefreshAnalysis(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AnalysisResponse `json:"body"`
		}{Body: AnalysisResponse{Bundle: bundle, Fallback: fallback}}, nil
	})
}

func registerSubmit(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "submit",
		Method:      http.MethodPost,
		Path:        "/submit",
		Summary:     "Assemble the dashboard state and post it to the webhook",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Body SubmitRequest `json:"body"`
	}) (*struct {
		Body SubmitResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tag := input.Body.Action
		switch tag {
		case assemble.ActionNavigateToPlanes, assemble.ActionCreatePlan, assemble.ActionExecSummary:
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "unknown action tag", nil)
		}
		result, err := a.Submit(ctx, actor, tag)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SubmitResponse `json:"body"`
		}{Body: SubmitResponse{
			Status:   result.Response.Status,
			Body:     result.Response.Body,
			Plan:     result.Plan,
			UserCode: result.Payload.UserCode,
		}}, nil
	})
}

func registerPlans(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/plans",
		Summary:     "Recorded plan submissions, oldest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Plan `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		plans, err := a.Board.Plans(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Plan `json:"body"`
		}{Body: plans}, nil
	})
}

func registerConfig(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/config",
		Summary:     "Active board config",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ConfigResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body ConfigResponse `json:"body"`
		}{Body: configResponse(a.Config())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-config",
		Method:      http.MethodPut,
		Path:        "/config",
		Summary:     "Update board config",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body UpdateConfigRequest `json:"body"`
	}) (*struct {
		Body ConfigResponse `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		next := *a.Config()
		if input.Body.UserCode != nil {
			next.Board.UserCode = *input.Body.UserCode
		}
		if input.Body.MetricsVariant != nil {
			next.Board.MetricsVariant = *input.Body.MetricsVariant
		}
		if input.Body.WebhookURL != nil {
			next.Remote.WebhookURL = *input.Body.WebhookURL
		}
		if input.Body.TimeoutSeconds != nil {
			next.Remote.TimeoutSeconds = *input.Body.TimeoutSeconds
		}
		if input.Body.Fallback != nil {
			next.Remote.Fallback = input.Body.Fallback
		}
		if input.Body.RefreshInterval != nil {
			next.Refresh.IntervalSeconds = *input.Body.RefreshInterval
		}
		if err := next.Validate(); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), nil)
		}
		if err := app.UpsertConfig(ctx, a.DB, &next); err != nil {
			return nil, handleError(err)
		}
		a.SetConfig(&next)
		return &struct {
			Body ConfigResponse `json:"body"`
		}{Body: configResponse(a.Config())}, nil
	})
}

func configResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		UserCode:        cfg.Board.UserCode,
		MetricsVariant:  cfg.Board.MetricsVariant,
		WebhookURL:      cfg.Remote.WebhookURL,
		TimeoutSeconds:  cfg.Remote.TimeoutSeconds,
		Fallback:        cfg.FallbackEnabled(),
		RefreshInterval: cfg.Refresh.IntervalSeconds,
	}
}

func registerEvents(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Most recent audit events",
	}, func(ctx context.Context, input *struct {
		Limit int    `query:"limit" default:"20"`
		Type  string `query:"type"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := a.Events.Latest(ctx, input.Limit, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Event{}
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}
