package assemble

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ceoboard/internal/domain"
)

func TestMapUrgencyTotalAndDefaulting(t *testing.T) {
	cases := map[string]string{
		"high":    "ALTA",
		"medium":  "MEDIA",
		"low":     "BAJA",
		"urgent":  "BAJA",
		"":        "BAJA",
		"HIGH":    "BAJA",
		"unknown": "BAJA",
	}
	for in, want := range cases {
		if got := MapUrgency(in); got != want {
			t.Errorf("MapUrgency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildProjectsWireFields(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := Build(Input{
		Action:   ActionNavigateToPlanes,
		UserCode: "CEO2024",
		Metrics:  &domain.FinancialMetrics{CurrentNOI: "$410K"},
		Criticals: []domain.CriticalAction{
			{ID: "critical-0", Action: "Raise rent", Impact: "+$10K", Urgency: "high", Details: "14 units under market"},
		},
		Quicks: []domain.QuickAction{
			{ID: "quick-0", Action: "Send notices"},
		},
		ExecutiveSummary: "One opportunity.",
		Now:              now,
	})

	if payload.Timestamp != "2024-06-01T12:00:00Z" {
		t.Fatalf("timestamp %q", payload.Timestamp)
	}
	if len(payload.TopOpportunities) != 1 {
		t.Fatalf("opportunities: %d", len(payload.TopOpportunities))
	}
	got := payload.TopOpportunities[0]
	want := Opportunity{Titulo: "Raise rent", Descripcion: "14 units under market", ValorAnual: "+$10K", Prioridad: "ALTA"}
	if got != want {
		t.Fatalf("opportunity = %+v, want %+v", got, want)
	}
	if len(payload.QuickActions) != 1 || payload.QuickActions[0].Descripcion != "Send notices" {
		t.Fatalf("quick actions: %+v", payload.QuickActions)
	}
	if payload.QuickActions[0].Completada {
		t.Fatal("completada must stay false on the wire")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"titulo"`, `"descripcion"`, `"valor_anual"`, `"prioridad"`, `"completada":false`, `"user_code":"CEO2024"`, `"action":"navigate_to_planes"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("wire payload missing %s: %s", key, data)
		}
	}
}

func TestDashboardTextSections(t *testing.T) {
	payload := Build(Input{
		Action:           ActionCreatePlan,
		UserCode:         "CEO2024",
		Metrics:          &domain.SalesMetrics{Clicks: 120, Sales: 7},
		Criticals:        []domain.CriticalAction{{Action: "Refinance", Impact: "+$110K", Urgency: "medium", Details: "Rates dropped"}},
		Quicks:           []domain.QuickAction{{Action: "Call bank"}},
		ExecutiveSummary: "Resumen.",
		Now:              time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	text := payload.DashboardText
	for _, section := range []string{
		"=== MÉTRICAS DEL PORTFOLIO ===",
		"=== RESUMEN EJECUTIVO ===",
		"=== OPORTUNIDADES CRÍTICAS ===",
		"=== ACCIONES RÁPIDAS ===",
	} {
		if !strings.Contains(text, section) {
			t.Errorf("dashboard text missing section %q:\n%s", section, text)
		}
	}
	if !strings.Contains(text, "[MEDIA] Refinance | +$110K | Rates dropped") {
		t.Errorf("opportunity line missing:\n%s", text)
	}
	if !strings.Contains(text, "1. Call bank") {
		t.Errorf("quick action line missing:\n%s", text)
	}
	if !strings.Contains(text, "- clicks: 120") {
		t.Errorf("metric line missing:\n%s", text)
	}
}
