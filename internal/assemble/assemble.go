// Package assemble builds the outbound webhook payload from the current
// dashboard state. The field names and the urgency mapping are part of
// the wire contract with the n8n flow and must not drift.
package assemble

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ceoboard/internal/domain"
)

// Action tags understood by the n8n flow.
const (
	ActionNavigateToPlanes = "navigate_to_planes"
	ActionCreatePlan       = "create_plan"
	ActionExecSummary      = "generate_executive_summary"
)

// Opportunity is the wire projection of a critical action.
type Opportunity struct {
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion"`
	ValorAnual  string `json:"valor_anual"`
	Prioridad   string `json:"prioridad"`
}

// QuickItem is the wire projection of a quick action. Completada is a
// placeholder the flow expects; nothing tracks completion locally.
type QuickItem struct {
	Descripcion string `json:"descripcion"`
	Completada  bool   `json:"completada"`
}

// Payload is the full submission body.
type Payload struct {
	Action           string        `json:"action"`
	Timestamp        string        `json:"timestamp"`
	UserCode         string        `json:"user_code"`
	Metrics          any           `json:"metrics"`
	TopOpportunities []Opportunity `json:"top_opportunities"`
	QuickActions     []QuickItem   `json:"quick_actions"`
	ExecutiveSummary string        `json:"executive_summary"`
	DashboardText    string        `json:"dashboard_text"`
}

// Input is everything the builder needs from the board.
type Input struct {
	Action           string
	UserCode         string
	Metrics          any
	Criticals        []domain.CriticalAction
	Quicks           []domain.QuickAction
	ExecutiveSummary string
	Now              time.Time
}

// MapUrgency folds any urgency value onto the three wire priorities.
// Unknown or empty urgency reads as BAJA, never an error.
func MapUrgency(urgency string) string {
	switch urgency {
	case "high":
		return "ALTA"
	case "medium":
		return "MEDIA"
	default:
		return "BAJA"
	}
}

// Build assembles the payload. It is pure; the caller submits it.
func Build(in Input) Payload {
	opps := make([]Opportunity, 0, len(in.Criticals))
	for _, a := range in.Criticals {
		opps = append(opps, Opportunity{
			Titulo:      a.Action,
			Descripcion: a.Details,
			ValorAnual:  a.Impact,
			Prioridad:   MapUrgency(a.Urgency),
		})
	}
	quicks := make([]QuickItem, 0, len(in.Quicks))
	for _, a := range in.Quicks {
		quicks = append(quicks, QuickItem{Descripcion: a.Action})
	}
	return Payload{
		Action:           in.Action,
		Timestamp:        in.Now.UTC().Format(time.RFC3339),
		UserCode:         in.UserCode,
		Metrics:          in.Metrics,
		TopOpportunities: opps,
		QuickActions:     quicks,
		ExecutiveSummary: in.ExecutiveSummary,
		DashboardText:    dashboardText(in.Metrics, in.ExecutiveSummary, opps, quicks),
	}
}

// dashboardText renders the whole dashboard as labeled plain text. The
// downstream flow feeds this to an LLM, so it duplicates the structured
// fields in prose form.
func dashboardText(metrics any, summary string, opps []Opportunity, quicks []QuickItem) string {
	var b strings.Builder
	b.WriteString("=== MÉTRICAS DEL PORTFOLIO ===\n")
	for _, kv := range metricLines(metrics) {
		b.WriteString(kv)
		b.WriteByte('\n')
	}
	b.WriteString("\n=== RESUMEN EJECUTIVO ===\n")
	b.WriteString(summary)
	b.WriteString("\n\n=== OPORTUNIDADES CRÍTICAS ===\n")
	for i, o := range opps {
		fmt.Fprintf(&b, "%d. [%s] %s | %s | %s\n", i+1, o.Prioridad, o.Titulo, o.ValorAnual, o.Descripcion)
	}
	b.WriteString("\n=== ACCIONES RÁPIDAS ===\n")
	for i, q := range quicks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Descripcion)
	}
	return b.String()
}

// metricLines flattens any metrics record into sorted "label: value"
// lines so the text block is deterministic regardless of record type.
func metricLines(metrics any) []string {
	data, err := json.Marshal(metrics)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		label := strings.ReplaceAll(k, "_", " ")
		lines = append(lines, fmt.Sprintf("- %s: %v", label, m[k]))
	}
	return lines
}
