package api

import "github.com/strokestats/strokestats/pkg/types"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// Status is "ok" once a report is held, "empty" before.
	Status        string  `json:"status"`
	Scopes        int     `json:"scopes"`
	Sites         int     `json:"sites"`
	FiringAlerts  int     `json:"firing_alerts"`
	LastReportAt  string  `json:"last_report_at,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReportSummary describes the latest report of one scope.
type ReportSummary struct {
	Scope        string         `json:"scope"`
	RunID        string         `json:"run_id"`
	CountryCode  string         `json:"country_code,omitempty"`
	CountryName  string         `json:"country_name,omitempty"`
	GeneratedAt  string         `json:"generated_at"`
	ReceivedAt   string         `json:"received_at"`
	PatientLimit int            `json:"patient_limit"`
	Sites        int            `json:"sites"`
	Columns      int            `json:"columns"`
	Awards       map[string]int `json:"awards"` // sites per tier, new strategy
}

// SummaryResponse is the payload for GET /api/v1/reports and the data of
// every stream message.
type SummaryResponse struct {
	Reports     []ReportSummary `json:"reports"`
	GeneratedAt string          `json:"generated_at"`
}

// ReportResponse is the payload for GET /api/v1/reports/{scope}.
type ReportResponse struct {
	ReceivedAt string `json:"received_at"`
	*types.Report
}

// SiteResponse is the payload for GET /api/v1/reports/{scope}/sites/{site}.
type SiteResponse struct {
	Scope    string             `json:"scope"`
	SiteID   string             `json:"site_id"`
	SiteName string             `json:"site_name"`
	Award    string             `json:"award"`
	AwardOld string             `json:"award_old"`
	Values   map[string]float64 `json:"values"`
	Limits   []types.Limit      `json:"limits"`
	Hints    []DiagnosticHint   `json:"hints"`
}

// SiteAward is one site of an AwardsResponse.
type SiteAward struct {
	SiteID   string `json:"site_id"`
	SiteName string `json:"site_name"`
	Award    string `json:"award"`
	AwardOld string `json:"award_old"`
}

// ScopeAwards is the award table of one scope.
type ScopeAwards struct {
	Scope    string         `json:"scope"`
	Award    map[string]int `json:"award"`
	AwardOld map[string]int `json:"award_old"`
	Sites    []SiteAward    `json:"sites"`
}

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}
