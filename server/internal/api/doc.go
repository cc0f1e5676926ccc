// Package api implements the report server REST API, mounted under /api/v1.
// All responses are JSON (Content-Type: application/json).
//
// Endpoints:
//
//	GET  /api/v1/health                       store and alert counts, no auth
//	GET  /api/v1/reports                      summary of every live scope
//	POST /api/v1/reports                      publish a report (package receiver)
//	GET  /api/v1/reports/{scope}              latest full report of a scope
//	GET  /api/v1/reports/{scope}/sites/{site} one site, values by column, award hints
//	GET  /api/v1/awards[?scope=&tier=]        tier counts and site awards per scope
//	GET  /api/v1/alerts                       firing and recently resolved alerts
//
// Unknown routes get 404 and wrong methods 405, both as {"error": "..."}.
package api
