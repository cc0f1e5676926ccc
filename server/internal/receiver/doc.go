// Package receiver implements POST /api/v1/reports, the endpoint the
// calculator publishes reports to.
//
// A report is decoded (bounded to MaxBodyBytes) and validated: it needs a
// scope, values aligned with its columns and known award tiers. Malformed
// JSON gets 400, an invalid report 422. An accepted report replaces the
// previous report of its scope in the store, is evaluated by the alert
// engine and handed to every OnAccept listener; the response is 202 with an
// Ack.
package receiver
