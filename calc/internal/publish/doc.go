// Package publish sends a finished report to the report server
// (POST <endpoint>/api/v1/reports, JSON body of pkg/types.Report).
//
// Publisher.Publish retries transport errors and 5xx responses with truncated
// exponential backoff (1s to 60s, ±25% jitter) up to MaxAttempts. A 4xx
// response is permanent: the report is rejected and Publish returns
// ErrRejected without retrying.
//
// Auth: when an API key is configured it is sent in the configured header
// (X-API-Key by default).
package publish
