// Package types defines the report wire format shared by the calculator and
// the report server. A Report is what the calculator writes as JSON and what
// it publishes to the server.
package types
