// Package store keeps the latest published report of every scope in memory.
// It is a thread-safe map with a scope cap and optional idle TTL eviction.
package store
