package conversation

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("conversation store is closed")
	// ErrSessionIDRequired is returned when a session ID is empty.
	ErrSessionIDRequired = errors.New("session id is required")
)

// Store abstracts conversation persistence. Every mutation against a session
// must land as one atomic multi-key batch so a partial turn is never visible,
// and every operation that touches a session refreshes its expiry.
//
// Implementations must be safe for concurrent use. Callers are expected to
// treat errors as a signal to degrade to stateless operation rather than to
// fail the request.
type Store interface {
	// CreateSession idempotently establishes context and session-info for a
	// session. An existing session only has its expiry refreshed; its
	// attributes are left untouched.
	CreateSession(ctx context.Context, sessionID, userID, tenantID string) error

	// SaveTurn atomically appends a user/assistant message pair to the
	// history, trims it to the configured bound, merges contextUpdates into
	// the context hash, refreshes session-info, and re-arms expiry on all
	// three keys.
	SaveTurn(ctx context.Context, sessionID string, user, assistant Message, contextUpdates map[string]string) error

	// History returns up to limit most recent messages, oldest first.
	// Malformed stored entries are skipped, not fatal.
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)

	// Context returns the raw context and session-info hashes. Both maps are
	// empty (never nil) for an unknown session.
	Context(ctx context.Context, sessionID string) (map[string]string, map[string]string, error)

	// EndSession marks the session ended. Data is not deleted; it still
	// expires via TTL.
	EndSession(ctx context.Context, sessionID string) error

	// CleanupExpired removes every session whose last activity is older than
	// the session TTL and returns the number removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Stats summarizes the sessions currently in the store.
	Stats(ctx context.Context) (Stats, error)

	// HealthCheck reports connectivity and liveness for diagnostics.
	HealthCheck(ctx context.Context) HealthReport

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
