// Package conversation provides Redis-backed, per-session conversation state
// for the interpretation pipeline: message history, context attributes, and
// session bookkeeping, all sharing one TTL-bound lifecycle.
package conversation

import (
	"strconv"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks a message written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the service.
	RoleAssistant Role = "assistant"
)

// ConversationState tracks the lifecycle of a session.
// The only transition is active -> ended; ended is terminal.
type ConversationState string

const (
	StateActive ConversationState = "active"
	StateEnded  ConversationState = "ended"
)

// Message is one utterance in a conversation. Messages are immutable once
// stored; they disappear when the owning session expires or when the history
// length bound trims them out (oldest first).
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp int64          `json:"timestamp"`
	Intent    string         `json:"intent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SessionContext holds the durable attributes of one conversation, parsed
// from the context hash.
type SessionContext struct {
	SessionID  string
	UserID     string
	TenantID   string
	LastIntent string
	State      ConversationState
	CreatedAt  int64
	UpdatedAt  int64
}

// SessionInfo holds operational counters, kept separate from the semantic
// context. LastActivity is the sole input to expiry sweeps; MessageCount is
// the size of the most recent turn, not a running total.
type SessionInfo struct {
	CreatedAt    int64
	LastActivity int64
	MessageCount int
	Status       ConversationState
}

// Stats summarizes the sessions currently visible in the store.
type Stats struct {
	ActiveSessions int `json:"active_sessions"`
	TotalSessions  int `json:"total_sessions"`
	TotalMessages  int `json:"total_messages"`
}

// HealthReport describes store connectivity and basic liveness. It is used
// for diagnostics only, never on the request path.
type HealthReport struct {
	Status       string `json:"status"`
	PingOK       bool   `json:"ping_ok"`
	SessionCount int    `json:"session_count"`
	Timestamp    int64  `json:"timestamp"`
}

// Hash field names shared by writers and parsers.
const (
	fieldUserID        = "user_id"
	fieldTenantID      = "tenant_id"
	fieldLastIntent    = "last_intent"
	fieldState         = "conversation_state"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
	fieldEndedAt       = "ended_at"
	fieldLastActivity  = "last_activity"
	fieldMessageCount  = "message_count"
	fieldSessionStatus = "status"
)

// ParseSessionContext builds a SessionContext from a raw context hash.
// Unknown fields are ignored; missing fields keep zero values.
func ParseSessionContext(sessionID string, fields map[string]string) SessionContext {
	sc := SessionContext{
		SessionID:  sessionID,
		UserID:     fields[fieldUserID],
		TenantID:   fields[fieldTenantID],
		LastIntent: fields[fieldLastIntent],
		State:      ConversationState(fields[fieldState]),
		CreatedAt:  parseEpoch(fields[fieldCreatedAt]),
		UpdatedAt:  parseEpoch(fields[fieldUpdatedAt]),
	}
	if sc.State == "" {
		sc.State = StateActive
	}
	return sc
}

// ParseSessionInfo builds a SessionInfo from a raw session-info hash.
func ParseSessionInfo(fields map[string]string) SessionInfo {
	count, _ := strconv.Atoi(fields[fieldMessageCount])
	si := SessionInfo{
		CreatedAt:    parseEpoch(fields[fieldCreatedAt]),
		LastActivity: parseEpoch(fields[fieldLastActivity]),
		MessageCount: count,
		Status:       ConversationState(fields[fieldSessionStatus]),
	}
	if si.Status == "" {
		si.Status = StateActive
	}
	return si
}

func parseEpoch(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Tolerate fractional epoch seconds written by older producers.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return v
}
