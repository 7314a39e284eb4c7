package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis. State survives process restarts
// and is visible to every gateway instance sharing the same Redis.
//
// Each session owns three keys: a history list, a context hash, and a
// session-info hash. All three share one expiry clock; any activity re-arms
// it, and an idle session silently disappears after the TTL.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	maxHistory int
	mu         sync.RWMutex
	closed     bool
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all conversation keys (default: "chat:").
	Prefix string
	// SessionTTL is the session expiry duration (default: 30m).
	SessionTTL time.Duration
	// MaxHistory is the history length bound per session (default: 20).
	MaxHistory int
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// NewRedisStore connects to Redis and returns a ready store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisStore(client, cfg.Prefix, cfg.SessionTTL, cfg.MaxHistory), nil
}

// NewRedisStoreFromClient creates a store from an existing client.
// This is useful for testing with miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration, maxHistory int) *RedisStore {
	return newRedisStore(client, prefix, ttl, maxHistory)
}

func newRedisStore(client *redis.Client, prefix string, ttl time.Duration, maxHistory int) *RedisStore {
	if prefix == "" {
		prefix = "chat:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &RedisStore{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		maxHistory: maxHistory,
	}
}

// Key helpers
func (s *RedisStore) historyKey(sessionID string) string {
	return s.prefix + "history:" + sessionID
}

func (s *RedisStore) contextKey(sessionID string) string {
	return s.prefix + "context:" + sessionID
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

func (s *RedisStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// CreateSession idempotently establishes a session. A session that already
// exists only has its expiry refreshed, so repeated calls on the request
// path are harmless and created_at is written exactly once.
func (s *RedisStore) CreateSession(ctx context.Context, sessionID, userID, tenantID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	exists, err := s.client.Exists(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}

	pipe := s.client.Pipeline()
	if exists > 0 {
		s.refreshExpiry(ctx, pipe, sessionID)
	} else {
		now := time.Now().Unix()
		pipe.HSet(ctx, s.contextKey(sessionID), map[string]any{
			fieldUserID:    userID,
			fieldTenantID:  tenantID,
			fieldCreatedAt: now,
			fieldState:     string(StateActive),
		})
		pipe.HSet(ctx, s.sessionKey(sessionID), map[string]any{
			fieldCreatedAt:     now,
			fieldLastActivity:  now,
			fieldMessageCount:  0,
			fieldSessionStatus: string(StateActive),
		})
		pipe.Expire(ctx, s.contextKey(sessionID), s.ttl)
		pipe.Expire(ctx, s.sessionKey(sessionID), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SaveTurn persists one conversation turn as a single pipelined batch: both
// messages are appended in chronological order, the history is trimmed to
// the most recent maxHistory entries, context updates are merged, the
// session-info counters are refreshed, and all three keys get a fresh TTL.
// A failed batch leaves all prior state untouched.
func (s *RedisStore) SaveTurn(ctx context.Context, sessionID string, user, assistant Message, contextUpdates map[string]string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user message: %w", err)
	}
	assistantData, err := json.Marshal(assistant)
	if err != nil {
		return fmt.Errorf("marshal assistant message: %w", err)
	}

	now := time.Now().Unix()
	lastIntent := assistant.Intent
	if lastIntent == "" {
		lastIntent = "unknown"
	}

	pipe := s.client.Pipeline()

	pipe.RPush(ctx, s.historyKey(sessionID), userData, assistantData)
	pipe.LTrim(ctx, s.historyKey(sessionID), int64(-s.maxHistory), -1)

	ctxFields := map[string]any{fieldUpdatedAt: now}
	for k, v := range contextUpdates {
		ctxFields[k] = v
	}
	pipe.HSet(ctx, s.contextKey(sessionID), ctxFields)

	pipe.HSet(ctx, s.sessionKey(sessionID), map[string]any{
		fieldLastActivity: now,
		fieldMessageCount: 2, // one user message + one assistant message
		fieldLastIntent:   lastIntent,
	})

	s.refreshExpiry(ctx, pipe, sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// History returns up to limit most recent messages in chronological order.
// A non-positive limit returns the full (already bounded) history. Entries
// that fail to decode are skipped with a warning rather than aborting the
// read.
func (s *RedisStore) History(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := s.client.LRange(ctx, s.historyKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for _, data := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			log.Printf("[ConversationStore] skipping malformed message in session %s: %v", sessionID, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Context returns the raw context and session-info hashes for a session.
// Unknown sessions yield empty maps.
func (s *RedisStore) Context(ctx context.Context, sessionID string) (map[string]string, map[string]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	pipe := s.client.Pipeline()
	ctxCmd := pipe.HGetAll(ctx, s.contextKey(sessionID))
	infoCmd := pipe.HGetAll(ctx, s.sessionKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, nil, fmt.Errorf("load context: %w", err)
	}

	ctxFields := ctxCmd.Val()
	if ctxFields == nil {
		ctxFields = map[string]string{}
	}
	infoFields := infoCmd.Val()
	if infoFields == nil {
		infoFields = map[string]string{}
	}
	return ctxFields, infoFields, nil
}

// EndSession marks a session ended. The transition is terminal; data stays
// readable until the TTL expires.
func (s *RedisStore) EndSession(ctx context.Context, sessionID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	now := time.Now().Unix()

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.contextKey(sessionID), map[string]any{
		fieldState:   string(StateEnded),
		fieldEndedAt: now,
	})
	pipe.HSet(ctx, s.sessionKey(sessionID), fieldSessionStatus, string(StateEnded))
	s.refreshExpiry(ctx, pipe, sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// CleanupExpired scans all session-info keys and deletes every session whose
// last activity is older than the session TTL. Passive key expiry usually
// gets there first; the sweep reclaims whatever it missed.
func (s *RedisStore) CleanupExpired(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	removed := 0

	iter := s.client.Scan(ctx, 0, s.sessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		lastActivity, err := s.client.HGet(ctx, key, fieldLastActivity).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return removed, fmt.Errorf("read last activity: %w", err)
		}
		if now-parseEpoch(lastActivity) <= int64(s.ttl.Seconds()) {
			continue
		}

		sessionID := strings.TrimPrefix(key, s.sessionKey(""))
		pipe := s.client.Pipeline()
		pipe.Del(ctx, s.historyKey(sessionID))
		pipe.Del(ctx, s.contextKey(sessionID))
		pipe.Del(ctx, s.sessionKey(sessionID))
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("delete session %s: %w", sessionID, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan sessions: %w", err)
	}

	if removed > 0 {
		log.Printf("[ConversationStore] cleaned up %d expired sessions", removed)
	}
	return removed, nil
}

// Stats counts sessions and recent messages across the store.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}

	var stats Stats
	iter := s.client.Scan(ctx, 0, s.sessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		fields, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return stats, fmt.Errorf("read session info: %w", err)
		}
		stats.TotalSessions++
		if fields[fieldSessionStatus] == string(StateActive) {
			stats.ActiveSessions++
			count, _ := strconv.Atoi(fields[fieldMessageCount])
			stats.TotalMessages += count
		}
	}
	if err := iter.Err(); err != nil {
		return stats, fmt.Errorf("scan sessions: %w", err)
	}
	return stats, nil
}

// HealthCheck reports connectivity and a session count. It never returns an
// error; failures are encoded in the report.
func (s *RedisStore) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{Timestamp: time.Now().Unix()}

	if err := s.Ping(ctx); err != nil {
		report.Status = "unhealthy"
		return report
	}
	report.PingOK = true
	report.Status = "healthy"

	if stats, err := s.Stats(ctx); err == nil {
		report.SessionCount = stats.TotalSessions
	}
	return report
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

func (s *RedisStore) refreshExpiry(ctx context.Context, pipe redis.Pipeliner, sessionID string) {
	pipe.Expire(ctx, s.historyKey(sessionID), s.ttl)
	pipe.Expire(ctx, s.contextKey(sessionID), s.ttl)
	pipe.Expire(ctx, s.sessionKey(sessionID), s.ttl)
}
