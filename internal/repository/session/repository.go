// Package session persists sessions and their conversation history. A
// session is a hash of metadata plus an append-only list of entries; both
// keys share an idle TTL that every append refreshes.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// store is the consumer interface for the session repository (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repository is the session store.
type Repository struct {
	store  store
	prefix string
	ttl    time.Duration // idle TTL, refreshed on every append
	logger *zap.Logger
}

// New creates a session repository. prefix namespaces the keys.
func New(s store, prefix string, idleTTL time.Duration, logger *zap.Logger) *Repository {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Repository{store: s, prefix: prefix, ttl: idleTTL, logger: logger}
}

func (r *Repository) sessionKey(id string) string { return r.prefix + "session:" + id }
func (r *Repository) historyKey(id string) string { return r.prefix + "history:" + id }

// Create starts a new session with a generated ID.
func (r *Repository) Create(ctx context.Context, preferences map[string]string) (domain.Session, error) {
	now := time.Now().UTC()
	session := domain.Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(r.ttl),
		Preferences:  preferences,
	}

	fields := map[string]string{
		"created_at":    now.Format(time.RFC3339Nano),
		"last_activity": now.Format(time.RFC3339Nano),
	}
	if len(preferences) > 0 {
		prefs, err := json.Marshal(preferences)
		if err != nil {
			return domain.Session{}, fmt.Errorf("marshal preferences: %w", err)
		}
		fields["preferences"] = string(prefs)
	}

	key := r.sessionKey(session.ID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
		return domain.Session{}, fmt.Errorf("set session ttl: %w", err)
	}
	return session, nil
}

// Get loads a session by ID.
func (r *Repository) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	fields, err := r.store.HGetAll(ctx, r.sessionKey(sessionID))
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	if len(fields) == 0 {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	session := domain.Session{ID: sessionID}
	if session.CreatedAt, err = parseTime(fields["created_at"]); err != nil {
		return domain.Session{}, fmt.Errorf("session %s created_at: %w", sessionID, err)
	}
	if session.LastActivity, err = parseTime(fields["last_activity"]); err != nil {
		return domain.Session{}, fmt.Errorf("session %s last_activity: %w", sessionID, err)
	}
	session.ExpiresAt = session.LastActivity.Add(r.ttl)
	if prefs := fields["preferences"]; prefs != "" {
		if err := json.Unmarshal([]byte(prefs), &session.Preferences); err != nil {
			return domain.Session{}, fmt.Errorf("session %s preferences: %w", sessionID, err)
		}
	}
	return session, nil
}

// Append records one conversation entry and refreshes the idle TTL.
func (r *Repository) Append(ctx context.Context, sessionID string, entry domain.ConversationEntry) error {
	sessionKey := r.sessionKey(sessionID)
	exists, err := r.store.Exists(ctx, sessionKey)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !exists {
		return domain.ErrSessionNotFound
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	historyKey := r.historyKey(sessionID)
	if err := r.store.RPush(ctx, historyKey, string(data)); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if err := r.store.HSet(ctx, sessionKey, map[string]string{
		"last_activity": time.Now().UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if err := r.store.Expire(ctx, sessionKey, r.ttl, false); err != nil {
		return fmt.Errorf("refresh session ttl: %w", err)
	}
	if err := r.store.Expire(ctx, historyKey, r.ttl, false); err != nil {
		return fmt.Errorf("refresh history ttl: %w", err)
	}
	return nil
}

// History returns the session's conversation in chronological order.
// Corrupt entries are skipped with a warning rather than failing the read.
func (r *Repository) History(ctx context.Context, sessionID string) ([]domain.ConversationEntry, error) {
	exists, err := r.store.Exists(ctx, r.sessionKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	raw, err := r.store.LRange(ctx, r.historyKey(sessionID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	entries := make([]domain.ConversationEntry, 0, len(raw))
	for i, item := range raw {
		var entry domain.ConversationEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			r.logger.Warn("skipping corrupt history entry",
				zap.String("session_id", sessionID),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	return time.Parse(time.RFC3339Nano, value)
}
