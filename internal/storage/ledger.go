package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var ErrNotActive = errors.New("moderation action is not active")

type ActionType string

const (
	ActionWarn ActionType = "warn"
	ActionMute ActionType = "mute"
	ActionKick ActionType = "kick"
	ActionBan  ActionType = "ban"
)

type ModerationAction struct {
	ID              int64
	UserID          string
	ModeratorID     string
	ServerID        string
	ActionType      ActionType
	Reason          string
	DurationMinutes *int
	CreatedAt       time.Time
	ExpiresAt       *time.Time
	IsActive        bool
	RemovedBy       *string
	RemovedAt       *time.Time
	RemovalReason   *string
}

// Ledger is the append-mostly moderation log. Rows only ever move from
// active to inactive.
type Ledger interface {
	AddAction(ctx context.Context, action ModerationAction) (int64, error)
	GetAction(ctx context.Context, serverID string, id int64) (*ModerationAction, error)
	ListActions(ctx context.Context, serverID, userID string, actionType ActionType, limit int) ([]ModerationAction, error)
	RevokeAction(ctx context.Context, serverID string, id int64, removedBy, reason string) error
	RevokeActive(ctx context.Context, serverID, userID string, actionType ActionType, removedBy, reason string) (int64, error)
	Ping(ctx context.Context) error
	Backend() string
}

// NewAction fills CreatedAt and derives ExpiresAt from the duration.
func NewAction(actionType ActionType, serverID, userID, moderatorID, reason string, durationMinutes *int, now time.Time) ModerationAction {
	action := ModerationAction{
		UserID:          userID,
		ModeratorID:     moderatorID,
		ServerID:        serverID,
		ActionType:      actionType,
		Reason:          reason,
		DurationMinutes: durationMinutes,
		CreatedAt:       now,
		IsActive:        true,
	}
	if durationMinutes != nil {
		expires := now.Add(time.Duration(*durationMinutes) * time.Minute)
		action.ExpiresAt = &expires
	}
	return action
}

// Counts tallies actions per type.
func Counts(actions []ModerationAction) map[ActionType]int {
	out := make(map[ActionType]int)
	for _, action := range actions {
		out[action.ActionType]++
	}
	return out
}

// OpenLedger connects to Postgres when a URL is configured, retrying
// immediately up to attempts times, and falls back to the SQLite store
// otherwise.
func OpenLedger(ctx context.Context, databaseURL string, attempts int, fallback *Store, logger *zap.Logger) Ledger {
	if databaseURL == "" {
		logger.Info("ledger using sqlite", zap.String("reason", "DATABASE_URL not set"))
		return fallback
	}
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		pg, err := NewPostgresStore(ctx, databaseURL)
		if err == nil {
			if err = pg.Migrate(ctx); err == nil {
				logger.Info("ledger using postgres", zap.Int("attempt", attempt))
				return pg
			}
			pg.Close()
		}
		logger.Warn("postgres connect failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	logger.Warn("ledger using sqlite", zap.String("reason", "postgres unavailable"))
	return fallback
}
