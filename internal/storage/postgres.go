package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gsbot/internal/metrics"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS moderation_actions (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    moderator_id TEXT NOT NULL,
    server_id TEXT NOT NULL,
    action_type TEXT NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    duration_minutes INTEGER,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    removed_by TEXT,
    removed_at TIMESTAMPTZ,
    removal_reason TEXT
);
CREATE INDEX IF NOT EXISTS idx_moderation_actions_user ON moderation_actions (user_id);
CREATE INDEX IF NOT EXISTS idx_moderation_actions_server ON moderation_actions (server_id);
CREATE INDEX IF NOT EXISTS idx_moderation_actions_active ON moderation_actions (is_active, expires_at);
`

// PostgresStore is the primary moderation ledger.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Backend() string {
	return "postgres"
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

func (s *PostgresStore) AddAction(ctx context.Context, action ModerationAction) (int64, error) {
	start := time.Now()
	defer func() { metrics.LedgerLatency.WithLabelValues("postgres").Observe(time.Since(start).Seconds()) }()

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO moderation_actions (user_id, moderator_id, server_id, action_type, reason,
			duration_minutes, created_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, action.UserID, action.ModeratorID, action.ServerID, string(action.ActionType), action.Reason,
		action.DurationMinutes, action.CreatedAt, action.ExpiresAt, action.IsActive).Scan(&id)
	return id, err
}

func (s *PostgresStore) GetAction(ctx context.Context, serverID string, id int64) (*ModerationAction, error) {
	row := s.pool.QueryRow(ctx, selectActions+` WHERE server_id = $1 AND id = $2`, serverID, id)
	action, err := scanPgAction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

func (s *PostgresStore) ListActions(ctx context.Context, serverID, userID string, actionType ActionType, limit int) ([]ModerationAction, error) {
	query := selectActions + ` WHERE server_id = $1 AND user_id = $2`
	args := []any{serverID, userID}
	if actionType != "" {
		args = append(args, string(actionType))
		query += fmt.Sprintf(` AND action_type = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []ModerationAction
	for rows.Next() {
		action, err := scanPgAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func (s *PostgresStore) RevokeAction(ctx context.Context, serverID string, id int64, removedBy, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE moderation_actions
		SET is_active = FALSE, removed_by = $1, removed_at = NOW(), removal_reason = $2
		WHERE server_id = $3 AND id = $4 AND is_active = TRUE
	`, removedBy, reason, serverID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}

func (s *PostgresStore) RevokeActive(ctx context.Context, serverID, userID string, actionType ActionType, removedBy, reason string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE moderation_actions
		SET is_active = FALSE, removed_by = $1, removed_at = NOW(), removal_reason = $2
		WHERE server_id = $3 AND user_id = $4 AND action_type = $5 AND is_active = TRUE
	`, removedBy, reason, serverID, userID, string(actionType))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPgAction(row pgx.Row) (ModerationAction, error) {
	var action ModerationAction
	var actionType string
	err := row.Scan(&action.ID, &action.UserID, &action.ModeratorID, &action.ServerID, &actionType,
		&action.Reason, &action.DurationMinutes, &action.CreatedAt, &action.ExpiresAt, &action.IsActive,
		&action.RemovedBy, &action.RemovedAt, &action.RemovalReason)
	if err != nil {
		return ModerationAction{}, err
	}
	action.ActionType = ActionType(actionType)
	return action, nil
}
