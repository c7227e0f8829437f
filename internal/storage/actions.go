package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gsbot/internal/metrics"
)

func (s *Store) AddAction(ctx context.Context, action ModerationAction) (int64, error) {
	start := time.Now()
	defer func() { metrics.LedgerLatency.WithLabelValues("sqlite").Observe(time.Since(start).Seconds()) }()

	var duration, expires any
	if action.DurationMinutes != nil {
		duration = *action.DurationMinutes
	}
	if action.ExpiresAt != nil {
		expires = action.ExpiresAt.Unix()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_actions (user_id, moderator_id, server_id, action_type, reason,
			duration_minutes, created_at, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, action.UserID, action.ModeratorID, action.ServerID, string(action.ActionType), action.Reason,
		duration, action.CreatedAt.Unix(), expires, boolToInt(action.IsActive))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetAction(ctx context.Context, serverID string, id int64) (*ModerationAction, error) {
	row := s.db.QueryRowContext(ctx, selectActions+` WHERE server_id = ? AND id = ?`, serverID, id)
	action, err := scanAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

func (s *Store) ListActions(ctx context.Context, serverID, userID string, actionType ActionType, limit int) ([]ModerationAction, error) {
	query := selectActions + ` WHERE server_id = ? AND user_id = ?`
	args := []any{serverID, userID}
	if actionType != "" {
		query += ` AND action_type = ?`
		args = append(args, string(actionType))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []ModerationAction
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func (s *Store) RevokeAction(ctx context.Context, serverID string, id int64, removedBy, reason string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE moderation_actions
		SET is_active = 0, removed_by = ?, removed_at = ?, removal_reason = ?
		WHERE server_id = ? AND id = ? AND is_active = 1
	`, removedBy, time.Now().Unix(), reason, serverID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotActive
	}
	return nil
}

func (s *Store) RevokeActive(ctx context.Context, serverID, userID string, actionType ActionType, removedBy, reason string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE moderation_actions
		SET is_active = 0, removed_by = ?, removed_at = ?, removal_reason = ?
		WHERE server_id = ? AND user_id = ? AND action_type = ? AND is_active = 1
	`, removedBy, time.Now().Unix(), reason, serverID, userID, string(actionType))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const selectActions = `
	SELECT id, user_id, moderator_id, server_id, action_type, reason, duration_minutes,
		created_at, expires_at, is_active, removed_by, removed_at, removal_reason
	FROM moderation_actions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (ModerationAction, error) {
	var action ModerationAction
	var actionType string
	var duration, expires, removedAt sql.NullInt64
	var created int64
	var active int
	var removedBy, removalReason sql.NullString
	err := row.Scan(&action.ID, &action.UserID, &action.ModeratorID, &action.ServerID, &actionType,
		&action.Reason, &duration, &created, &expires, &active, &removedBy, &removedAt, &removalReason)
	if err != nil {
		return ModerationAction{}, err
	}
	action.ActionType = ActionType(actionType)
	action.CreatedAt = time.Unix(created, 0)
	action.IsActive = active == 1
	if duration.Valid {
		value := int(duration.Int64)
		action.DurationMinutes = &value
	}
	if expires.Valid {
		value := time.Unix(expires.Int64, 0)
		action.ExpiresAt = &value
	}
	if removedAt.Valid {
		value := time.Unix(removedAt.Int64, 0)
		action.RemovedAt = &value
	}
	if removedBy.Valid {
		value := removedBy.String
		action.RemovedBy = &value
	}
	if removalReason.Valid {
		value := removalReason.String
		action.RemovalReason = &value
	}
	return action, nil
}
