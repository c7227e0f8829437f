package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gsbot/internal/metrics"
	"gsbot/internal/modules/audit"
	"gsbot/internal/storage"

	"go.uber.org/zap"
)

var (
	ErrNotMuted = errors.New("member is not currently muted")
	ErrNotFound = errors.New("moderation action not found")
)

// Enforcer applies actions on the platform.
type Enforcer interface {
	Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
}

// Notice is the direct message a target receives.
type Notice struct {
	Action    Action
	GuildName string
	Reason    string
	Minutes   int
	AppealURL string
}

type Notifier interface {
	Notify(ctx context.Context, userID string, notice Notice) error
}

type Request struct {
	Action    Action
	GuildID   string
	GuildName string
	Actor     Member
	Target    Member
	Bot       Member
	Minutes   int
	Permanent bool
	Reason    string
}

type Result struct {
	ActionIDs []int64
	Minutes   int
	DMSent    bool
	Logged    bool
}

// Service runs confirmed actions: guards, enforcement, notice, ledger, audit.
type Service struct {
	ledger    storage.Ledger
	enforcer  Enforcer
	notifier  Notifier
	audit     *audit.Logger
	logger    *zap.Logger
	appealURL string
	clock     Clock
}

func NewService(ledger storage.Ledger, enforcer Enforcer, notifier Notifier, auditLogger *audit.Logger, logger *zap.Logger, appealURL string) *Service {
	return &Service{
		ledger:    ledger,
		enforcer:  enforcer,
		notifier:  notifier,
		audit:     auditLogger,
		logger:    logger,
		appealURL: appealURL,
		clock:     realClock{},
	}
}

func (s *Service) WithClock(clock Clock) {
	s.clock = clock
}

func (s *Service) Execute(ctx context.Context, req Request) (Result, error) {
	if err := CheckActor(req.Action, req.Actor, req.Target); err != nil {
		metrics.ModerationActions.WithLabelValues(string(req.Action), "rejected").Inc()
		return Result{}, err
	}
	if err := CheckBot(req.Action, req.Bot, req.Target); err != nil {
		metrics.ModerationActions.WithLabelValues(string(req.Action), "rejected").Inc()
		return Result{}, err
	}

	result := Result{}
	if req.Action == ActionMute || req.Action == ActionMuteWarn {
		result.Minutes = ClampTimeout(req.Minutes)
	} else if !req.Permanent && req.Minutes > 0 {
		result.Minutes = req.Minutes
	}

	notice := Notice{Action: req.Action, GuildName: req.GuildName, Reason: req.Reason, Minutes: result.Minutes, AppealURL: s.appealURL}

	// The target can no longer be reached once removed from the guild.
	if req.Action == ActionKick || req.Action == ActionBan {
		result.DMSent = s.notify(ctx, req.Target.ID, notice)
	}

	if err := s.enforce(ctx, req, result.Minutes); err != nil {
		metrics.ModerationActions.WithLabelValues(string(req.Action), "failed").Inc()
		s.logger.Warn("moderation enforcement failed", zap.String("action", string(req.Action)), zap.String("guild_id", req.GuildID), zap.String("target_id", req.Target.ID), zap.Error(err))
		return Result{}, fmt.Errorf("%s failed: %w", req.Action, err)
	}

	if req.Action == ActionWarn || req.Action == ActionMute || req.Action == ActionMuteWarn {
		result.DMSent = s.notify(ctx, req.Target.ID, notice)
	}

	ids, err := s.record(ctx, req, result.Minutes)
	result.ActionIDs = ids
	result.Logged = err == nil
	if err != nil {
		s.logger.Error("moderation ledger write failed", zap.String("backend", s.ledger.Backend()), zap.String("action", string(req.Action)), zap.Error(err))
	}

	metrics.ModerationActions.WithLabelValues(string(req.Action), "applied").Inc()
	s.audit.Log(ctx, audit.LevelWarn, req.GuildID, req.Target.ID, "moderation_"+string(req.Action),
		fmt.Sprintf("by %s: %s", req.Actor.ID, req.Reason))
	return result, nil
}

func (s *Service) enforce(ctx context.Context, req Request, minutes int) error {
	switch req.Action {
	case ActionMute, ActionMuteWarn:
		until := s.clock.Now().Add(time.Duration(minutes) * time.Minute)
		return s.enforcer.Timeout(ctx, req.GuildID, req.Target.ID, &until, req.Reason)
	case ActionKick:
		return s.enforcer.Kick(ctx, req.GuildID, req.Target.ID, req.Reason)
	case ActionBan:
		return s.enforcer.Ban(ctx, req.GuildID, req.Target.ID, req.Reason)
	}
	return nil
}

func (s *Service) record(ctx context.Context, req Request, minutes int) ([]int64, error) {
	now := s.clock.Now()
	var rows []storage.ModerationAction
	switch req.Action {
	case ActionMuteWarn:
		rows = append(rows,
			storage.NewAction(storage.ActionWarn, req.GuildID, req.Target.ID, req.Actor.ID, req.Reason, nil, now),
			storage.NewAction(storage.ActionMute, req.GuildID, req.Target.ID, req.Actor.ID, req.Reason, intPtr(minutes), now))
	case ActionMute:
		rows = append(rows, storage.NewAction(storage.ActionMute, req.GuildID, req.Target.ID, req.Actor.ID, req.Reason, intPtr(minutes), now))
	default:
		var duration *int
		if minutes > 0 {
			duration = intPtr(minutes)
		}
		rows = append(rows, storage.NewAction(storage.ActionType(req.Action), req.GuildID, req.Target.ID, req.Actor.ID, req.Reason, duration, now))
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		id, err := s.ledger.AddAction(ctx, row)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Service) notify(ctx context.Context, userID string, notice Notice) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.Notify(ctx, userID, notice); err != nil {
		s.logger.Debug("moderation dm failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return true
}

// Unmute clears an active timeout and closes the open mute rows. mutedUntil is
// the member's current timeout; nil or past means not muted.
func (s *Service) Unmute(ctx context.Context, guildID, actorID, targetID string, mutedUntil *time.Time, reason string) (int64, error) {
	if mutedUntil == nil || !mutedUntil.After(s.clock.Now()) {
		return 0, ErrNotMuted
	}
	if err := s.enforcer.Timeout(ctx, guildID, targetID, nil, reason); err != nil {
		return 0, fmt.Errorf("unmute failed: %w", err)
	}
	revoked, err := s.ledger.RevokeActive(ctx, guildID, targetID, storage.ActionMute, actorID, reason)
	if err != nil {
		s.logger.Error("moderation ledger revoke failed", zap.Error(err))
	}
	s.audit.Log(ctx, audit.LevelInfo, guildID, targetID, "moderation_unmute", fmt.Sprintf("by %s: %s", actorID, reason))
	return revoked, nil
}

// RemoveAction revokes one active ledger row. Revoking a mute also lifts the timeout.
func (s *Service) RemoveAction(ctx context.Context, guildID string, id int64, actorID, reason string) (*storage.ModerationAction, error) {
	action, err := s.ledger.GetAction(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, ErrNotFound
	}
	if !action.IsActive {
		return action, storage.ErrNotActive
	}
	if err := s.ledger.RevokeAction(ctx, guildID, id, actorID, reason); err != nil {
		return action, err
	}
	if action.ActionType == storage.ActionMute {
		if err := s.enforcer.Timeout(ctx, guildID, action.UserID, nil, reason); err != nil {
			s.logger.Warn("clear timeout failed", zap.String("user_id", action.UserID), zap.Error(err))
		}
	}
	s.audit.Log(ctx, audit.LevelInfo, guildID, action.UserID, "moderation_revoke", fmt.Sprintf("action %d by %s: %s", id, actorID, reason))
	return action, nil
}

func (s *Service) History(ctx context.Context, guildID, userID string, actionType storage.ActionType, limit int) ([]storage.ModerationAction, error) {
	return s.ledger.ListActions(ctx, guildID, userID, actionType, limit)
}

func (s *Service) Backend() string {
	return s.ledger.Backend()
}

func intPtr(value int) *int { return &value }
