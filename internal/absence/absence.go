package absence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gsbot/internal/modules/audit"

	"go.uber.org/zap"
)

var ErrInvalidDuration = errors.New("invalid time format. Use e.g. `10m`, `2h`, `1d`")

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

var units = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseDuration accepts a positive integer followed by one of s, m, h or d.
func ParseDuration(input string) (time.Duration, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if len(input) < 2 {
		return 0, ErrInvalidDuration
	}
	unit, ok := units[input[len(input)-1]]
	if !ok {
		return 0, ErrInvalidDuration
	}
	amount, err := strconv.Atoi(input[:len(input)-1])
	if err != nil || amount <= 0 {
		return 0, ErrInvalidDuration
	}
	return time.Duration(amount) * unit, nil
}

type Entry struct {
	GuildID   string
	UserID    string
	RoleID    string
	ChannelID string
	Until     time.Time
}

// Roles applies and lifts the absence role.
type Roles interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
	Ended(ctx context.Context, entry Entry) error
}

type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	roles   Roles
	audit   *audit.Logger
	logger  *zap.Logger
	entries map[string]Entry
	timers  map[string]Timer
}

func NewScheduler(roles Roles, auditLogger *audit.Logger, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		clock:   realClock{},
		roles:   roles,
		audit:   auditLogger,
		logger:  logger,
		entries: make(map[string]Entry),
		timers:  make(map[string]Timer),
	}
}

func (s *Scheduler) WithClock(clock Clock) {
	s.clock = clock
}

func key(guildID, userID string) string {
	return guildID + ":" + userID
}

// Mark adds the role and schedules its removal. Marking someone already absent
// restarts their timer.
func (s *Scheduler) Mark(ctx context.Context, entry Entry, d time.Duration) (Entry, error) {
	if err := s.roles.AddRole(ctx, entry.GuildID, entry.UserID, entry.RoleID); err != nil {
		return Entry{}, fmt.Errorf("add absence role: %w", err)
	}

	k := key(entry.GuildID, entry.UserID)
	s.mu.Lock()
	entry.Until = s.clock.Now().Add(d)
	if timer, ok := s.timers[k]; ok {
		timer.Stop()
	}
	s.entries[k] = entry
	s.timers[k] = s.clock.AfterFunc(d, func() { s.expire(context.WithoutCancel(ctx), k, entry) })
	s.mu.Unlock()

	s.audit.Log(ctx, audit.LevelInfo, entry.GuildID, entry.UserID, "absence_start", fmt.Sprintf("until %s", entry.Until.UTC().Format(time.RFC3339)))
	return entry, nil
}

func (s *Scheduler) expire(ctx context.Context, k string, entry Entry) {
	s.mu.Lock()
	current, ok := s.entries[k]
	if !ok || !current.Until.Equal(entry.Until) {
		s.mu.Unlock()
		return
	}
	delete(s.entries, k)
	delete(s.timers, k)
	s.mu.Unlock()

	has, err := s.roles.HasRole(ctx, entry.GuildID, entry.UserID, entry.RoleID)
	if err != nil || !has {
		return
	}
	if err := s.roles.RemoveRole(ctx, entry.GuildID, entry.UserID, entry.RoleID); err != nil {
		s.logger.Warn("absence role removal failed", zap.String("user_id", entry.UserID), zap.Error(err))
		return
	}
	if err := s.roles.Ended(ctx, entry); err != nil {
		s.logger.Debug("absence end notice failed", zap.Error(err))
	}
	s.audit.Log(ctx, audit.LevelInfo, entry.GuildID, entry.UserID, "absence_end", "role removed")
}

// Cancel stops a pending removal without touching the role.
func (s *Scheduler) Cancel(guildID, userID string) bool {
	k := key(guildID, userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[k]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.timers, k)
	delete(s.entries, k)
	return true
}

func (s *Scheduler) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out
}

// Stop cancels every pending timer, leaving roles in place.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, timer := range s.timers {
		timer.Stop()
		delete(s.timers, k)
	}
}
