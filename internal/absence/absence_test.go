package absence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gsbot/internal/modules/audit"
	"gsbot/internal/storage"

	"go.uber.org/zap"
)

type fakeTimer struct {
	stopped bool
	fn      func()
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	delays []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fn: fn}
	f.timers = append(f.timers, t)
	f.delays = append(f.delays, d)
	return t
}

// Fire runs every timer that was not stopped.
func (f *fakeClock) Fire() {
	f.mu.Lock()
	pending := append([]*fakeTimer{}, f.timers...)
	f.timers = nil
	f.mu.Unlock()
	for _, timer := range pending {
		if !timer.stopped {
			timer.fn()
		}
	}
}

type fakeRoles struct {
	mu      sync.Mutex
	held    map[string]bool
	ended   []Entry
	addErr  error
	removed int
}

func (r *fakeRoles) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held[userID] = true
	return nil
}

func (r *fakeRoles) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, userID)
	r.removed++
	return nil
}

func (r *fakeRoles) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held[userID], nil
}

func (r *fakeRoles) Ended(ctx context.Context, entry Entry) error {
	r.ended = append(r.ended, entry)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeClock, *fakeRoles) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	_ = store.Migrate()
	t.Cleanup(store.Close)
	roles := &fakeRoles{held: make(map[string]bool)}
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	scheduler := NewScheduler(roles, audit.NewLogger(store, zap.NewNop()), zap.NewNop())
	scheduler.WithClock(clock)
	return scheduler, clock, roles
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"10m", 10 * time.Minute, true},
		{"2H", 2 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"30s", 30 * time.Second, true},
		{"10", 0, false},
		{"m", 0, false},
		{"0m", 0, false},
		{"5w", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.input)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("ParseDuration(%q): expected %v ok=%v, got %v err=%v", tc.input, tc.want, tc.ok, got, err)
		}
	}
}

func TestMarkSchedulesRemoval(t *testing.T) {
	scheduler, clock, roles := newTestScheduler(t)
	entry, err := scheduler.Mark(context.Background(), Entry{GuildID: "g1", UserID: "u1", RoleID: "r1", ChannelID: "c1"}, 2*time.Hour)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !entry.Until.Equal(clock.now.Add(2*time.Hour)) || clock.delays[0] != 2*time.Hour {
		t.Fatalf("unexpected schedule: until=%v delays=%v", entry.Until, clock.delays)
	}
	if !roles.held["u1"] || len(scheduler.Pending()) != 1 {
		t.Fatalf("expected role added and entry pending")
	}

	clock.Fire()
	if roles.held["u1"] || len(roles.ended) != 1 || len(scheduler.Pending()) != 0 {
		t.Fatalf("expected role removed and end announced")
	}
}

func TestRoleAlreadyGoneSkipsAnnouncement(t *testing.T) {
	scheduler, clock, roles := newTestScheduler(t)
	_, _ = scheduler.Mark(context.Background(), Entry{GuildID: "g1", UserID: "u1", RoleID: "r1"}, time.Minute)
	delete(roles.held, "u1")

	clock.Fire()
	if roles.removed != 0 || len(roles.ended) != 0 {
		t.Fatalf("expected nothing to do when the role is gone")
	}
}

func TestRemarkRestartsTimer(t *testing.T) {
	scheduler, clock, roles := newTestScheduler(t)
	ctx := context.Background()
	_, _ = scheduler.Mark(ctx, Entry{GuildID: "g1", UserID: "u1", RoleID: "r1"}, time.Minute)
	first := clock.timers[0]
	clock.now = clock.now.Add(30 * time.Second)
	_, _ = scheduler.Mark(ctx, Entry{GuildID: "g1", UserID: "u1", RoleID: "r1"}, time.Hour)

	if !first.stopped {
		t.Fatalf("expected first timer stopped")
	}
	first.fn()
	if !roles.held["u1"] {
		t.Fatalf("expected stale timer to leave the role alone")
	}
}

func TestAddRoleFailure(t *testing.T) {
	scheduler, clock, roles := newTestScheduler(t)
	roles.addErr = errors.New("missing permissions")
	if _, err := scheduler.Mark(context.Background(), Entry{GuildID: "g1", UserID: "u1", RoleID: "r1"}, time.Minute); err == nil {
		t.Fatalf("expected error")
	}
	if len(clock.timers) != 0 || len(scheduler.Pending()) != 0 {
		t.Fatalf("expected nothing scheduled")
	}
}

func TestCancel(t *testing.T) {
	scheduler, clock, _ := newTestScheduler(t)
	_, _ = scheduler.Mark(context.Background(), Entry{GuildID: "g1", UserID: "u1", RoleID: "r1"}, time.Minute)
	if !scheduler.Cancel("g1", "u1") || scheduler.Cancel("g1", "u1") {
		t.Fatalf("expected a single successful cancel")
	}
	if !clock.timers[0].stopped {
		t.Fatalf("expected timer stopped")
	}
}
