package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"gsbot/internal/modules/audit"
	"gsbot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type countingLedger struct {
	*storage.Store
	adds int
	fail bool
}

func (l *countingLedger) AddAction(ctx context.Context, action storage.ModerationAction) (int64, error) {
	l.adds++
	if l.fail {
		return 0, errors.New("database unavailable")
	}
	return l.Store.AddAction(ctx, action)
}

type fakeEnforcer struct {
	timeouts []*time.Time
	kicks    int
	bans     int
	err      error
}

func (e *fakeEnforcer) Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error {
	e.timeouts = append(e.timeouts, until)
	return e.err
}

func (e *fakeEnforcer) Kick(ctx context.Context, guildID, userID, reason string) error {
	e.kicks++
	return e.err
}

func (e *fakeEnforcer) Ban(ctx context.Context, guildID, userID, reason string) error {
	e.bans++
	return e.err
}

type fakeNotifier struct {
	sent []Notice
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, userID string, notice Notice) error {
	n.sent = append(n.sent, notice)
	return n.err
}

func newTestService(t *testing.T) (*Service, *countingLedger, *fakeEnforcer, *fakeNotifier) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(store.Close)
	ledger := &countingLedger{Store: store}
	enforcer := &fakeEnforcer{}
	notifier := &fakeNotifier{}
	service := NewService(ledger, enforcer, notifier, audit.NewLogger(store, zap.NewNop()), zap.NewNop(), "")
	return service, ledger, enforcer, notifier
}

var (
	moderator = Member{ID: "mod", Permissions: discordgo.PermissionKickMembers | discordgo.PermissionModerateMembers | discordgo.PermissionBanMembers, Rank: 5}
	botMember = Member{ID: "bot", Permissions: discordgo.PermissionAdministrator, Rank: 10}
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"2h", 120},
		{"30m", 30},
		{"1d", 1440},
		{"0m", DefaultMinutes},
		{"bogus", DefaultMinutes},
		{"", DefaultMinutes},
	}
	for _, tc := range cases {
		got, ok := ParseDuration(tc.input)
		if !ok || got != tc.want {
			t.Fatalf("ParseDuration(%q): expected %d, got %d ok=%v", tc.input, tc.want, got, ok)
		}
	}
	if _, ok := ParseDuration("permanent"); ok {
		t.Fatalf("expected permanent to carry no duration")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		0:    "Permanent",
		1:    "1 minute",
		90:   "1 hour 30 minutes",
		120:  "2 hours",
		1500: "1 day 1 hour",
	}
	for minutes, want := range cases {
		if got := FormatDuration(minutes); got != want {
			t.Fatalf("FormatDuration(%d): expected %q, got %q", minutes, want, got)
		}
	}
	if ClampTimeout(MaxTimeoutMinutes+5) != MaxTimeoutMinutes {
		t.Fatalf("expected clamp to 28 days")
	}
}

func TestCheckActor(t *testing.T) {
	target := Member{ID: "target", Rank: 5}
	err := CheckActor(ActionKick, moderator, target)
	var guard *GuardError
	if !errors.As(err, &guard) {
		t.Fatalf("expected guard error for equal rank, got %v", err)
	}

	owner := Member{ID: "owner", IsOwner: true, Rank: 1}
	if err := CheckActor(ActionBan, owner, target); err != nil {
		t.Fatalf("expected owner exempt, got %v", err)
	}

	if err := CheckActor(ActionBan, Member{ID: "x", Permissions: discordgo.PermissionKickMembers, Rank: 9}, target); err == nil {
		t.Fatalf("expected missing ban permission")
	}
	if err := CheckActor(ActionWarn, moderator, moderator); err == nil {
		t.Fatalf("expected self rejection")
	}
}

func TestCheckBotHint(t *testing.T) {
	err := CheckBot(ActionMute, Member{ID: "bot", Permissions: discordgo.PermissionSendMessages, Rank: 10}, Member{ID: "t", Rank: 1})
	if err == nil {
		t.Fatalf("expected missing permission")
	}
	var guard *GuardError
	if !errors.As(err, &guard) || guard.Hint == "" {
		t.Fatalf("expected remediation hint, got %v", err)
	}
}

func TestRankRejectedBeforeLedger(t *testing.T) {
	service, ledger, enforcer, notifier := newTestService(t)

	_, err := service.Execute(context.Background(), Request{
		Action: ActionBan, GuildID: "g1", Actor: moderator, Target: Member{ID: "t", Rank: 7}, Bot: botMember, Reason: "spam",
	})
	if err == nil {
		t.Fatalf("expected rank rejection")
	}
	if ledger.adds != 0 || enforcer.bans != 0 || len(notifier.sent) != 0 {
		t.Fatalf("expected no side effects, got adds=%d bans=%d dms=%d", ledger.adds, enforcer.bans, len(notifier.sent))
	}

	_, err = service.Execute(context.Background(), Request{
		Action: ActionKick, GuildID: "g1", Actor: moderator, Target: Member{ID: "t", Rank: 2}, Bot: Member{ID: "bot", Permissions: discordgo.PermissionAdministrator, Rank: 2},
	})
	if err == nil || ledger.adds != 0 {
		t.Fatalf("expected bot rank rejection before ledger, got err=%v adds=%d", err, ledger.adds)
	}
}

func TestMuteWarnWritesTwoRows(t *testing.T) {
	service, ledger, enforcer, notifier := newTestService(t)
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	service.WithClock(clock)

	result, err := service.Execute(context.Background(), Request{
		Action: ActionMuteWarn, GuildID: "g1", Actor: moderator, Target: Member{ID: "t", Rank: 1}, Bot: botMember, Minutes: 120, Reason: "flood",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.ActionIDs) != 2 || !result.Logged || !result.DMSent {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(enforcer.timeouts) != 1 || !enforcer.timeouts[0].Equal(clock.now.Add(2*time.Hour)) {
		t.Fatalf("expected two hour timeout, got %+v", enforcer.timeouts)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Minutes != 120 {
		t.Fatalf("expected one notice, got %+v", notifier.sent)
	}

	actions, err := ledger.ListActions(context.Background(), "g1", "t", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	counts := storage.Counts(actions)
	if counts[storage.ActionWarn] != 1 || counts[storage.ActionMute] != 1 {
		t.Fatalf("expected warn and mute rows, got %v", counts)
	}
}

func TestEnforcementFailureWritesNothing(t *testing.T) {
	service, ledger, enforcer, _ := newTestService(t)
	enforcer.err = errors.New("missing access")

	_, err := service.Execute(context.Background(), Request{
		Action: ActionKick, GuildID: "g1", Actor: moderator, Target: Member{ID: "t", Rank: 1}, Bot: botMember,
	})
	if err == nil {
		t.Fatalf("expected enforcement error")
	}
	if ledger.adds != 0 {
		t.Fatalf("expected no ledger row, got %d", ledger.adds)
	}
}

func TestLedgerFailureStillEnforces(t *testing.T) {
	service, ledger, enforcer, _ := newTestService(t)
	ledger.fail = true

	result, err := service.Execute(context.Background(), Request{
		Action: ActionBan, GuildID: "g1", Actor: moderator, Target: Member{ID: "t", Rank: 1}, Bot: botMember, Permanent: true,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if enforcer.bans != 1 || result.Logged {
		t.Fatalf("expected ban applied but not logged, got bans=%d result=%+v", enforcer.bans, result)
	}
}

func TestRemoveActionLiftsMute(t *testing.T) {
	service, _, enforcer, _ := newTestService(t)
	ctx := context.Background()

	result, err := service.Execute(ctx, Request{
		Action: ActionMute, GuildID: "g1", Actor: moderator, Target: Member{ID: "t", Rank: 1}, Bot: botMember, Minutes: 10,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	id := result.ActionIDs[0]

	if _, err := service.RemoveAction(ctx, "g1", id, "mod", "appeal"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(enforcer.timeouts) != 2 || enforcer.timeouts[1] != nil {
		t.Fatalf("expected timeout cleared, got %+v", enforcer.timeouts)
	}
	if _, err := service.RemoveAction(ctx, "g1", id, "mod", "again"); !errors.Is(err, storage.ErrNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}
	if _, err := service.RemoveAction(ctx, "g1", 999, "mod", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUnmuteRequiresActiveTimeout(t *testing.T) {
	service, _, _, _ := newTestService(t)
	past := time.Now().Add(-time.Minute)
	if _, err := service.Unmute(context.Background(), "g1", "mod", "t", &past, ""); !errors.Is(err, ErrNotMuted) {
		t.Fatalf("expected not muted, got %v", err)
	}
	if _, err := service.Unmute(context.Background(), "g1", "mod", "t", nil, ""); !errors.Is(err, ErrNotMuted) {
		t.Fatalf("expected not muted, got %v", err)
	}
}

func TestRegistryExpiryAndOwnership(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	registry := NewRegistry(5 * time.Minute)
	registry.WithClock(clock)

	pending := registry.Propose(Pending{Action: ActionWarn, ModeratorID: "mod", TargetID: "t"})
	confirm, id, ok := ParseCustomID(ConfirmID(pending.ID))
	if !ok || !confirm || id != pending.ID {
		t.Fatalf("unexpected custom id parse: %v %q %v", confirm, id, ok)
	}

	if _, err := registry.Resolve(pending.ID, "someone"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	got, err := registry.Resolve(pending.ID, "mod")
	if err != nil || got.TargetID != "t" {
		t.Fatalf("expected resolve, got %+v %v", got, err)
	}
	if _, err := registry.Resolve(pending.ID, "mod"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected second resolve to fail, got %v", err)
	}

	stale := registry.Propose(Pending{Action: ActionKick, ModeratorID: "mod"})
	clock.Advance(5 * time.Minute)
	if _, err := registry.Resolve(stale.ID, "mod"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expiry, got %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", registry.Len())
	}
}
