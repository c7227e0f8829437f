package invites

import (
	"testing"
	"time"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestTracker() *Tracker {
	tracker := NewTracker()
	tracker.WithNow(func() time.Time { return now })
	tracker.Snapshot("g1", []Invite{{Code: "abc", InviterID: "alice", Uses: 3}, {Code: "xyz", InviterID: "bob", Uses: 1}})
	return tracker
}

func TestJoinAttributedByUseDelta(t *testing.T) {
	tracker := newTestTracker()
	old := now.Add(-30 * 24 * time.Hour)

	join, ok := tracker.MemberJoined("g1", "m1", old, []Invite{{Code: "abc", InviterID: "alice", Uses: 3}, {Code: "xyz", InviterID: "bob", Uses: 2}})
	if !ok || join.InviterID != "bob" || join.Code != "xyz" || join.Fake || join.Rejoin {
		t.Fatalf("unexpected join: %+v ok=%v", join, ok)
	}
	if got := tracker.Stats("g1", "bob"); got.Invites != 1 || got.Total() != 1 {
		t.Fatalf("expected one invite for bob, got %+v", got)
	}
	if got := tracker.Stats("g1", "alice"); got.Invites != 0 {
		t.Fatalf("expected alice untouched, got %+v", got)
	}
}

func TestNewInviteCodeIsAttributed(t *testing.T) {
	tracker := newTestTracker()
	join, ok := tracker.MemberJoined("g1", "m1", time.Time{}, []Invite{{Code: "abc", InviterID: "alice", Uses: 3}, {Code: "new", InviterID: "carol", Uses: 1}})
	if !ok || join.InviterID != "carol" {
		t.Fatalf("expected carol credited, got %+v ok=%v", join, ok)
	}
}

func TestFakeAndRejoinReduceTotal(t *testing.T) {
	tracker := newTestTracker()
	young := now.Add(-time.Hour)

	if join, _ := tracker.MemberJoined("g1", "m1", young, []Invite{{Code: "abc", InviterID: "alice", Uses: 4}}); !join.Fake {
		t.Fatalf("expected young account flagged fake")
	}
	join, _ := tracker.MemberJoined("g1", "m1", young, []Invite{{Code: "abc", InviterID: "alice", Uses: 5}})
	if !join.Rejoin {
		t.Fatalf("expected second join flagged as rejoin")
	}
	got := tracker.Stats("g1", "alice")
	if got.Invites != 2 || got.Fake != 2 || got.Rejoins != 1 || got.Total() != -1 {
		t.Fatalf("unexpected stats: %+v total=%d", got, got.Total())
	}
}

func TestUnattributedJoin(t *testing.T) {
	tracker := newTestTracker()
	if _, ok := tracker.MemberJoined("g1", "m1", now, []Invite{{Code: "abc", InviterID: "alice", Uses: 3}}); ok {
		t.Fatalf("expected no attribution without a use delta")
	}
}

func TestBonusFloorsAtZero(t *testing.T) {
	tracker := newTestTracker()
	if got := tracker.AddBonus("g1", "alice", 5); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := tracker.RemoveBonus("g1", "alice", 8); got != 0 {
		t.Fatalf("expected bonus floored at 0, got %d", got)
	}
}

func TestTopOrdersByTotal(t *testing.T) {
	tracker := newTestTracker()
	tracker.AddBonus("g1", "alice", 2)
	tracker.AddBonus("g1", "bob", 7)
	tracker.AddBonus("g1", "carol", 2)
	tracker.AddBonus("g2", "dave", 100)

	top := tracker.Top("g1", 2)
	if len(top) != 2 || top[0].UserID != "bob" || top[1].UserID != "alice" {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}
}
