package invites

import (
	"sort"
	"sync"
	"time"
)

// FakeAccountAge is the account age under which a join counts as fake.
const FakeAccountAge = 7 * 24 * time.Hour

type Stats struct {
	Invites int
	Fake    int
	Rejoins int
	Bonus   int
}

func (s Stats) Total() int {
	return s.Invites + s.Bonus - s.Fake - s.Rejoins
}

// Invite is a snapshot of one guild invite.
type Invite struct {
	Code      string
	InviterID string
	Uses      int
}

type Entry struct {
	UserID string
	Stats  Stats
}

// Join is the outcome of attributing one member join.
type Join struct {
	InviterID string
	Code      string
	Fake      bool
	Rejoin    bool
}

// Tracker attributes joins by diffing invite use counts against the last
// snapshot of each guild.
type Tracker struct {
	mu     sync.Mutex
	now    func() time.Time
	cache  map[string]map[string]Invite
	stats  map[string]map[string]*Stats
	joined map[string]map[string]bool
}

func NewTracker() *Tracker {
	return &Tracker{
		now:    time.Now,
		cache:  make(map[string]map[string]Invite),
		stats:  make(map[string]map[string]*Stats),
		joined: make(map[string]map[string]bool),
	}
}

func (t *Tracker) WithNow(now func() time.Time) {
	t.now = now
}

// Snapshot replaces the cached invite uses for a guild.
func (t *Tracker) Snapshot(guildID string, current []Invite) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshotLocked(guildID, current)
}

func (t *Tracker) snapshotLocked(guildID string, current []Invite) {
	codes := make(map[string]Invite, len(current))
	for _, invite := range current {
		codes[invite.Code] = invite
	}
	t.cache[guildID] = codes
}

func (t *Tracker) Cached(guildID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cache[guildID])
}

// MemberJoined credits the inviter whose invite gained uses since the last
// snapshot. ok is false when no invite could be attributed.
func (t *Tracker) MemberJoined(guildID, memberID string, accountCreated time.Time, current []Invite) (Join, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous := t.cache[guildID]
	t.snapshotLocked(guildID, current)

	var used Invite
	found := false
	for _, invite := range current {
		if invite.Uses > previous[invite.Code].Uses {
			used = invite
			found = true
			break
		}
	}
	if !found || used.InviterID == "" {
		t.markJoinedLocked(guildID, memberID)
		return Join{}, false
	}

	join := Join{InviterID: used.InviterID, Code: used.Code}
	stats := t.statsLocked(guildID, used.InviterID)
	stats.Invites++
	if !accountCreated.IsZero() && t.now().Sub(accountCreated) < FakeAccountAge {
		join.Fake = true
		stats.Fake++
	}
	if t.joined[guildID][memberID] {
		join.Rejoin = true
		stats.Rejoins++
	}
	t.markJoinedLocked(guildID, memberID)
	return join, true
}

func (t *Tracker) markJoinedLocked(guildID, memberID string) {
	members := t.joined[guildID]
	if members == nil {
		members = make(map[string]bool)
		t.joined[guildID] = members
	}
	members[memberID] = true
}

func (t *Tracker) statsLocked(guildID, userID string) *Stats {
	users := t.stats[guildID]
	if users == nil {
		users = make(map[string]*Stats)
		t.stats[guildID] = users
	}
	stats := users[userID]
	if stats == nil {
		stats = &Stats{}
		users[userID] = stats
	}
	return stats
}

func (t *Tracker) Stats(guildID, userID string) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.statsLocked(guildID, userID)
}

// AddBonus returns the new bonus total.
func (t *Tracker) AddBonus(guildID, userID string, amount int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.statsLocked(guildID, userID)
	stats.Bonus += amount
	return stats.Bonus
}

// RemoveBonus never takes the bonus below zero.
func (t *Tracker) RemoveBonus(guildID, userID string, amount int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.statsLocked(guildID, userID)
	stats.Bonus = max(0, stats.Bonus-amount)
	return stats.Bonus
}

// Top returns up to n users ordered by total score.
func (t *Tracker) Top(guildID string, n int) []Entry {
	t.mu.Lock()
	entries := make([]Entry, 0, len(t.stats[guildID]))
	for userID, stats := range t.stats[guildID] {
		entries = append(entries, Entry{UserID: userID, Stats: *stats})
	}
	t.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stats.Total() != entries[j].Stats.Total() {
			return entries[i].Stats.Total() > entries[j].Stats.Total()
		}
		return entries[i].UserID < entries[j].UserID
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
