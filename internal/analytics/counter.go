package analytics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

func ParsePeriod(value string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(value))) {
	case "", Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown period %q", value)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Counts struct {
	Daily       int
	Weekly      int
	Monthly     int
	LastMessage time.Time
}

func (c Counts) For(period Period) int {
	switch period {
	case Weekly:
		return c.Weekly
	case Monthly:
		return c.Monthly
	default:
		return c.Daily
	}
}

type Entry struct {
	UserID string
	Count  int
}

// Counter tracks per-user message counts with calendar resets in UTC.
type Counter struct {
	mu           sync.Mutex
	clock        Clock
	users        map[string]*Counts
	dailyReset   time.Time
	weeklyReset  time.Time
	monthlyReset time.Time
}

func NewCounter() *Counter {
	return &Counter{clock: realClock{}, users: make(map[string]*Counts)}
}

func (c *Counter) WithClock(clock Clock) {
	c.clock = clock
}

func (c *Counter) Record(guildID, userID string) Counts {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now().UTC()
	c.resetLocked(now)

	key := guildID + ":" + userID
	item := c.users[key]
	if item == nil {
		item = &Counts{}
		c.users[key] = item
	}
	item.Daily++
	item.Weekly++
	item.Monthly++
	item.LastMessage = now
	return *item
}

func (c *Counter) Get(guildID, userID string) Counts {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(c.clock.Now().UTC())
	item := c.users[guildID+":"+userID]
	if item == nil {
		return Counts{}
	}
	return *item
}

// Top returns users with a positive count for the period, highest first.
func (c *Counter) Top(guildID string, period Period, limit int) []Entry {
	c.mu.Lock()
	c.resetLocked(c.clock.Now().UTC())
	prefix := guildID + ":"
	var entries []Entry
	for key, item := range c.users {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if count := item.For(period); count > 0 {
			entries = append(entries, Entry{UserID: strings.TrimPrefix(key, prefix), Count: count})
		}
	}
	c.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].Count > entries[j].Count
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (c *Counter) resetLocked(now time.Time) {
	if c.dailyReset.IsZero() || now.After(c.dailyReset) {
		for _, item := range c.users {
			item.Daily = 0
		}
		c.dailyReset = midnight(now).AddDate(0, 0, 1)
	}
	if c.weeklyReset.IsZero() || now.After(c.weeklyReset) {
		for _, item := range c.users {
			item.Weekly = 0
		}
		c.weeklyReset = midnight(now).AddDate(0, 0, 6-mondayWeekday(now))
	}
	if c.monthlyReset.IsZero() || now.After(c.monthlyReset) {
		for _, item := range c.users {
			item.Monthly = 0
		}
		c.monthlyReset = time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayWeekday numbers days from Monday=0 to Sunday=6.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
