package analytics

import (
	"sync"
	"time"
)

type GuideStatus struct {
	Count     int
	Remaining int
	Interval  int
	LastSent  time.Time
}

// ChatGuide counts channel messages and decides when the guide reminder is due.
type ChatGuide struct {
	mu       sync.Mutex
	clock    Clock
	interval int
	cooldown time.Duration
	counts   map[string]int
	lastSent map[string]time.Time
}

func NewChatGuide(interval int, cooldown time.Duration) *ChatGuide {
	if interval <= 0 {
		interval = 100
	}
	return &ChatGuide{
		clock:    realClock{},
		interval: interval,
		cooldown: cooldown,
		counts:   make(map[string]int),
		lastSent: make(map[string]time.Time),
	}
}

func (g *ChatGuide) WithClock(clock Clock) {
	g.clock = clock
}

// Observe counts one message and reports whether the reminder should be posted.
func (g *ChatGuide) Observe(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counts[channelID]++
	if g.counts[channelID]%g.interval != 0 {
		return false
	}
	last, ok := g.lastSent[channelID]
	return !ok || g.clock.Now().Sub(last) > g.cooldown
}

func (g *ChatGuide) MarkSent(channelID string) {
	g.mu.Lock()
	g.lastSent[channelID] = g.clock.Now()
	g.mu.Unlock()
}

// Manual reports the wait left before a manual post is allowed.
func (g *ChatGuide) Manual(channelID string, cooldown time.Duration) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.lastSent[channelID]
	if !ok {
		return 0
	}
	if elapsed := g.clock.Now().Sub(last); elapsed < cooldown {
		return cooldown - elapsed
	}
	return 0
}

func (g *ChatGuide) Status(channelID string) GuideStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := g.counts[channelID]
	return GuideStatus{
		Count:     count,
		Remaining: g.interval - count%g.interval,
		Interval:  g.interval,
		LastSent:  g.lastSent[channelID],
	}
}
