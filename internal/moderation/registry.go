package moderation

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrExpired  = errors.New("confirmation expired")
	ErrNotOwner = errors.New("only the proposing moderator may answer")
)

const (
	confirmPrefix = "mod:confirm:"
	cancelPrefix  = "mod:cancel:"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Pending is a proposed action waiting for the moderator's confirmation.
type Pending struct {
	ID          string
	Action      Action
	GuildID     string
	ChannelID   string
	MessageID   string
	ModeratorID string
	TargetID    string
	Duration    string
	Reason      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func ConfirmID(id string) string { return confirmPrefix + id }
func CancelID(id string) string  { return cancelPrefix + id }

// ParseCustomID splits a button custom id into its verb and correlation id.
func ParseCustomID(customID string) (confirm bool, id string, ok bool) {
	switch {
	case strings.HasPrefix(customID, confirmPrefix):
		return true, strings.TrimPrefix(customID, confirmPrefix), true
	case strings.HasPrefix(customID, cancelPrefix):
		return false, strings.TrimPrefix(customID, cancelPrefix), true
	}
	return false, "", false
}

// Registry holds pending confirmations keyed by correlation id. Entries are
// dropped on first resolution or once expired.
type Registry struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	pending map[string]Pending
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Registry{ttl: ttl, clock: realClock{}, pending: make(map[string]Pending)}
}

func (r *Registry) WithClock(clock Clock) {
	r.clock = clock
}

func (r *Registry) Propose(p Pending) Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	now := r.clock.Now()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.ExpiresAt = now.Add(r.ttl)
	r.pending[p.ID] = p
	return p
}

// SetMessage records where the confirmation prompt was posted.
func (r *Registry) SetMessage(id, messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pending[id]; ok {
		p.MessageID = messageID
		r.pending[id] = p
	}
}

// Resolve claims a pending entry for userID. A wrong user leaves the entry in place.
func (r *Registry) Resolve(id, userID string) (Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[id]
	if !ok {
		return Pending{}, ErrExpired
	}
	if !r.clock.Now().Before(p.ExpiresAt) {
		delete(r.pending, id)
		return Pending{}, ErrExpired
	}
	if p.ModeratorID != userID {
		return Pending{}, ErrNotOwner
	}
	delete(r.pending, id)
	return p, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.pending)
}

func (r *Registry) sweepLocked() {
	now := r.clock.Now()
	for id, p := range r.pending {
		if !now.Before(p.ExpiresAt) {
			delete(r.pending, id)
		}
	}
}
