package tickets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gsbot/internal/utils"
)

var ErrNotTicket = errors.New("not a ticket channel")

type Record struct {
	CreatorID       string     `json:"creator_id,omitempty"`
	ClaimerID       string     `json:"claimer_id,omitempty"`
	ActionMessageID string     `json:"action_message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Closed          bool       `json:"closed,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	Kind            string     `json:"kind,omitempty"`
}

type Panel struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

type registryFile struct {
	Tickets map[string]Record `json:"tickets"`
	Panels  []Panel           `json:"panels"`
}

// Registry is the JSON-backed ticket index keyed by channel id. Every
// mutation is persisted before the lock is released.
type Registry struct {
	mu   sync.Mutex
	path string
	data registryFile
}

func NewRegistry(path string) *Registry {
	return &Registry{path: path, data: registryFile{Tickets: make(map[string]Record)}}
}

// Load reads the registry file. A missing or unreadable file starts empty.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var data registryFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse %s: %w", r.path, err)
	}
	if data.Tickets == nil {
		data.Tickets = make(map[string]Record)
	}
	r.data = data
	return nil
}

func (r *Registry) Get(channelID string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.data.Tickets[channelID]
	return record, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data.Tickets)
}

func (r *Registry) Put(channelID string, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Tickets[channelID] = record
	return r.saveLocked()
}

// Update applies fn to the record, creating an empty one when absent.
func (r *Registry) Update(channelID string, fn func(*Record)) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.data.Tickets[channelID]
	fn(&record)
	r.data.Tickets[channelID] = record
	return record, r.saveLocked()
}

// Remove deletes the record; false when there was nothing to delete.
func (r *Registry) Remove(channelID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data.Tickets[channelID]; !ok {
		return false, nil
	}
	delete(r.data.Tickets, channelID)
	return true, r.saveLocked()
}

func (r *Registry) Tickets() map[string]Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Record, len(r.data.Tickets))
	for id, record := range r.data.Tickets {
		out[id] = record
	}
	return out
}

func (r *Registry) AddPanel(panel Panel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Panels = append(r.data.Panels, panel)
	return r.saveLocked()
}

func (r *Registry) Panels() []Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Panel(nil), r.data.Panels...)
}

func (r *Registry) saveLocked() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(r.path, data)
}
