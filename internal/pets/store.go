package pets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"gsbot/internal/utils"
)

var (
	ErrNotFound  = errors.New("pet not found")
	ErrDuplicate = errors.New("pet already exists")
	ErrNoName    = errors.New("pet name is required")
)

type Record struct {
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Demand      string    `json:"demand"`
	Trend       string    `json:"trend,omitempty"`
	Tier        string    `json:"tier,omitempty"`
	ObtainedBy  string    `json:"obtainement,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	MessageID   string    `json:"message_id,omitempty"`
}

// Change is one field difference produced by an admin update.
type Change struct {
	Field string
	Old   string
	New   string
}

// Patch carries the admin-editable fields; nil means untouched.
type Patch struct {
	Value      *string `json:"value"`
	Demand     *string `json:"demand"`
	Trend      *string `json:"trend"`
	Tier       *string `json:"tier"`
	ObtainedBy *string `json:"obtainement"`
	ImageURL   *string `json:"image_url"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeKey lowercases and trims a name and joins words with underscores.
func NormalizeKey(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// AdminKey is NormalizeKey with dashes folded to underscores as well.
func AdminKey(name string) string {
	return strings.ReplaceAll(NormalizeKey(name), "-", "_")
}

type Entry struct {
	Key    string
	Record Record
}

// Store is the pet record map persisted as a JSON object at path. Keys keep
// the order they were first seen in, both in memory and on disk.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]Record
	order   []string
	now     func() time.Time
}

func NewStore(path string) *Store {
	return &Store{path: path, records: make(map[string]Record), now: time.Now}
}

// Load reads the JSON file; a missing file leaves the store empty.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	records, order, err := decodeOrdered(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.records = records
	s.order = order
	s.mu.Unlock()
	return nil
}

// decodeOrdered reads a JSON object of records, remembering key order.
func decodeOrdered(data []byte) (map[string]Record, []string, error) {
	records := make(map[string]Record)
	var order []string
	if len(bytes.TrimSpace(data)) == 0 {
		return records, order, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return nil, nil, err
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.New("expected a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)
		var record Record
		if err := dec.Decode(&record); err != nil {
			return nil, nil, fmt.Errorf("record %q: %w", key, err)
		}
		if _, seen := records[key]; !seen {
			order = append(order, key)
		}
		records[key] = record
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return records, order, nil
}

// putLocked stores record, appending new keys to the order.
func (s *Store) putLocked(key string, record Record) {
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = record
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	return record, ok
}

// Entries returns every record in first-seen order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.order))
	for _, key := range s.order {
		entries = append(entries, Entry{Key: key, Record: s.records[key]})
	}
	return entries
}

func (s *Store) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.records))
	for key, record := range s.records {
		out[key] = record
	}
	return out
}

// Apply stores extracted records. Extraction overwrites name, value, demand
// and provenance, keeps a previous image when none was found, and leaves the
// admin-only fields alone.
func (s *Store) Apply(found []Extraction, messageID string, at time.Time) error {
	if len(found) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range found {
		key := NormalizeKey(item.Name)
		previous := s.records[key]
		record := previous
		record.Name = item.Name
		record.Value = item.Value
		record.Demand = item.Demand
		record.LastUpdated = at
		record.MessageID = messageID
		if item.ImageURL != "" {
			record.ImageURL = item.ImageURL
		}
		s.putLocked(key, record)
	}
	return s.saveLocked()
}

// Create adds a record through the admin API.
func (s *Store) Create(record Record) (string, Record, error) {
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return "", Record{}, ErrNoName
	}
	key := AdminKey(record.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return "", Record{}, ErrDuplicate
	}
	if record.Value == "" {
		record.Value = "0 Mimic Value"
	}
	if record.Demand == "" {
		record.Demand = "Medium"
	}
	if record.Trend == "" {
		record.Trend = "Stable"
	}
	if record.Tier == "" {
		record.Tier = "Common"
	}
	if record.ObtainedBy == "" {
		record.ObtainedBy = "Unknown"
	}
	record.LastUpdated = s.now().UTC()
	record.MessageID = ""
	s.putLocked(key, record)
	return key, record, s.saveLocked()
}

// Update applies an allowlisted patch and reports the fields that changed.
func (s *Store) Update(key string, patch Patch) (Record, []Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return Record{}, nil, ErrNotFound
	}
	var changes []Change
	set := func(field string, target *string, value *string) {
		if value == nil {
			return
		}
		if *target != *value {
			changes = append(changes, Change{Field: field, Old: *target, New: *value})
		}
		*target = *value
	}
	set("value", &record.Value, patch.Value)
	set("demand", &record.Demand, patch.Demand)
	set("trend", &record.Trend, patch.Trend)
	set("tier", &record.Tier, patch.Tier)
	set("obtainement", &record.ObtainedBy, patch.ObtainedBy)
	set("image_url", &record.ImageURL, patch.ImageURL)
	record.LastUpdated = s.now().UTC()
	s.records[key] = record
	return record, changes, s.saveLocked()
}

func (s *Store) Delete(key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	delete(s.records, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	return record, s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, key := range s.order {
		name, err := json.Marshal(key)
		if err != nil {
			return err
		}
		record, err := json.MarshalIndent(s.records[key], "  ", "  ")
		if err != nil {
			return err
		}
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(record)
	}
	buf.WriteString("\n}\n")
	return utils.WriteFileAtomic(s.path, buf.Bytes())
}
