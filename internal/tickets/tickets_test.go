package tickets

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

type fakePlatform struct {
	history  []Message
	access   []Access
	renames  []string
	topics   []string
	logs     []LogEntry
	deleted  []string
	registry *Registry
	// present records whether the registry still held the ticket when the channel was deleted.
	present bool
	// logFailures is how many PostLog calls fail before one succeeds.
	logFailures int
	logAttempts []LogEntry
}

func (p *fakePlatform) History(ctx context.Context, channelID string) ([]Message, error) {
	return p.history, nil
}

func (p *fakePlatform) SetAccess(ctx context.Context, channelID string, access Access) error {
	p.access = append(p.access, access)
	return nil
}

func (p *fakePlatform) Rename(ctx context.Context, channelID, name string) error {
	p.renames = append(p.renames, name)
	return nil
}

func (p *fakePlatform) SetTopic(ctx context.Context, channelID, topic string) error {
	p.topics = append(p.topics, topic)
	return nil
}

func (p *fakePlatform) DeleteChannel(ctx context.Context, channelID string) error {
	p.deleted = append(p.deleted, channelID)
	_, p.present = p.registry.Get(channelID)
	return nil
}

func (p *fakePlatform) PostLog(ctx context.Context, entry LogEntry) error {
	p.logAttempts = append(p.logAttempts, entry)
	if p.logFailures > 0 {
		p.logFailures--
		return errors.New("missing access")
	}
	p.logs = append(p.logs, entry)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *fakePlatform) {
	t.Helper()
	registry := NewRegistry(filepath.Join(t.TempDir(), "tickets.json"))
	platform := &fakePlatform{registry: registry}
	return NewManager(registry, platform, "staff", zap.NewNop()), platform
}

func sampleHistory() []Message {
	at := time.Date(2024, 3, 2, 10, 4, 5, 0, time.UTC)
	return []Message{
		{AuthorID: "bot", AuthorName: "gsbot", Bot: true, Staff: true, Content: "welcome", CreatedAt: at},
		{AuthorID: "100", AuthorName: "buyer", Content: "hi", CreatedAt: at.Add(time.Minute)},
		{AuthorID: "200", AuthorName: "helper", Staff: true, Content: "hello", Attachments: []string{"https://cdn/a.png"}, CreatedAt: at.Add(2 * time.Minute)},
		{AuthorID: "200", AuthorName: "helper", Staff: true, Content: "done", CreatedAt: at.Add(3 * time.Minute)},
	}
}

func TestDeletePostsOneTranscriptThenRemovesKey(t *testing.T) {
	manager, platform := newTestManager(t)
	platform.history = sampleHistory()
	if err := manager.Open("c1", "100", "m1", KindSupport); err != nil {
		t.Fatalf("open: %v", err)
	}

	channel := Channel{ID: "c1", Name: "support-ticket-buyer", Topic: "100;"}
	if err := manager.Delete(context.Background(), channel, "200"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	transcripts := 0
	for _, entry := range platform.logs {
		if entry.Transcript != "" {
			transcripts++
		}
	}
	if transcripts != 1 {
		t.Fatalf("expected exactly one transcript, got %d", transcripts)
	}
	if len(platform.deleted) != 1 || platform.present {
		t.Fatalf("expected registry key removed before channel delete, deleted=%v present=%v", platform.deleted, platform.present)
	}
	if _, ok := manager.Registry().Get("c1"); ok {
		t.Fatalf("expected registry key removed")
	}
	if platform.logs[0].Fields[1].Value != "<@200>" {
		t.Fatalf("unexpected staff field: %+v", platform.logs[0].Fields)
	}
}

func TestDeleteKeepsChannelWhenTranscriptFails(t *testing.T) {
	manager, platform := newTestManager(t)
	platform.history = sampleHistory()
	platform.logFailures = 2
	if err := manager.Open("c1", "100", "m1", KindSupport); err != nil {
		t.Fatalf("open: %v", err)
	}

	channel := Channel{ID: "c1", Name: "support-ticket-buyer", Topic: "100;"}
	if err := manager.Delete(context.Background(), channel, "200"); err == nil {
		t.Fatalf("expected delete to fail when the transcript cannot be posted")
	}
	if len(platform.deleted) != 0 {
		t.Fatalf("channel deleted without a transcript: %v", platform.deleted)
	}
	if _, ok := manager.Registry().Get("c1"); !ok {
		t.Fatalf("expected registry key kept")
	}
	if len(platform.logAttempts) != 2 || platform.logAttempts[1].Content != "" {
		t.Fatalf("expected one retry without pings, got %d attempts", len(platform.logAttempts))
	}
}

func TestDeleteRetriesLogWithoutPings(t *testing.T) {
	manager, platform := newTestManager(t)
	platform.history = sampleHistory()
	platform.logFailures = 1
	_ = manager.Open("c1", "100", "m1", KindSupport)

	channel := Channel{ID: "c1", Name: "support-ticket-buyer", Topic: "100;"}
	if err := manager.Delete(context.Background(), channel, "200"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(platform.logs) != 1 || platform.logs[0].Content != "" || platform.logs[0].Transcript == "" {
		t.Fatalf("expected one transcript posted without pings, got %+v", platform.logs)
	}
	if len(platform.deleted) != 1 {
		t.Fatalf("expected channel deleted after retry")
	}
}

func TestCloseRevokesCreatorAndMarksClosed(t *testing.T) {
	manager, platform := newTestManager(t)
	platform.history = sampleHistory()
	_ = manager.Open("c1", "100", "m1", KindBuying)

	channel := Channel{ID: "c1", Name: "buying-ticket-buyer"}
	if err := manager.Close(context.Background(), channel, "200"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(platform.access) != 1 || platform.access[0].TargetID != "100" || platform.access[0].View || platform.access[0].Send {
		t.Fatalf("expected creator view/send revoked, got %+v", platform.access)
	}
	if len(platform.renames) != 1 || platform.renames[0] != "closed-buying-ticket-buyer" {
		t.Fatalf("unexpected renames: %v", platform.renames)
	}
	record, ok := manager.Registry().Get("c1")
	if !ok || !record.Closed || record.ClosedAt == nil {
		t.Fatalf("expected record retained and closed, got %+v", record)
	}

	closed := Channel{ID: "c1", Name: "closed-buying-ticket-buyer"}
	_ = manager.Close(context.Background(), closed, "200")
	if len(platform.renames) != 1 {
		t.Fatalf("expected rename only once, got %v", platform.renames)
	}
}

func TestClaimUsesTopicFallback(t *testing.T) {
	manager, platform := newTestManager(t)
	channel := Channel{ID: "c9", Name: "support-ticket-x", Topic: "555;"}

	if err := manager.Claim(context.Background(), channel, "200"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(platform.topics) != 1 || platform.topics[0] != "555;200" {
		t.Fatalf("unexpected topic: %v", platform.topics)
	}
	if len(platform.access) != 2 || !platform.access[0].Role || platform.access[0].Send || !platform.access[1].Send {
		t.Fatalf("unexpected overwrites: %+v", platform.access)
	}
	record, _ := manager.Registry().Get("c9")
	if record.CreatorID != "555" || record.ClaimerID != "200" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(platform.logs) != 1 || platform.logs[0].Title != "Ticket Claimed" {
		t.Fatalf("expected claim log, got %+v", platform.logs)
	}

	if err := manager.Transfer(context.Background(), channel, "300"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	record, _ = manager.Registry().Get("c9")
	if record.ClaimerID != "300" || len(platform.logs) != 1 {
		t.Fatalf("expected silent transfer, got %+v logs=%d", record, len(platform.logs))
	}
}

func TestRegistryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.json")
	registry := NewRegistry(path)
	if err := registry.Put("c1", Record{CreatorID: "1", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := registry.AddPanel(Panel{ChannelID: "p", MessageID: "m"}); err != nil {
		t.Fatalf("panel: %v", err)
	}

	reloaded := NewRegistry(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := reloaded.Get("c1"); !ok || len(reloaded.Panels()) != 1 {
		t.Fatalf("expected persisted ticket and panel")
	}
	if removed, _ := reloaded.Remove("missing"); removed {
		t.Fatalf("expected nothing removed")
	}
}

func TestRenderTranscript(t *testing.T) {
	if got := RenderTranscript(nil); got != "(no messages)" {
		t.Fatalf("expected empty marker, got %q", got)
	}
	lines := strings.Split(RenderTranscript(sampleHistory()), "\n")
	if lines[2] != "[2024-03-02 10:06:05] helper (200): hello [attachments: https://cdn/a.png]" {
		t.Fatalf("unexpected line: %q", lines[2])
	}

	long := RenderTranscript([]Message{{AuthorID: "1", AuthorName: "a", Content: strings.Repeat("x", 3100)}})
	if !strings.HasSuffix(long, "...[truncated]") {
		t.Fatalf("expected truncation marker")
	}

	wide := RenderTranscript([]Message{{AuthorID: "1", AuthorName: "a", Content: "a" + strings.Repeat("é", 3100)}})
	if !utf8.ValidString(wide) {
		t.Fatalf("expected valid utf8 after truncating multi-byte content")
	}
	body := strings.TrimSuffix(wide[strings.Index(wide, "): ")+3:], "...[truncated]")
	if n := utf8.RuneCountInString(body); n != MaxMessageLength {
		t.Fatalf("expected %d runes kept, got %d", MaxMessageLength, n)
	}
}

func TestTopicAndNames(t *testing.T) {
	creator, claimer := ParseTopic("123;456")
	if creator != "123" || claimer != "456" {
		t.Fatalf("unexpected topic parse %q %q", creator, claimer)
	}
	creator, claimer = ParseTopic("hello")
	if creator != "" || claimer != "" {
		t.Fatalf("expected non-numeric topic ignored")
	}
	if got := ChannelName(KindBuying, "Cool.User!"); got != "buying-ticket-cooluser" {
		t.Fatalf("unexpected channel name %q", got)
	}
	if !IsTicketChannel("closed-support-ticket-a", true) || IsTicketChannel("closed-support-ticket-a", false) {
		t.Fatalf("unexpected closed channel matching")
	}
}

func TestCheck(t *testing.T) {
	manager, _ := newTestManager(t)
	if err := manager.Check(Channel{ID: "x", Name: "general"}, false); !errors.Is(err, ErrNotTicket) {
		t.Fatalf("expected not ticket, got %v", err)
	}
	_ = manager.Open("renamed", "1", "", KindSupport)
	if err := manager.Check(Channel{ID: "renamed", Name: "custom"}, false); err != nil {
		t.Fatalf("expected registered channel accepted, got %v", err)
	}
}
