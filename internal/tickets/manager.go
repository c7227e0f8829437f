package tickets

import (
	"context"
	"fmt"
	"time"

	"gsbot/internal/metrics"

	"go.uber.org/zap"
)

type Channel struct {
	ID    string
	Name  string
	Topic string
}

// Access is a permission overwrite for a role or a member.
type Access struct {
	TargetID string
	Role     bool
	View     bool
	Send     bool
}

type Field struct {
	Name  string
	Value string
}

// LogEntry is posted to the ticket log channel, optionally with a transcript file.
type LogEntry struct {
	Title          string
	Description    string
	Content        string
	Fields         []Field
	TranscriptName string
	Transcript     string
}

// Platform is the slice of the chat API the ticket lifecycle drives.
type Platform interface {
	History(ctx context.Context, channelID string) ([]Message, error)
	SetAccess(ctx context.Context, channelID string, access Access) error
	Rename(ctx context.Context, channelID, name string) error
	SetTopic(ctx context.Context, channelID, topic string) error
	DeleteChannel(ctx context.Context, channelID string) error
	PostLog(ctx context.Context, entry LogEntry) error
}

type Manager struct {
	registry    *Registry
	platform    Platform
	staffRoleID string
	logger      *zap.Logger
	now         func() time.Time
}

func NewManager(registry *Registry, platform Platform, staffRoleID string, logger *zap.Logger) *Manager {
	return &Manager{registry: registry, platform: platform, staffRoleID: staffRoleID, logger: logger, now: time.Now}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// Participants resolves creator and claimer from the registry, then the topic.
func (m *Manager) Participants(channel Channel) (creatorID, claimerID string) {
	if record, ok := m.registry.Get(channel.ID); ok {
		creatorID, claimerID = record.CreatorID, record.ClaimerID
	}
	if creatorID == "" {
		topicCreator, topicClaimer := ParseTopic(channel.Topic)
		creatorID = topicCreator
		if claimerID == "" {
			claimerID = topicClaimer
		}
	}
	return creatorID, claimerID
}

// Check returns ErrNotTicket unless the channel is named or registered as a ticket.
func (m *Manager) Check(channel Channel, includeClosed bool) error {
	if IsTicketChannel(channel.Name, includeClosed) {
		return nil
	}
	if record, ok := m.registry.Get(channel.ID); ok && (includeClosed || !record.Closed) {
		return nil
	}
	return ErrNotTicket
}

func (m *Manager) Open(channelID, creatorID, actionMessageID, kind string) error {
	err := m.registry.Put(channelID, Record{
		CreatorID:       creatorID,
		ActionMessageID: actionMessageID,
		CreatedAt:       m.now().UTC(),
		Kind:            kind,
	})
	metrics.TicketsOpen.Set(float64(m.registry.Len()))
	return err
}

// Claim gives holderID exclusive send access; other staff keep view only.
func (m *Manager) Claim(ctx context.Context, channel Channel, holderID string) error {
	if err := m.assign(ctx, channel, holderID); err != nil {
		return err
	}
	return m.platform.PostLog(ctx, LogEntry{
		Title:       "Ticket Claimed",
		Description: fmt.Sprintf("Claimed by <@%s>", holderID),
	})
}

// Transfer hands the ticket to another staff member without a log entry.
func (m *Manager) Transfer(ctx context.Context, channel Channel, holderID string) error {
	return m.assign(ctx, channel, holderID)
}

func (m *Manager) assign(ctx context.Context, channel Channel, holderID string) error {
	creatorID, _ := m.Participants(channel)
	if err := m.platform.SetAccess(ctx, channel.ID, Access{TargetID: m.staffRoleID, Role: true, View: true}); err != nil {
		m.logger.Warn("ticket staff overwrite failed", zap.String("channel_id", channel.ID), zap.Error(err))
	}
	if err := m.platform.SetAccess(ctx, channel.ID, Access{TargetID: holderID, View: true, Send: true}); err != nil {
		return err
	}
	if err := m.platform.SetTopic(ctx, channel.ID, FormatTopic(creatorID, holderID)); err != nil {
		m.logger.Warn("ticket topic update failed", zap.String("channel_id", channel.ID), zap.Error(err))
	}
	_, err := m.registry.Update(channel.ID, func(record *Record) {
		record.CreatorID = creatorID
		record.ClaimerID = holderID
	})
	return err
}

// Close removes the creator's access and archives the channel in place.
func (m *Manager) Close(ctx context.Context, channel Channel, actorID string) error {
	creatorID, _ := m.Participants(channel)
	history, err := m.platform.History(ctx, channel.ID)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	staff := StaffWhoSpoke(history)

	if creatorID != "" {
		if err := m.platform.SetAccess(ctx, channel.ID, Access{TargetID: creatorID}); err != nil {
			m.logger.Warn("ticket creator overwrite failed", zap.String("channel_id", channel.ID), zap.Error(err))
		}
	}
	if closed := ClosedName(channel.Name); closed != channel.Name {
		if err := m.platform.Rename(ctx, channel.ID, closed); err != nil {
			m.logger.Warn("ticket rename failed", zap.String("channel_id", channel.ID), zap.Error(err))
		}
	}

	entry := LogEntry{
		Title:   "Ticket Closed (user removed)",
		Content: pings(creatorID, staff),
		Fields: []Field{
			{Name: "Ticket Creator", Value: mentionOr(creatorID, "Unknown")},
			{Name: "Closed By", Value: "<@" + actorID + ">"},
			{Name: "Staff Involved", Value: Mentions(staff)},
		},
		TranscriptName: TranscriptName(channel.Name),
		Transcript:     RenderTranscript(history),
	}
	if err := m.postLog(ctx, entry); err != nil {
		m.logger.Warn("ticket close log failed", zap.String("channel_id", channel.ID), zap.Error(err))
	}

	if _, ok := m.registry.Get(channel.ID); ok {
		closedAt := m.now().UTC()
		_, err := m.registry.Update(channel.ID, func(record *Record) {
			record.Closed = true
			record.ClosedAt = &closedAt
		})
		return err
	}
	return nil
}

// postLog sends entry, retrying once without the ping content.
func (m *Manager) postLog(ctx context.Context, entry LogEntry) error {
	err := m.platform.PostLog(ctx, entry)
	if err == nil || entry.Content == "" {
		return err
	}
	m.logger.Warn("ticket log failed, retrying without pings", zap.Error(err))
	entry.Content = ""
	return m.platform.PostLog(ctx, entry)
}

// Delete logs one transcript, drops the registry entry, then removes the channel.
// Nothing is removed when the transcript could not be posted.
func (m *Manager) Delete(ctx context.Context, channel Channel, actorID string) error {
	creatorID, _ := m.Participants(channel)
	history, err := m.platform.History(ctx, channel.ID)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	staff := StaffWhoSpoke(history)

	entry := LogEntry{
		Title:       "Ticket Deleted",
		Description: fmt.Sprintf("Deleted by <@%s>", actorID),
		Content:     pings(creatorID, staff),
		Fields: []Field{
			{Name: "User", Value: mentionOr(creatorID, "Unknown (topic missing)")},
			{Name: "Staff Involved", Value: Mentions(staff)},
		},
		TranscriptName: TranscriptName(channel.Name),
		Transcript:     RenderTranscript(history),
	}
	if err := m.postLog(ctx, entry); err != nil {
		m.logger.Error("ticket delete log failed", zap.String("channel_id", channel.ID), zap.Error(err))
		return fmt.Errorf("post transcript: %w", err)
	}

	if _, err := m.registry.Remove(channel.ID); err != nil {
		return err
	}
	metrics.TicketsOpen.Set(float64(m.registry.Len()))
	return m.platform.DeleteChannel(ctx, channel.ID)
}

func pings(creatorID string, staff []string) string {
	content := ""
	if creatorID != "" {
		content = "<@" + creatorID + "> "
	}
	for i, id := range staff {
		if i > 0 {
			content += " "
		}
		content += "<@" + id + ">"
	}
	return content
}

func mentionOr(id, fallback string) string {
	if id == "" {
		return fallback
	}
	return "<@" + id + ">"
}
