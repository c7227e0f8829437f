package tickets

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gsbot/internal/utils"
)

const (
	KindBuying  = "buying"
	KindSupport = "support"

	MaxMessageLength = 3000
	closedPrefix     = "closed-"
)

var unsafeName = regexp.MustCompile(`[^0-9a-zA-Z\-_]`)

// Message is one line of channel history as the transcript needs it.
type Message struct {
	AuthorID    string
	AuthorName  string
	Bot         bool
	Staff       bool
	Content     string
	Attachments []string
	CreatedAt   time.Time
}

// RenderTranscript formats history oldest-first, one line per message.
func RenderTranscript(messages []Message) string {
	if len(messages) == 0 {
		return "(no messages)"
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		content, cut := utils.TruncateRunes(msg.Content, MaxMessageLength)
		if cut {
			content += "...[truncated]"
		}
		attachments := ""
		if len(msg.Attachments) > 0 {
			attachments = " [attachments: " + strings.Join(msg.Attachments, ", ") + "]"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s (%s): %s%s",
			msg.CreatedAt.UTC().Format("2006-01-02 15:04:05"), msg.AuthorName, msg.AuthorID, content, attachments))
	}
	return strings.Join(lines, "\n")
}

func TranscriptName(channelName string) string {
	return channelName + "-transcript.txt"
}

// StaffWhoSpoke lists non-bot staff authors in order of first message.
func StaffWhoSpoke(messages []Message) []string {
	seen := make(map[string]bool)
	var out []string
	for _, msg := range messages {
		if msg.Bot || !msg.Staff || seen[msg.AuthorID] {
			continue
		}
		seen[msg.AuthorID] = true
		out = append(out, msg.AuthorID)
	}
	return out
}

func Mentions(ids []string) string {
	if len(ids) == 0 {
		return "No staff replied."
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "<@" + id + ">"
	}
	return strings.Join(parts, ", ")
}

// ParseTopic reads the "creator;claimer" channel topic. Non-numeric parts are ignored.
func ParseTopic(topic string) (creatorID, claimerID string) {
	parts := strings.Split(topic, ";")
	if len(parts) > 0 && isDigits(parts[0]) {
		creatorID = parts[0]
	}
	if len(parts) > 1 && isDigits(parts[1]) {
		claimerID = parts[1]
	}
	return creatorID, claimerID
}

func FormatTopic(creatorID, claimerID string) string {
	return creatorID + ";" + claimerID
}

func ChannelName(kind, username string) string {
	safe := unsafeName.ReplaceAllString(username, "")
	if len(safe) > 32 {
		safe = safe[:32]
	}
	return kind + "-ticket-" + strings.ToLower(safe)
}

func ClosedName(name string) string {
	if strings.HasPrefix(name, closedPrefix) {
		return name
	}
	return closedPrefix + name
}

// IsTicketChannel matches open ticket names, and closed ones when includeClosed is set.
func IsTicketChannel(name string, includeClosed bool) bool {
	for _, kind := range []string{KindBuying, KindSupport} {
		if strings.HasPrefix(name, kind+"-ticket-") {
			return true
		}
		if includeClosed && strings.HasPrefix(name, closedPrefix+kind) {
			return true
		}
	}
	return false
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
