package web

import (
	"context"
	"fmt"
	"strings"

	"gsbot/internal/pets"

	"github.com/gtuk/discordwebhook"
)

const (
	PetAdded   = "added"
	PetUpdated = "updated"
	PetDeleted = "deleted"
)

// PetEvent describes one admin change to the pet records.
type PetEvent struct {
	Action  string
	Name    string
	Record  pets.Record
	Changes []pets.Change
}

// Lines renders the event body shared by every notifier.
func (e PetEvent) Lines() []string {
	switch e.Action {
	case PetAdded:
		return []string{
			fmt.Sprintf("➕ New Pet Added: **%s**", e.Name),
			fmt.Sprintf("**Value:** %s", e.Record.Value),
			fmt.Sprintf("**Demand:** %s", e.Record.Demand),
			fmt.Sprintf("**Trend:** %s", e.Record.Trend),
			fmt.Sprintf("**Tier:** %s", e.Record.Tier),
		}
	case PetUpdated:
		lines := []string{fmt.Sprintf("✏️ Pet Updated: **%s**", e.Name)}
		for _, change := range e.Changes {
			lines = append(lines, fmt.Sprintf("**%s:** %s → %s", title(change.Field), change.Old, change.New))
		}
		return lines
	case PetDeleted:
		return []string{
			fmt.Sprintf("🗑️ Pet Deleted: **%s**", e.Name),
			fmt.Sprintf("**Last Value:** %s", e.Record.Value),
		}
	}
	return nil
}

func title(field string) string {
	field = strings.ReplaceAll(field, "_", " ")
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// Notifier announces pet changes. Delivery is best effort.
type Notifier interface {
	NotifyPet(ctx context.Context, event PetEvent) error
}

// WebhookNotifier posts pet changes to a Discord webhook.
type WebhookNotifier struct {
	URL      string
	Username string
}

func (n WebhookNotifier) NotifyPet(ctx context.Context, event PetEvent) error {
	content := "🐾 **Pet Database Update**\n" + strings.Join(event.Lines(), "\n")
	username := n.Username
	if username == "" {
		username = "Pet Values"
	}
	return discordwebhook.SendMessage(n.URL, discordwebhook.Message{
		Username: &username,
		Content:  &content,
	})
}
