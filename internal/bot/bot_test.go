package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gsbot/internal/config"
	"gsbot/internal/moderation"
	"gsbot/internal/pets"
	"gsbot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func testBot(t *testing.T) *Bot {
	t.Helper()
	store := pets.NewStore(filepath.Join(t.TempDir(), "pets.json"))
	for _, name := range []string{"Mimic Octopus", "Raccoon", "Red Fox"} {
		if _, _, err := store.Create(pets.Record{Name: name, Value: "100"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	return &Bot{cfg: config.DefaultConfig(), pets: store}
}

func TestParseUserID(t *testing.T) {
	cases := map[string]struct {
		id string
		ok bool
	}{
		"<@123456789012345678>":  {"123456789012345678", true},
		"<@!123456789012345678>": {"123456789012345678", true},
		"123456789012345678":     {"123456789012345678", true},
		"@someone":               {"", false},
		"12345":                  {"", false},
		"":                       {"", false},
	}
	for input, want := range cases {
		id, ok := parseUserID(input)
		if id != want.id || ok != want.ok {
			t.Fatalf("parseUserID(%q) = %q, %t; want %q, %t", input, id, ok, want.id, want.ok)
		}
	}
}

func TestParseCommand(t *testing.T) {
	prefixes := []string{"gs.", "gs "}

	name, args, ok := parseCommand("GS.Warn <@123456789012345678> spamming links", prefixes)
	if !ok || name != "warn" {
		t.Fatalf("expected warn, got %q ok=%t", name, ok)
	}
	if len(args) != 3 || args[1] != "spamming" {
		t.Fatalf("unexpected args %v", args)
	}

	if name, _, ok := parseCommand("gs petvalue raccoon", prefixes); !ok || name != "petvalue" {
		t.Fatalf("space prefix not accepted: %q %t", name, ok)
	}
	if _, _, ok := parseCommand("gs.", prefixes); ok {
		t.Fatalf("bare prefix should not parse")
	}
	if _, _, ok := parseCommand("hello gs.warn", prefixes); ok {
		t.Fatalf("prefix must lead the message")
	}
}

func TestBuildCommandsResolvesAliases(t *testing.T) {
	b := testBot(t)
	commands := b.buildCommands()
	for alias, name := range map[string]string{
		"w":              "warn",
		"timeout":        "mute",
		"rw":             "removewarn",
		"v":              "petvalue",
		"gbomb":          "groupwordbomb",
		"cquiz":          "countryquiz",
		"msgleaderboard": "msgtop",
		"reminv":         "removeinvite",
		"commands":       "help",
	} {
		cmd := commands[alias]
		if cmd == nil || cmd.name != name {
			t.Fatalf("alias %q should resolve to %q", alias, name)
		}
	}
}

func TestMemberPermissionsAndRank(t *testing.T) {
	guild := &discordgo.Guild{
		ID:      "g",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "g", Permissions: discordgo.PermissionSendMessages, Position: 0},
			{ID: "mod", Permissions: discordgo.PermissionKickMembers, Position: 5},
			{ID: "admin", Permissions: discordgo.PermissionAdministrator, Position: 9},
		},
	}

	mod := &discordgo.Member{User: &discordgo.User{ID: "m"}, Roles: []string{"mod"}}
	perms := memberPermissions(guild, mod)
	if perms&discordgo.PermissionKickMembers == 0 || perms&discordgo.PermissionSendMessages == 0 {
		t.Fatalf("expected everyone and mod permissions, got %b", perms)
	}
	if perms&discordgo.PermissionBanMembers != 0 {
		t.Fatalf("mod should not be able to ban")
	}
	if rank := memberRank(guild, mod); rank != 5 {
		t.Fatalf("expected rank 5, got %d", rank)
	}

	admin := &discordgo.Member{User: &discordgo.User{ID: "a"}, Roles: []string{"mod", "admin"}}
	if memberPermissions(guild, admin) != discordgo.PermissionAll {
		t.Fatalf("administrator should resolve to all permissions")
	}
	if rank := memberRank(guild, admin); rank != 9 {
		t.Fatalf("expected highest role position, got %d", rank)
	}

	owner := memberView(guild, &discordgo.Member{User: &discordgo.User{ID: "owner"}}, "owner")
	if !owner.IsOwner || owner.Permissions != discordgo.PermissionAll {
		t.Fatalf("owner view wrong: %+v", owner)
	}
}

func TestMessageImagesOrder(t *testing.T) {
	msg := &discordgo.Message{
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn/a.png", ContentType: "image/png"},
			{URL: "https://cdn/notes.txt", ContentType: "text/plain"},
		},
		Embeds: []*discordgo.MessageEmbed{{
			Image:     &discordgo.MessageEmbedImage{URL: "https://cdn/b.png"},
			Thumbnail: &discordgo.MessageEmbedThumbnail{URL: "https://cdn/c.png"},
		}},
	}
	got := messageImages(msg)
	want := []string{"https://cdn/a.png", "https://cdn/b.png", "https://cdn/c.png"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestKindTitle(t *testing.T) {
	if got := kindTitle("buying"); got != "Buying Ticket" {
		t.Fatalf("got %q", got)
	}
	if got := kindTitle(""); got != "Ticket" {
		t.Fatalf("got %q", got)
	}
}

func TestActionTitles(t *testing.T) {
	if got := actionTitle(moderation.ActionMute, 60); got != "🔇 User Muted for 1 hour" {
		t.Fatalf("got %q", got)
	}
	if got := actionTitle(moderation.ActionBan, 0); got != "🔨 User Banned (Permanent)" {
		t.Fatalf("got %q", got)
	}
	if hasDuration(moderation.ActionKick) || !hasDuration(moderation.ActionMuteWarn) {
		t.Fatalf("duration applicability wrong")
	}
}

func TestFormatHistoryEntry(t *testing.T) {
	minutes := 90
	line := formatHistoryEntry(storage.ModerationAction{
		ID:              7,
		ModeratorID:     "42",
		ActionType:      storage.ActionMute,
		Reason:          "spam",
		DurationMinutes: &minutes,
		CreatedAt:       time.Date(2025, 3, 4, 5, 6, 0, 0, time.UTC),
		IsActive:        true,
	})
	for _, part := range []string{"**#7** Mute - 03/04/2025 05:06", "By: <@42> | 🟢 Active", "1 hour 30 minutes", "Reason: spam"} {
		if !strings.Contains(line, part) {
			t.Fatalf("missing %q in %q", part, line)
		}
	}
}

func TestHistorySummary(t *testing.T) {
	active, summary := historySummary([]storage.ModerationAction{
		{ActionType: storage.ActionWarn, IsActive: true},
		{ActionType: storage.ActionWarn},
		{ActionType: storage.ActionMute, IsActive: true},
		{ActionType: storage.ActionBan, IsActive: true},
	})
	if active != 3 {
		t.Fatalf("expected 3 active, got %d", active)
	}
	if summary != "Warnings: **2** | Mutes: **1** | Kicks: **0** | Bans: **1**" {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestEmbedField(t *testing.T) {
	msg := &discordgo.Message{Embeds: []*discordgo.MessageEmbed{{
		Fields: []*discordgo.MessageEmbedField{{Name: "📋 Reason", Value: "alt account"}},
	}}}
	if got := embedField(msg, "📋 Reason"); got != "alt account" {
		t.Fatalf("got %q", got)
	}
	if got := embedField(nil, "📋 Reason"); got != "" {
		t.Fatalf("nil message should yield empty, got %q", got)
	}
}

func TestPetWeightEmbed(t *testing.T) {
	b := testBot(t)

	embed, problem := b.petWeightEmbed(5, 2.5, 10)
	if problem != "" {
		t.Fatalf("unexpected rejection %q", problem)
	}
	if !strings.Contains(embed.Fields[1].Value, "3.35") {
		t.Fatalf("expected 3.35 at age 10, got %q", embed.Fields[1].Value)
	}

	embed, _ = b.petWeightEmbed(95, 9.55, 0)
	if strings.Count(embed.Fields[1].Value, "**Age") != 10 || !strings.Contains(embed.Fields[1].Value, "← **Current**") {
		t.Fatalf("summary should list ten ages with the current one marked: %q", embed.Fields[1].Value)
	}

	for _, tc := range []struct {
		age    int
		weight float64
		target int
		want   string
	}{
		{0, 1, 0, "Pet Age must be between 1 and 100"},
		{5, 0, 0, "Pet Weight must be greater than 0"},
		{5, 1, 101, "Pet Target age must be between 1 and 100"},
	} {
		if _, problem := b.petWeightEmbed(tc.age, tc.weight, tc.target); problem != tc.want {
			t.Fatalf("petWeightEmbed(%d, %v, %d) = %q, want %q", tc.age, tc.weight, tc.target, problem, tc.want)
		}
	}
}

func TestPetValueEmbed(t *testing.T) {
	b := testBot(t)

	embed, ok := b.petValueEmbed("mimic octopus")
	if !ok || embed.Title != "Mimic Octopus" {
		t.Fatalf("exact lookup failed: %+v", embed)
	}
	if !strings.Contains(embed.Footer.Text, "(100% match)") {
		t.Fatalf("exact match footer wrong: %q", embed.Footer.Text)
	}

	embed, ok = b.petValueEmbed("racoon")
	if !ok || embed.Title != "Raccoon" {
		t.Fatalf("fuzzy lookup failed: %+v", embed)
	}
	if !strings.Contains(embed.Footer.Text, "% match)") || strings.Contains(embed.Footer.Text, "(100%") {
		t.Fatalf("fuzzy footer wrong: %q", embed.Footer.Text)
	}

	if _, ok := b.petValueEmbed("zzzz"); ok {
		t.Fatalf("unknown pet should not match")
	}
}

func TestMedal(t *testing.T) {
	if medal(1) != "🥇" || medal(3) != "🥉" || medal(4) != "4." {
		t.Fatalf("medal ranks wrong")
	}
}

func TestOpenGatewayRetriesOnce(t *testing.T) {
	calls := 0
	open := func() error {
		calls++
		if calls == 1 {
			return errors.New("gateway unavailable")
		}
		return nil
	}
	if err := openGateway(context.Background(), open, time.Millisecond, zap.NewNop()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected two attempts, got %d", calls)
	}

	calls = 0
	failing := func() error {
		calls++
		return errors.New("gateway unavailable")
	}
	if err := openGateway(context.Background(), failing, time.Millisecond, zap.NewNop()); err == nil {
		t.Fatalf("expected error after the retry fails")
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	if err := openGateway(ctx, failing, time.Hour, zap.NewNop()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation during the wait, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry after cancellation, got %d attempts", calls)
	}
}
