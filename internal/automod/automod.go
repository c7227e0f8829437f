package automod

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gsbot/internal/config"
	"gsbot/internal/metrics"
	"gsbot/internal/moderation"
	"gsbot/internal/modules/audit"
	"gsbot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes compatibility forms, strips combining marks and case-folds,
// so "Ｓｌúｒ" and "slur" compare equal.
func Fold(input string) string {
	chain := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)
	folded, _, err := transform.String(chain, input)
	if err != nil {
		folded = input
	}
	return cases.Fold().String(folded)
}

type Filter struct {
	words  []string
	folded []string
}

func NewFilter(words []string) *Filter {
	f := &Filter{}
	for _, word := range words {
		folded := Fold(strings.TrimSpace(word))
		if folded == "" {
			continue
		}
		f.words = append(f.words, word)
		f.folded = append(f.folded, folded)
	}
	return f
}

// Match returns the first banned word contained in content.
func (f *Filter) Match(content string) (string, bool) {
	text := Fold(content)
	for i, word := range f.folded {
		if strings.Contains(text, word) {
			return f.words[i], true
		}
	}
	return "", false
}

func (f *Filter) Len() int {
	return len(f.words)
}

// Exempt reports whether the author may bypass the filter.
func Exempt(permissions int64) bool {
	return permissions&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) != 0
}

type Message struct {
	GuildID   string
	ChannelID string
	ID        string
	Content   string
	AuthorTag string
}

// Violation records what the filter did about one message.
type Violation struct {
	Message
	UserID   string
	Word     string
	Minutes  int
	Deleted  bool
	TimedOut bool
	Logged   bool
}

func (v Violation) ActionsTaken() []string {
	var actions []string
	if v.Logged {
		actions = append(actions, "• Warned user")
	}
	if v.TimedOut {
		actions = append(actions, fmt.Sprintf("• Muted for %d minutes", v.Minutes))
	}
	if v.Deleted {
		actions = append(actions, "• Message deleted")
	}
	if len(actions) == 0 {
		actions = append(actions, "• No actions taken (permission errors)")
	}
	return actions
}

// Platform carries out the side effects of a hit.
type Platform interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error
	Report(ctx context.Context, v Violation) error
	Notify(ctx context.Context, v Violation) error
}

type Module struct {
	filter   *Filter
	platform Platform
	ledger   storage.Ledger
	audit    *audit.Logger
	logger   *zap.Logger
	minutes  int
	enabled  bool
	now      func() time.Time
}

func New(cfg config.AutomodConfig, platform Platform, ledger storage.Ledger, auditLogger *audit.Logger, logger *zap.Logger) *Module {
	minutes := cfg.TimeoutMinutes
	if minutes <= 0 {
		minutes = moderation.DefaultMinutes
	}
	return &Module{
		filter:   NewFilter(cfg.BannedWords),
		platform: platform,
		ledger:   ledger,
		audit:    auditLogger,
		logger:   logger,
		minutes:  minutes,
		enabled:  cfg.Enabled,
		now:      time.Now,
	}
}

// HandleMessage enforces the filter. A true result means the message was
// handled and must not be processed further.
func (m *Module) HandleMessage(ctx context.Context, msg Message, author, bot moderation.Member) (Violation, bool) {
	if !m.enabled || msg.Content == "" || Exempt(author.Permissions) {
		return Violation{}, false
	}
	word, hit := m.filter.Match(msg.Content)
	if !hit {
		return Violation{}, false
	}
	metrics.AutomodHits.Inc()

	v := Violation{Message: msg, UserID: author.ID, Word: word, Minutes: m.minutes}
	reason := fmt.Sprintf("Automod: Used banned word '%s'", word)

	if err := m.platform.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		m.logger.Warn("automod delete failed", zap.String("user_id", author.ID), zap.Error(err))
	} else {
		v.Deleted = true
	}

	if moderation.HasPermission(bot.Permissions, discordgo.PermissionModerateMembers) && !author.IsOwner && author.Rank < bot.Rank {
		until := m.now().Add(time.Duration(m.minutes) * time.Minute)
		if err := m.platform.Timeout(ctx, msg.GuildID, author.ID, &until, reason); err != nil {
			m.logger.Warn("automod timeout failed", zap.String("user_id", author.ID), zap.Error(err))
		} else {
			v.TimedOut = true
		}
	} else {
		m.logger.Warn("automod cannot timeout member", zap.String("user_id", author.ID))
	}

	v.Logged = m.record(ctx, msg.GuildID, author.ID, bot.ID, reason, v.TimedOut)

	if err := m.platform.Report(ctx, v); err != nil {
		m.logger.Warn("automod report failed", zap.Error(err))
	}
	if v.TimedOut || v.Logged {
		if err := m.platform.Notify(ctx, v); err != nil {
			m.logger.Debug("automod dm failed", zap.String("user_id", author.ID), zap.Error(err))
		}
	}
	m.audit.Log(ctx, audit.LevelWarn, msg.GuildID, author.ID, "automod", reason)
	return v, true
}

func (m *Module) record(ctx context.Context, guildID, userID, botID, reason string, timedOut bool) bool {
	now := m.now()
	if _, err := m.ledger.AddAction(ctx, storage.NewAction(storage.ActionWarn, guildID, userID, botID, reason, nil, now)); err != nil {
		m.logger.Error("automod ledger write failed", zap.Error(err))
		return false
	}
	if timedOut {
		minutes := m.minutes
		if _, err := m.ledger.AddAction(ctx, storage.NewAction(storage.ActionMute, guildID, userID, botID, reason, &minutes, now)); err != nil {
			m.logger.Error("automod ledger write failed", zap.Error(err))
			return false
		}
	}
	return true
}
