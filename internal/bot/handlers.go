package bot

import (
	"fmt"
	"strings"
	"time"

	"gsbot/internal/invites"
	"gsbot/internal/modules/audit"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) fetchInvites(guildID string) ([]invites.Invite, error) {
	list, err := b.session.GuildInvites(guildID)
	if err != nil {
		return nil, err
	}
	out := make([]invites.Invite, 0, len(list))
	for _, inv := range list {
		item := invites.Invite{Code: inv.Code, Uses: inv.Uses}
		if inv.Inviter != nil {
			item.InviterID = inv.Inviter.ID
		}
		out = append(out, item)
	}
	return out, nil
}

func (b *Bot) refreshInvites(guildID string) {
	current, err := b.fetchInvites(guildID)
	if err != nil {
		b.logger.Warn("invite cache failed", zap.String("guild_id", guildID), zap.Error(err))
		return
	}
	b.invites.Snapshot(guildID, current)
	b.logger.Info("invites cached", zap.String("guild_id", guildID), zap.Int("count", b.invites.Cached(guildID)))
}

func (b *Bot) onInviteCreate(session *discordgo.Session, event *discordgo.InviteCreate) {
	if event.GuildID == "" {
		return
	}
	b.refreshInvites(event.GuildID)
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.Member == nil || event.User == nil || event.User.Bot {
		return
	}
	current, err := b.fetchInvites(event.GuildID)
	if err != nil {
		b.logger.Warn("invite fetch failed", zap.String("guild_id", event.GuildID), zap.Error(err))
		return
	}
	created, err := discordgo.SnowflakeTimestamp(event.User.ID)
	if err != nil {
		created = time.Time{}
	}
	join, ok := b.invites.MemberJoined(event.GuildID, event.User.ID, created, current)
	if !ok {
		b.logger.Info("member joined without attributable invite", zap.String("user_id", event.User.ID))
		return
	}
	b.logger.Info("member joined",
		zap.String("user_id", event.User.ID),
		zap.String("inviter_id", join.InviterID),
		zap.String("code", join.Code),
		zap.Bool("fake", join.Fake),
		zap.Bool("rejoin", join.Rejoin),
	)
	b.audit.Log(b.ctx, audit.LevelInfo, event.GuildID, event.User.ID, "member_join",
		fmt.Sprintf("invited by %s via %s (fake=%t rejoin=%t)", join.InviterID, join.Code, join.Fake, join.Rejoin))
}

// onChannelCreate greets newly created ticket channels.
func (b *Bot) onChannelCreate(session *discordgo.Session, event *discordgo.ChannelCreate) {
	if event.Channel == nil || event.Type != discordgo.ChannelTypeGuildText {
		return
	}
	if !strings.HasPrefix(strings.ToLower(event.Name), "ticket") || b.cfg.Tickets.Greeting == "" {
		return
	}
	if _, err := session.ChannelMessageSend(event.ID, b.cfg.Tickets.Greeting); err != nil {
		b.logger.Debug("ticket greeting failed", zap.String("channel_id", event.ID), zap.Error(err))
	}
}
