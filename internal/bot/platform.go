package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gsbot/internal/absence"
	"gsbot/internal/automod"
	"gsbot/internal/games"
	"gsbot/internal/moderation"
	"gsbot/internal/tickets"
	"gsbot/internal/utils"
	"gsbot/internal/web"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var errDMDisabled = errors.New("direct messages are disabled")

const (
	footerModeration = "🔥 Game Services Moderation System"
	emojiRight       = "<:GsRight:1414593140156792893>"
	emojiWrong       = "<:GsWrong:1414561861352816753>"
	joinEmoji        = "✅"
	historyPageSize  = 100
)

func (b *Bot) Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error {
	return b.session.GuildMemberTimeout(guildID, userID, until)
}

func (b *Bot) Kick(ctx context.Context, guildID, userID, reason string) error {
	return b.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (b *Bot) Ban(ctx context.Context, guildID, userID, reason string) error {
	return b.session.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

var noticeTitles = map[moderation.Action][2]string{
	moderation.ActionWarn:     {"⚠️ You Have Been Warned", "You have been warned in the server"},
	moderation.ActionMute:     {"🔇 You Have Been Muted", "You have been muted from the server"},
	moderation.ActionKick:     {"👢 You Have Been Kicked", "You have been kicked from the server"},
	moderation.ActionBan:      {"🔨 You Have Been Banned", "You have been banned from the server"},
	moderation.ActionMuteWarn: {"⚠️🔇 You Have Been Warned + Muted", "You have been warned and muted from the server"},
}

// Notify sends the moderation notice to the target by direct message.
func (b *Bot) Notify(ctx context.Context, userID string, notice moderation.Notice) error {
	text := noticeTitles[notice.Action]
	embed := b.brandEmbed(text[0], text[1], field("🏠 Server", notice.GuildName, true))
	if notice.Minutes > 0 {
		embed.Fields = append(embed.Fields, field("⏱️ Duration", moderation.FormatDuration(notice.Minutes), true))
	}
	embed.Fields = append(embed.Fields, field("📋 Reason", notice.Reason, false))
	if notice.AppealURL != "" {
		embed.Fields = append(embed.Fields, field("🚨 Appeal Process",
			"If you believe this action was taken in error, you may appeal this decision in our appeals server:\n🔗 "+notice.AppealURL, false))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
	return b.dm(userID, embed)
}

func (b *Bot) dm(userID string, embed *discordgo.MessageEmbed) error {
	if !b.cfg.Notifications.DMEnabled {
		return errDMDisabled
	}
	channel, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = b.session.ChannelMessageSendEmbed(channel.ID, embed)
	return err
}

func (b *Bot) guildName(guildID string) string {
	if guild := b.guild(guildID); guild != nil {
		return guild.Name
	}
	return "the server"
}

func (b *Bot) channelGuild(channelID string) string {
	channel, err := b.session.State.Channel(channelID)
	if err != nil || channel == nil {
		channel, err = b.session.Channel(channelID)
		if err != nil || channel == nil {
			return ""
		}
	}
	return channel.GuildID
}

// ticketPlatform drives ticket channels through the bot session.
type ticketPlatform struct{ b *Bot }

// History pages backwards through the channel and returns it oldest-first.
func (p ticketPlatform) History(ctx context.Context, channelID string) ([]tickets.Message, error) {
	guildID := p.b.channelGuild(channelID)
	limit := p.b.cfg.Tickets.TranscriptLimit
	staff := map[string]bool{}

	var raw []*discordgo.Message
	before := ""
	for limit <= 0 || len(raw) < limit {
		if err := p.b.history.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := p.b.session.ChannelMessages(channelID, historyPageSize, before, "", "")
		if err != nil {
			return nil, err
		}
		raw = append(raw, page...)
		if len(page) < historyPageSize {
			break
		}
		before = page[len(page)-1].ID
	}
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}

	out := make([]tickets.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		msg := raw[i]
		if msg.Author == nil {
			continue
		}
		isStaff, known := staff[msg.Author.ID]
		if !known && !msg.Author.Bot {
			isStaff = p.b.isStaff(p.b.memberForUser(guildID, msg.Author.ID))
			staff[msg.Author.ID] = isStaff
		}
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			attachments = append(attachments, att.URL)
		}
		out = append(out, tickets.Message{
			AuthorID:    msg.Author.ID,
			AuthorName:  userTag(msg.Author),
			Bot:         msg.Author.Bot,
			Staff:       isStaff,
			Content:     msg.Content,
			Attachments: attachments,
			CreatedAt:   msg.Timestamp,
		})
	}
	return out, nil
}

func (p ticketPlatform) SetAccess(ctx context.Context, channelID string, access tickets.Access) error {
	var allow, deny int64
	if access.View {
		allow |= discordgo.PermissionViewChannel
	} else {
		deny |= discordgo.PermissionViewChannel
	}
	if access.Send {
		allow |= discordgo.PermissionSendMessages
	} else {
		deny |= discordgo.PermissionSendMessages
	}
	kind := discordgo.PermissionOverwriteTypeMember
	if access.Role {
		kind = discordgo.PermissionOverwriteTypeRole
	}
	return p.b.session.ChannelPermissionSet(channelID, access.TargetID, kind, allow, deny)
}

func (p ticketPlatform) Rename(ctx context.Context, channelID, name string) error {
	_, err := p.b.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name})
	return err
}

func (p ticketPlatform) SetTopic(ctx context.Context, channelID, topic string) error {
	_, err := p.b.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Topic: topic})
	return err
}

func (p ticketPlatform) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := p.b.session.ChannelDelete(channelID)
	return err
}

func (p ticketPlatform) PostLog(ctx context.Context, entry tickets.LogEntry) error {
	if p.b.cfg.Channels.TicketLog == "" {
		return nil
	}
	fields := make([]*discordgo.MessageEmbedField, 0, len(entry.Fields))
	for _, f := range entry.Fields {
		fields = append(fields, field(f.Name, f.Value, false))
	}
	msg := &discordgo.MessageSend{
		Content: entry.Content,
		Embeds:  []*discordgo.MessageEmbed{p.b.brandEmbed(entry.Title, entry.Description, fields...)},
	}
	if entry.TranscriptName != "" {
		msg.Files = []*discordgo.File{{
			Name:        entry.TranscriptName,
			ContentType: "text/plain",
			Reader:      strings.NewReader(entry.Transcript),
		}}
	}
	_, err := p.b.session.ChannelMessageSendComplex(p.b.cfg.Channels.TicketLog, msg)
	return err
}

// automodPlatform reports filter hits to staff and the offender.
type automodPlatform struct{ b *Bot }

func (p automodPlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.b.session.ChannelMessageDelete(channelID, messageID)
}

func (p automodPlatform) Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error {
	return p.b.Timeout(ctx, guildID, userID, until, reason)
}

func (p automodPlatform) Report(ctx context.Context, v automod.Violation) error {
	if p.b.cfg.Channels.AutomodReport == "" {
		return nil
	}
	content, cut := utils.TruncateRunes(v.Content, 1000)
	if cut {
		content += "..."
	}
	embed := p.b.commandEmbed("🚨 AutoMod Violation", "", p.b.cfg.Notifications.EmbedColors.Error, []*discordgo.MessageEmbedField{
		field("👤 User", fmt.Sprintf("%s (%s)", mention(v.UserID), v.AuthorTag), false),
		field("📍 Channel", "<#"+v.ChannelID+">", true),
		field("🔍 Detected Word", "||"+v.Word+"||", true),
		field("💬 Message", "```"+content+"```", false),
		field("⚙️ Actions Taken", strings.Join(v.ActionsTaken(), "\n"), false),
	})
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "User ID: " + v.UserID}
	_, err := p.b.session.ChannelMessageSendComplex(p.b.cfg.Channels.AutomodReport, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: buttons(
			discordgo.Button{Label: "Ban User", Style: discordgo.DangerButton, CustomID: automodBanPrefix + v.UserID},
			discordgo.Button{Label: "Dismiss", Style: discordgo.SecondaryButton, CustomID: automodDismissPrefix + v.UserID},
		),
	})
	return err
}

func (p automodPlatform) Notify(ctx context.Context, v automod.Violation) error {
	embed := p.b.commandEmbed("⚠️ AutoMod Warning",
		"Your message in **"+p.b.guildName(v.GuildID)+"** contained a banned word and was removed.",
		p.b.cfg.Notifications.EmbedColors.Error,
		[]*discordgo.MessageEmbedField{field("Actions Taken", strings.Join(v.ActionsTaken(), "\n"), false)})
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
	return p.b.dm(v.UserID, embed)
}

// absenceRoles grants and revokes the absence role.
type absenceRoles struct{ b *Bot }

func (r absenceRoles) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return r.b.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (r absenceRoles) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return r.b.session.GuildMemberRoleRemove(guildID, userID, roleID)
}

func (r absenceRoles) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	member, err := r.b.session.GuildMember(guildID, userID)
	if err != nil {
		return false, err
	}
	return hasRole(member, roleID), nil
}

func (r absenceRoles) Ended(ctx context.Context, entry absence.Entry) error {
	_, err := r.b.session.ChannelMessageSend(entry.ChannelID, emojiRight+"  "+mention(entry.UserID)+"'s absence has ended.")
	return err
}

// gameTable presents a game session in its channel.
type gameTable struct{ b *Bot }

func (t gameTable) send(channelID string, embed *discordgo.MessageEmbed) *discordgo.Message {
	msg, err := t.b.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		t.b.logger.Debug("game message failed", zap.String("channel_id", channelID), zap.Error(err))
	}
	return msg
}

func (t gameTable) JoinPrompt(ctx context.Context, s *games.Session) (string, error) {
	rules := s.Rules
	embed := t.b.brandEmbed(rules.Title,
		fmt.Sprintf("React with %s to join!\nThe game starts in **%d seconds**.\n\n**Rounds:** %d\n**Time per round:** %d seconds",
			joinEmoji, int(rules.JoinWindow.Seconds()), rules.Rounds, int(rules.RoundTimeout.Seconds())))
	msg, err := t.b.session.ChannelMessageSendEmbed(s.ChannelID, embed)
	if err != nil {
		return "", err
	}
	if err := t.b.session.MessageReactionAdd(s.ChannelID, msg.ID, joinEmoji); err != nil {
		t.b.logger.Debug("join reaction failed", zap.Error(err))
	}
	return msg.ID, nil
}

func (t gameTable) Joined(ctx context.Context, s *games.Session, messageID string) ([]string, error) {
	users, err := t.b.session.MessageReactions(s.ChannelID, messageID, joinEmoji, 100, "", "")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, user := range users {
		if user.Bot {
			continue
		}
		ids = append(ids, user.ID)
	}
	if len(ids) > 0 {
		mentions := make([]string, len(ids))
		for i, id := range ids {
			mentions[i] = mention(id)
		}
		t.send(s.ChannelID, t.b.brandEmbed("👥 Players", strings.Join(mentions, " ")))
	}
	return ids, nil
}

func (t gameTable) NoPlayers(ctx context.Context, s *games.Session) {
	t.send(s.ChannelID, t.b.errorEmbed("No one joined the game. Game cancelled."))
}

func (t gameTable) RoundStart(ctx context.Context, s *games.Session, round int, q games.Question) {
	desc := q.Prompt
	if q.Hint != "" {
		desc += "\n\n**Hint:** " + q.Hint
	}
	embed := t.b.brandEmbed(fmt.Sprintf("%s: Round %d/%d", s.Rules.Title, round, s.Rules.Rounds), desc)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("You have %d seconds!", int(s.Rules.RoundTimeout.Seconds()))}
	t.send(s.ChannelID, embed)
}

func (t gameTable) RoundEnd(ctx context.Context, s *games.Session, result games.RoundResult) {
	var desc string
	switch {
	case s.Rules.Kind == games.KindGroupWordBomb:
		desc = fmt.Sprintf("⏰ Time's up! **%d** valid word(s) found for **%s**.", s.UsedWords(), strings.ToUpper(result.Question.Sequence))
	case len(result.Winners) == 0:
		desc = fmt.Sprintf("⏰ Time's up! The answer was **%s**.", result.Question.Answer)
	default:
		mentions := make([]string, len(result.Winners))
		for i, id := range result.Winners {
			mentions[i] = mention(id)
		}
		desc = fmt.Sprintf("%s The answer was **%s**.\nCorrect: %s", emojiRight, result.Question.Answer, strings.Join(mentions, ", "))
	}
	t.send(s.ChannelID, t.b.commandEmbed("", desc, t.b.cfg.Notifications.EmbedColors.Neutral, nil))
}

func (t gameTable) GameOver(ctx context.Context, s *games.Session, standings []games.Standing) {
	desc := "No one scored any " + s.Rules.Unit + "."
	if len(standings) > 0 {
		desc = games.Leaderboard(standings, s.Rules.Rounds)
	}
	embed := t.b.brandEmbed("🏆 "+s.Rules.Title+": Final Results", desc)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "🔥 Game Services"}
	t.send(s.ChannelID, embed)
}

// PetNotifier posts admin pet changes to the notify channel through the session.
func (b *Bot) PetNotifier() web.Notifier {
	return petNotifier{b}
}

type petNotifier struct{ b *Bot }

func (n petNotifier) NotifyPet(ctx context.Context, event web.PetEvent) error {
	channelID := n.b.cfg.Channels.PetNotify
	if channelID == "" {
		return nil
	}
	lines := event.Lines()
	if len(lines) == 0 {
		return nil
	}
	embed := n.b.brandEmbed("🐾 Pet Database Update", strings.Join(lines, "\n"))
	if event.Record.ImageURL != "" && event.Action != web.PetDeleted {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: event.Record.ImageURL}
	}
	_, err := n.b.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
