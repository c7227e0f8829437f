package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gsbot/internal/absence"
	"gsbot/internal/analytics"
	"gsbot/internal/utils"
	"gsbot/internal/web"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	footerCalc     = "🔥 Game Services • Calculator"
	footerMessages = "🔥 Game Services • Message Tracking System"
	footerInvites  = "🔥 Game Services Invite System"
	guideCooldown  = time.Minute
	leaderboardTop = 10
	clearNotice    = 5 * time.Second
)

var titleCase = cases.Title(language.English)

func (b *Bot) utilityCommands() []*command {
	return []*command{
		{name: "c", aliases: []string{"calc", "calculator"}, usage: "c <expression>", help: "Calculate an expression", run: b.cmdCalc},
		{name: "m", aliases: []string{"messages", "msgs"}, usage: "m [member]", help: "Show message counts", run: b.cmdMessages},
		{name: "msgtop", aliases: []string{"messageleaderboard", "msgleaderboard"}, usage: "msgtop [daily|weekly|monthly]", help: "Top message senders", run: b.cmdMessageTop},
		{name: "chatguide", aliases: []string{"guide"}, help: "Post the chat guide", run: b.cmdChatGuide},
		{name: "messagecounter", aliases: []string{"msgcount"}, help: "Show the chat guide counter", run: b.cmdMessageCounter},
		{name: "modstats", usage: "modstats [days]", help: "Summarize audit events", run: b.cmdModStats},
		{name: "clear", usage: "clear <number>", help: "Bulk delete recent messages", run: b.cmdClear},
		{name: "absence", usage: "absence <member> <duration>", help: "Mark a member absent for a while", run: b.cmdAbsence},
		{name: "invites", aliases: []string{"inv"}, usage: "invites [member]", help: "Show invite statistics", run: b.cmdInvites},
		{name: "addinvite", aliases: []string{"addinv"}, usage: "addinvite <member> [amount]", help: "Add bonus invites", run: b.bonusEditor(true)},
		{name: "removeinvite", aliases: []string{"reminv"}, usage: "removeinvite <member> [amount]", help: "Remove bonus invites", run: b.bonusEditor(false)},
		{name: "invtop", aliases: []string{"inviteleaderboard"}, help: "Top inviters", run: b.cmdInviteTop},
	}
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return strconv.Itoa(rank) + "."
}

func (b *Bot) cmdCalc(ctx context.Context, c *cmdContext) {
	raw := c.rest(0)
	if raw == "" {
		c.usage(c.name)
		return
	}
	expression := utils.NormalizeExpression(raw)
	value, err := utils.Evaluate(raw)
	switch {
	case errors.Is(err, utils.ErrInvalidCharacters):
		c.reply(emojiWrong + "   Invalid characters in expression. Use only numbers and operators (+, -, *, /, x)")
		return
	case errors.Is(err, utils.ErrDivisionByZero):
		embed := b.brandEmbed(emojiWrong+"   Calculation Error", "Cannot divide by zero!", field("📝 Expression", "`"+expression+"`", false))
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerCalc}
		c.replyEmbed(embed)
		return
	case err != nil:
		embed := b.brandEmbed(emojiWrong+"   Calculation Error", "Invalid mathematical expression!",
			field("📝 Expression", "`"+expression+"`", false),
			field("💡 Tip", "Make sure your expression is valid. Example: `"+b.cfg.Prefixes[0]+"c 4+11`", false))
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerCalc}
		c.replyEmbed(embed)
		return
	}

	p := b.cfg.Prefixes[0]
	embed := b.brandEmbed("🧮 Calculator Result", "",
		field("📝 Expression", "`"+expression+"`", false),
		field("🎯 Result", "**"+utils.FormatResult(value)+"**", false),
		field("💡 Usage", fmt.Sprintf("Try: `%sc 4+11`, `%sc 4/11`, `%sc 4x11`, `%sc (5+3)*2`", p, p, p, p), false),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerCalc}
	c.replyEmbed(embed)
}

func timeAgo(since time.Duration) string {
	switch {
	case since >= 24*time.Hour:
		return fmt.Sprintf("%d days ago 📅", int(since.Hours()/24))
	case since > time.Hour:
		return fmt.Sprintf("%d hours ago ⏰", int(since.Hours()))
	case since > time.Minute:
		return fmt.Sprintf("%d minutes ago ⏱️", int(since.Minutes()))
	}
	return "Just now 🕐"
}

func (b *Bot) cmdMessages(ctx context.Context, c *cmdContext) {
	userID, ok := c.targetOrAuthor(0)
	if !ok {
		c.usage(c.name)
		return
	}
	counts := b.counter.Get(c.msg.GuildID, userID)
	embed := b.brandEmbed("📊 Message Statistics", "",
		field("📅 Daily Messages", fmt.Sprintf("**%d** messages 📝", counts.Daily), true),
		field("📄 Weekly Messages", fmt.Sprintf("**%d** messages 📚", counts.Weekly), true),
		field("📚 Monthly Messages", fmt.Sprintf("**%d** messages 📖", counts.Monthly), true),
	)
	if !counts.LastMessage.IsZero() {
		embed.Fields = append(embed.Fields, field("⏰ Last Message", timeAgo(time.Since(counts.LastMessage)), true))
	}
	embed.Fields = append(embed.Fields, field("👤 User", mention(userID)+" 🎯", false))
	if member := b.memberForUser(c.msg.GuildID, userID); member != nil && member.User != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: member.User.AvatarURL("")}
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerMessages}
	c.replyEmbed(embed)
}

func (b *Bot) cmdMessageTop(ctx context.Context, c *cmdContext) {
	period, err := analytics.ParsePeriod(c.arg(0))
	if err != nil {
		c.replyEmbed(b.brandEmbed(emojiWrong+"   Invalid Period", "Please specify: `daily`, `weekly`, or `monthly` 📅"))
		return
	}
	label := titleCase.String(string(period))
	top := b.counter.Top(c.msg.GuildID, period, leaderboardTop)
	if len(top) == 0 {
		c.replyEmbed(b.brandEmbed("📊 "+label+" Message Leaderboard", "No message data available yet. 📊"))
		return
	}

	var rankings strings.Builder
	for i, entry := range top {
		fmt.Fprintf(&rankings, "%s %s: **%d** messages 📝\n", medal(i+1), mention(entry.UserID), entry.Count)
	}
	embed := b.brandEmbed("🏆 "+label+" Message Leaderboard", fmt.Sprintf("Top 10 most active members (%s) 💬", period),
		field("📋 Rankings", rankings.String(), false),
		field("🔄 Refresh", fmt.Sprintf("Use `%smsgtop %s` to update 📊", b.cfg.Prefixes[0], period), false),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerMessages}
	c.replyEmbed(embed)
}

func (b *Bot) cmdChatGuide(ctx context.Context, c *cmdContext) {
	channelID := c.msg.ChannelID
	if channelID != b.cfg.Channels.ChatGuide {
		c.reply(emojiWrong + "   This command only works in <#" + b.cfg.Channels.ChatGuide + ">.")
		return
	}
	if wait := b.guide.Manual(channelID, guideCooldown); wait > 0 {
		c.reply(fmt.Sprintf("⏰ Chat guide message is on cooldown. Try again in %d seconds.", int(wait.Seconds())))
		return
	}
	if _, err := c.session.ChannelMessageSend(channelID, b.cfg.ChatGuide.Message); err != nil {
		b.logger.Warn("chat guide post failed", zap.String("channel_id", channelID), zap.Error(err))
		c.reply(emojiWrong + "   Failed to send chat guide message.")
		return
	}
	b.guide.MarkSent(channelID)
	b.logger.Info("chat guide posted manually", zap.String("channel_id", channelID), zap.String("user_id", c.msg.Author.ID))
}

func (b *Bot) cmdMessageCounter(ctx context.Context, c *cmdContext) {
	if !c.can(discordgo.PermissionManageMessages) {
		c.reply(emojiWrong + "   You need manage messages permission to use this command.")
		return
	}
	status := b.guide.Status(c.msg.ChannelID)
	embed := b.brandEmbed("📊 Chat Guide Message Counter", "",
		field("💬 Messages in Channel", fmt.Sprintf("**%d** total messages", status.Count), false),
		field("⏰ Next Guide Message", fmt.Sprintf("In **%d** messages", status.Remaining), false),
		field("🔄 Interval", fmt.Sprintf("Every **%d** messages", status.Interval), false),
	)
	if !status.LastSent.IsZero() {
		embed.Fields = append(embed.Fields, field("📅 Last Sent", fmt.Sprintf("%d minutes ago", int(time.Since(status.LastSent).Minutes())), false))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "🔥 Game Services • Message Counter System"}
	c.replyEmbed(embed)
}

func (b *Bot) cmdModStats(ctx context.Context, c *cmdContext) {
	if !c.can(discordgo.PermissionKickMembers) {
		c.replyEmbed(b.errorEmbed("You need **Kick Members** to use this command."))
		return
	}
	days := 7
	if c.arg(0) != "" {
		n, err := strconv.Atoi(c.arg(0))
		if err != nil || n < 1 || n > 90 {
			c.usage(c.name)
			return
		}
		days = n
	}
	report, err := b.analytics.Report(ctx, c.msg.GuildID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		b.logger.Warn("audit report failed", zap.Error(err))
		c.replyEmbed(b.errorEmbed("Could not build the report."))
		return
	}

	events := make([]string, 0, len(report.ByEvent))
	for event := range report.ByEvent {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		if report.ByEvent[events[i]] != report.ByEvent[events[j]] {
			return report.ByEvent[events[i]] > report.ByEvent[events[j]]
		}
		return events[i] < events[j]
	})
	if len(events) > leaderboardTop {
		events = events[:leaderboardTop]
	}
	var byEvent strings.Builder
	for _, event := range events {
		fmt.Fprintf(&byEvent, "`%s`: **%d**\n", event, report.ByEvent[event])
	}

	embed := b.brandEmbed("📈 Moderation Stats", fmt.Sprintf("Audit events over the last %d days", days),
		field("📊 Total", strconv.Itoa(report.Total), true),
		field("ℹ️ Info", strconv.Itoa(report.ByLevel["INFO"]), true),
		field("⚠️ Warn", strconv.Itoa(report.ByLevel["WARN"]), true),
		field("🚨 Critical", strconv.Itoa(report.ByLevel["CRIT"]), true),
		field("Top Events", byEvent.String(), false),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
	c.replyEmbed(embed)
}

// sendTransient posts content and removes it after d.
func (c *cmdContext) sendTransient(content string, d time.Duration) {
	msg := c.reply(content)
	if msg == nil {
		return
	}
	time.AfterFunc(d, func() { _ = c.session.ChannelMessageDelete(msg.ChannelID, msg.ID) })
}

func (b *Bot) cmdClear(ctx context.Context, c *cmdContext) {
	if !c.can(discordgo.PermissionManageMessages) {
		c.replyEmbed(b.errorEmbed("You need **Manage Messages** to use this command."))
		return
	}
	amount, err := strconv.Atoi(c.arg(0))
	if err != nil || amount < 1 {
		c.sendTransient("⚠️ Usage: `"+b.cfg.Prefixes[0]+"clear <number>`. The number must be 1 or higher.", clearNotice)
		return
	}
	amount = min(amount, historyPageSize-1)

	recent, err := c.session.ChannelMessages(c.msg.ChannelID, historyPageSize, "", "", "")
	if err != nil {
		c.sendTransient(emojiWrong+"   I don't have permission to delete messages in this channel.", clearNotice)
		return
	}
	ids := make([]string, 0, amount+1)
	deleted := 0
	for _, msg := range recent {
		if len(ids) == amount+1 {
			break
		}
		if msg.Pinned {
			continue
		}
		ids = append(ids, msg.ID)
		if msg.ID != c.msg.ID {
			deleted++
		}
	}

	if len(ids) == 1 {
		err = c.session.ChannelMessageDelete(c.msg.ChannelID, ids[0])
	} else if len(ids) > 1 {
		err = c.session.ChannelMessagesBulkDelete(c.msg.ChannelID, ids)
	}
	if err != nil {
		b.logger.Warn("bulk delete failed", zap.String("channel_id", c.msg.ChannelID), zap.Error(err))
		c.sendTransient(emojiWrong+"   Failed to delete messages. Note: Discord won't bulk-delete messages older than 14 days.", 8*time.Second)
		return
	}
	c.sendTransient(fmt.Sprintf("%s  Deleted %d messages.", emojiRight, deleted), clearNotice)
}

func (b *Bot) cmdAbsence(ctx context.Context, c *cmdContext) {
	if !c.can(discordgo.PermissionAdministrator) {
		c.reply(emojiWrong + "   You need administrator permissions to use this command.")
		return
	}
	target, _, ok := c.target(0)
	if !ok || c.arg(1) == "" {
		c.usage(c.name)
		return
	}
	actor, _ := c.author()
	if target.IsOwner {
		c.reply(emojiWrong + "   You cannot mark the server owner absent.")
		return
	}
	if !actor.IsOwner && target.Rank >= actor.Rank {
		c.reply(emojiWrong + "   You cannot mark this user absent (they have equal or higher role).")
		return
	}
	d, err := absence.ParseDuration(c.arg(1))
	if err != nil {
		c.reply("Invalid time format. Use e.g. `10m`, `2h`, `1d`.")
		return
	}
	if b.cfg.Roles.Absence == "" {
		c.reply("Absence role not found!")
		return
	}

	_, err = b.absence.Mark(b.ctx, absence.Entry{
		GuildID:   c.msg.GuildID,
		UserID:    target.ID,
		RoleID:    b.cfg.Roles.Absence,
		ChannelID: c.msg.ChannelID,
	}, d)
	if err != nil {
		c.reply("Failed to add absence role: " + err.Error())
		return
	}
	c.reply("📌 " + mention(target.ID) + " is now marked absent for **" + c.arg(1) + "**. The role will be removed automatically.")
}

func (b *Bot) cmdInvites(ctx context.Context, c *cmdContext) {
	userID, ok := c.targetOrAuthor(0)
	if !ok {
		c.usage(c.name)
		return
	}
	stats := b.invites.Stats(c.msg.GuildID, userID)
	embed := b.brandEmbed("📊 Invite Statistics", "Invite data for "+mention(userID),
		field(emojiRight+"  Valid Invites", strconv.Itoa(stats.Invites), true),
		field("🚫 Fake Invites", strconv.Itoa(stats.Fake), true),
		field("🔄 Rejoins", strconv.Itoa(stats.Rejoins), true),
		field("🎁 Bonus Invites", strconv.Itoa(stats.Bonus), true),
		field("📈 Total Score", strconv.Itoa(stats.Total()), true),
	)
	if member := b.memberForUser(c.msg.GuildID, userID); member != nil && member.User != nil {
		embed.Fields = append(embed.Fields, field("👤 User", fmt.Sprintf("%s (%s)", userTag(member.User), userID), false))
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: member.User.AvatarURL("")}
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerInvites}
	c.replyEmbed(embed)
}

// bonusEditor adds or removes bonus invites.
func (b *Bot) bonusEditor(add bool) func(context.Context, *cmdContext) {
	return func(ctx context.Context, c *cmdContext) {
		if !c.can(discordgo.PermissionKickMembers) {
			c.reply(emojiWrong + "   You don't have permission to manage invites.")
			return
		}
		userID, ok := parseUserID(c.arg(0))
		if !ok {
			c.usage(c.name)
			return
		}
		amount := 1
		if c.arg(1) != "" {
			n, err := strconv.Atoi(c.arg(1))
			if err != nil || n < 1 {
				c.usage(c.name)
				return
			}
			amount = n
		}

		var embed *discordgo.MessageEmbed
		if add {
			total := b.invites.AddBonus(c.msg.GuildID, userID, amount)
			embed = b.brandEmbed(emojiRight+"  Bonus Invites Added", "",
				field("👤 User", mention(userID), true),
				field("🎁 Added", fmt.Sprintf("+%d bonus invites", amount), true),
				field("👮 Moderator", mention(c.msg.Author.ID), true),
				field("📊 New Bonus Total", strconv.Itoa(total), false))
		} else {
			total := b.invites.RemoveBonus(c.msg.GuildID, userID, amount)
			embed = b.brandEmbed("➖ Bonus Invites Removed", "",
				field("👤 User", mention(userID), true),
				field("🔻 Removed", fmt.Sprintf("-%d bonus invites", amount), true),
				field("👮 Moderator", mention(c.msg.Author.ID), true),
				field("📊 New Bonus Total", strconv.Itoa(total), false))
		}
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerInvites}
		c.replyEmbed(embed)
	}
}

func (b *Bot) cmdInviteTop(ctx context.Context, c *cmdContext) {
	top := b.invites.Top(c.msg.GuildID, leaderboardTop)
	if len(top) == 0 {
		c.replyEmbed(b.brandEmbed("📊 Invite Leaderboard", "No invite data available yet."))
		return
	}
	embed := b.brandEmbed("🏆 Invite Leaderboard", "Top 10 inviters in the server")
	for i, entry := range top {
		name := "User " + entry.UserID
		if member := b.memberForUser(c.msg.GuildID, entry.UserID); member != nil {
			name = displayName(member, member.User)
		}
		s := entry.Stats
		embed.Fields = append(embed.Fields, field(medal(i+1)+" "+name,
			fmt.Sprintf("**%d** total invites\n%s  %d • 🚫 %d • 🔄 %d • 🎁 %d", s.Total(), emojiRight, s.Invites, s.Fake, s.Rejoins, s.Bonus), false))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerInvites}
	c.replyEmbed(embed)
}

// statusEmbed backs the status slash command.
func (b *Bot) statusEmbed() *discordgo.MessageEmbed {
	uptime := time.Since(b.started).Truncate(time.Second)
	state := "🟢 Online"
	if !b.Connected() {
		state = "🔴 Reconnecting"
	}
	embed := b.brandEmbed("🤖 Bot Status", "",
		field("Status", state, true),
		field("Uptime", uptime.String(), true),
		field("Latency", b.session.HeartbeatLatency().Truncate(time.Millisecond).String(), true),
		field("Pets Tracked", strconv.Itoa(b.pets.Len()), true),
		field("Active Games", strconv.Itoa(b.games.Registry().Len()), true),
		field("Ledger", b.moderation.Backend(), true),
	)
	sys := web.CollectSystem()
	embed.Fields = append(embed.Fields, field("System",
		fmt.Sprintf("CPU %.1f%% of %d cores\nRAM %d/%d MB (%.1f%%)", sys.CPUPercent, sys.CPUCount, sys.MemoryUsedMB, sys.MemoryTotalMB, sys.MemoryPercent), false))
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "🔥 Game Services"}
	return embed
}
