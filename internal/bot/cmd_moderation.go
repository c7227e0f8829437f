package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gsbot/internal/moderation"
	"gsbot/internal/modules/audit"
	"gsbot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	reportSubmitPrefix  = "report:submit:"
	reportCancelPrefix  = "report:cancel:"
	reportApprovePrefix = "report:approve:"
	reportDenyPrefix    = "report:deny:"
	reportActPrefix     = "report:act:"

	defaultReason   = "No reason provided"
	historyListSize = 10
)

var confirmTitles = map[moderation.Action]string{
	moderation.ActionWarn:     "⚠️ Confirm Warning",
	moderation.ActionMute:     "🔇 Confirm Mute",
	moderation.ActionKick:     "👢 Confirm Kick",
	moderation.ActionBan:      "🔨 Confirm Ban",
	moderation.ActionMuteWarn: "⚠️🔇 Confirm Warn + Mute",
}

var historyLabels = map[storage.ActionType]string{
	storage.ActionWarn: "Warning",
	storage.ActionMute: "Mute",
	storage.ActionKick: "Kick",
	storage.ActionBan:  "Ban",
}

func (b *Bot) moderationCommands() []*command {
	return []*command{
		{name: "warn", aliases: []string{"w"}, usage: "warn <member> [reason]", help: "Warn a member",
			run: b.proposer(moderation.ActionWarn, "")},
		{name: "mute", aliases: []string{"timeout"}, usage: "mute <member> [duration] [reason]", help: "Time out a member (default 1h)",
			run: b.proposer(moderation.ActionMute, "1h")},
		{name: "kick", aliases: []string{"k"}, usage: "kick <member> [reason]", help: "Kick a member",
			run: b.proposer(moderation.ActionKick, "")},
		{name: "ban", aliases: []string{"b"}, usage: "ban <member> [duration|permanent] [reason]", help: "Ban a member",
			run: b.proposer(moderation.ActionBan, "permanent")},
		{name: "mutewarn", aliases: []string{"mw"}, usage: "mutewarn <member> [duration] [reason]", help: "Warn and time out a member",
			run: b.proposer(moderation.ActionMuteWarn, "1h")},
		{name: "unmute", aliases: []string{"um"}, usage: "unmute <member> [reason]", help: "Lift a member's timeout", run: b.cmdUnmute},
		{name: "removewarn", aliases: []string{"unwarn", "rw"}, usage: "removewarn <action id> [reason]", help: "Deactivate a moderation record", run: b.cmdRemoveAction},
		{name: "warns", aliases: []string{"warnlist"}, usage: "warns [member]", help: "List warnings", run: b.historyLister(storage.ActionWarn)},
		{name: "mutes", aliases: []string{"mutelist"}, usage: "mutes [member]", help: "List mutes", run: b.historyLister(storage.ActionMute)},
		{name: "bans", aliases: []string{"ba"}, usage: "bans [member]", help: "List bans", run: b.historyLister(storage.ActionBan)},
		{name: "kicks", usage: "kicks [member]", help: "List kicks", run: b.historyLister(storage.ActionKick)},
		{name: "history", usage: "history [member]", help: "Summarize a member's record", run: b.cmdHistory},
		{name: "report", usage: "report <member> <reason>", help: "Report a member to staff", run: b.cmdReport},
	}
}

func hasDuration(action moderation.Action) bool {
	return action == moderation.ActionMute || action == moderation.ActionMuteWarn || action == moderation.ActionBan
}

func durationLabel(minutes int) string {
	if minutes <= 0 {
		return "Permanent"
	}
	return moderation.FormatDuration(minutes)
}

func actionTitle(action moderation.Action, minutes int) string {
	switch action {
	case moderation.ActionWarn:
		return "⚠️ Warning Issued"
	case moderation.ActionMute:
		return "🔇 User Muted for " + durationLabel(minutes)
	case moderation.ActionKick:
		return "👢 User Kicked"
	case moderation.ActionBan:
		return "🔨 User Banned (" + durationLabel(minutes) + ")"
	case moderation.ActionMuteWarn:
		return "⚠️🔇 User Warned + Muted for " + durationLabel(minutes)
	}
	return string(action)
}

// proposer builds the command that posts a confirmation for action.
func (b *Bot) proposer(action moderation.Action, defaultDuration string) func(context.Context, *cmdContext) {
	return func(ctx context.Context, c *cmdContext) {
		actor, _ := c.author()
		if !moderation.HasPermission(actor.Permissions, moderation.ActorPermission(action)) {
			c.replyEmbed(b.errorEmbed("You need **" + moderation.PermissionName(moderation.ActorPermission(action)) + "** to use this command."))
			return
		}
		target, member, ok := c.target(0)
		if !ok {
			c.usage(c.name)
			return
		}

		next := 1
		duration := ""
		if hasDuration(action) {
			duration = defaultDuration
			if moderation.LooksLikeDuration(c.arg(1)) {
				duration = c.arg(1)
				next = 2
			}
		}
		reason := c.rest(next)
		if reason == "" {
			reason = defaultReason
		}
		if err := moderation.CheckActor(action, actor, target); err != nil {
			c.replyEmbed(b.errorEmbed(err.Error()))
			return
		}

		pending := b.pending.Propose(moderation.Pending{
			Action:      action,
			GuildID:     c.msg.GuildID,
			ChannelID:   c.msg.ChannelID,
			ModeratorID: c.msg.Author.ID,
			TargetID:    target.ID,
			Duration:    duration,
			Reason:      reason,
		})

		fields := []*discordgo.MessageEmbedField{
			field("User", fmt.Sprintf("%s (%s)", mention(target.ID), userTag(member.User)), true),
			field("Moderator", mention(c.msg.Author.ID), true),
		}
		if hasDuration(action) {
			minutes, timed := moderation.ParseDuration(duration)
			if !timed {
				minutes = 0
			}
			fields = append(fields, field("Duration", durationLabel(minutes), true))
		}
		fields = append(fields, field("Reason", reason, false))
		embed := b.commandEmbed(confirmTitles[action], "Are you sure you want to proceed?", b.cfg.Notifications.EmbedColors.Brand, fields)
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "🔥 Click Confirm to proceed or Cancel to abort"}

		msg, err := c.send(&discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
			Components: buttons(
				discordgo.Button{Label: "Confirm", Style: discordgo.DangerButton, CustomID: moderation.ConfirmID(pending.ID)},
				discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: moderation.CancelID(pending.ID)},
			),
		})
		if err != nil {
			b.logger.Warn("confirmation post failed", zap.String("action", string(action)), zap.Error(err))
			return
		}
		b.pending.SetMessage(pending.ID, msg.ID)
	}
}

// handleModComponent answers the Confirm and Cancel buttons.
func (b *Bot) handleModComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	confirm, id, ok := moderation.ParseCustomID(customID)
	if !ok {
		return
	}
	pending, err := b.pending.Resolve(id, interaction.Member.User.ID)
	switch {
	case errors.Is(err, moderation.ErrNotOwner):
		if confirm {
			b.respondEmbed(session, interaction, b.errorEmbed("Only the moderator who ran this command can confirm it."), true)
		} else {
			b.respondEmbed(session, interaction, b.errorEmbed("Only the moderator can cancel this action."), true)
		}
		return
	case err != nil:
		b.update(session, interaction, b.errorEmbed("This confirmation has expired."), nil)
		return
	}

	if !confirm {
		b.update(session, interaction, b.commandEmbed("Action Cancelled",
			"The "+string(pending.Action)+" action has been cancelled.", b.cfg.Notifications.EmbedColors.Neutral, nil), nil)
		return
	}

	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
	embed := b.runAction(ctx, pending.GuildID, pending.ModeratorID, pending.TargetID, pending.Action, pending.Duration, pending.Reason)
	b.editResponse(session, interaction, embed, nil)
}

func (b *Bot) editResponse(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	embeds := []*discordgo.MessageEmbed{embed}
	if _, err := session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{Embeds: &embeds, Components: &components}); err != nil {
		b.logger.Debug("interaction edit failed", zap.Error(err))
	}
}

// runAction executes a confirmed action and renders the outcome.
func (b *Bot) runAction(ctx context.Context, guildID, actorID, targetID string, action moderation.Action, duration, reason string) *discordgo.MessageEmbed {
	actor, _ := b.modMember(guildID, actorID)
	target, member := b.modMember(guildID, targetID)
	if member == nil && action != moderation.ActionBan {
		return b.errorEmbed("That member is no longer in the server.")
	}

	req := moderation.Request{
		Action:    action,
		GuildID:   guildID,
		GuildName: b.guildName(guildID),
		Actor:     actor,
		Target:    target,
		Bot:       b.botMember(guildID),
		Permanent: true,
		Reason:    reason,
	}
	if hasDuration(action) {
		if minutes, ok := moderation.ParseDuration(duration); ok {
			req.Minutes = minutes
			req.Permanent = false
		}
	}

	result, err := b.moderation.Execute(ctx, req)
	if err != nil {
		var guard *moderation.GuardError
		if errors.As(err, &guard) {
			return b.errorEmbed(guard.Error())
		}
		return b.errorEmbed("**" + strings.ToUpper(string(action)[:1]) + string(action)[1:] + " failed:** " + err.Error())
	}

	ids := make([]string, 0, len(result.ActionIDs))
	for _, id := range result.ActionIDs {
		ids = append(ids, "#"+strconv.FormatInt(id, 10))
	}
	dmStatus := "✅ Sent"
	if !result.DMSent {
		dmStatus = "❌ Failed"
	}
	logged := "✅ Logged"
	if !result.Logged {
		logged = "❌ Not logged"
		b.audit.Log(ctx, audit.LevelCrit, guildID, targetID, "moderation_unlogged",
			fmt.Sprintf("%s by %s was applied but could not be recorded", action, actorID))
	}

	fields := []*discordgo.MessageEmbedField{
		field("👤 User", mention(targetID), true),
		field("👮 Moderator", mention(actorID), true),
		field("🏠 Server", req.GuildName, true),
	}
	if hasDuration(action) {
		fields = append(fields, field("⏱️ Duration", durationLabel(result.Minutes), true))
	}
	fields = append(fields,
		field("📋 Reason", reason, false),
		field("🆔 Action ID", strings.Join(ids, ", "), true),
		field("💬 DM Status", dmStatus, true),
		field("📊 Database", logged, true),
	)
	embed := b.commandEmbed(actionTitle(action, result.Minutes)+" Successfully", "", b.cfg.Notifications.EmbedColors.Brand, fields)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}

	if b.cfg.Channels.ModLog != "" {
		if _, err := b.session.ChannelMessageSendEmbed(b.cfg.Channels.ModLog, embed); err != nil {
			b.logger.Warn("mod log post failed", zap.Error(err))
		}
	}
	return embed
}

func (b *Bot) cmdUnmute(ctx context.Context, c *cmdContext) {
	if !c.can(discordgo.PermissionModerateMembers) {
		c.replyEmbed(b.errorEmbed("You need **Moderate Members** to use this command."))
		return
	}
	target, member, ok := c.target(0)
	if !ok {
		c.usage(c.name)
		return
	}
	reason := c.rest(1)
	if reason == "" {
		reason = defaultReason
	}

	id, err := b.moderation.Unmute(ctx, c.msg.GuildID, c.msg.Author.ID, target.ID, member.CommunicationDisabledUntil, reason)
	switch {
	case errors.Is(err, moderation.ErrNotMuted):
		c.replyEmbed(b.errorEmbed(mention(target.ID) + " is not currently muted."))
		return
	case err != nil:
		b.logger.Warn("unmute failed", zap.String("target_id", target.ID), zap.Error(err))
		c.replyEmbed(b.errorEmbed("Failed to unmute " + mention(target.ID) + "."))
		return
	}

	fields := []*discordgo.MessageEmbedField{
		field("👤 User", mention(target.ID), true),
		field("👮 Moderator", mention(c.msg.Author.ID), true),
		field("📋 Reason", reason, false),
	}
	if id > 0 {
		fields = append(fields, field("🆔 Cleared Mute", "#"+strconv.FormatInt(id, 10), true))
	}
	embed := b.commandEmbed("🔊 User Unmuted", "", b.cfg.Notifications.EmbedColors.Brand, fields)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
	c.replyEmbed(embed)

	notice := b.brandEmbed("🔊 You Have Been Unmuted", "Your timeout has been lifted in **"+b.guildName(c.msg.GuildID)+"**.",
		field("📋 Reason", reason, false))
	_ = b.dm(target.ID, notice)
}

func (b *Bot) cmdRemoveAction(ctx context.Context, c *cmdContext) {
	if !c.can(discordgo.PermissionKickMembers) {
		c.replyEmbed(b.errorEmbed("You need **Kick Members** to use this command."))
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(c.arg(0), "#"), 10, 64)
	if err != nil || id <= 0 {
		embed := b.commandEmbed("❌ Invalid Action ID", "Please provide a valid moderation action ID.", b.cfg.Notifications.EmbedColors.Error,
			[]*discordgo.MessageEmbedField{
				field("Usage", "`"+b.cfg.Prefixes[0]+"removewarn <action id> [reason]`", false),
				field("Example", "`"+b.cfg.Prefixes[0]+"removewarn 42 appealed`", false),
			})
		c.replyEmbed(embed)
		return
	}
	reason := c.rest(1)
	if reason == "" {
		reason = defaultReason
	}

	action, err := b.moderation.RemoveAction(ctx, c.msg.GuildID, id, c.msg.Author.ID, reason)
	switch {
	case errors.Is(err, moderation.ErrNotFound), errors.Is(err, storage.ErrNotActive):
		c.replyEmbed(b.errorEmbed("No active moderation action found with that ID."))
		return
	case err != nil:
		b.logger.Warn("remove action failed", zap.Int64("action_id", id), zap.Error(err))
		c.replyEmbed(b.errorEmbed("Failed to remove that action."))
		return
	}

	embed := b.commandEmbed(emojiRight+" Moderation Action Removed Successfully", "", b.cfg.Notifications.EmbedColors.Brand,
		[]*discordgo.MessageEmbedField{
			field("🆔 Action ID", "#"+strconv.FormatInt(action.ID, 10), true),
			field("📌 Type", historyLabels[action.ActionType], true),
			field("👤 User", mention(action.UserID), true),
			field("👮 Removed By", mention(c.msg.Author.ID), true),
			field("📋 Original Reason", action.Reason, false),
			field("📝 Removal Reason", reason, false),
		})
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
	c.replyEmbed(embed)
}

func formatHistoryEntry(action storage.ModerationAction) string {
	status := "🟢 Active"
	if !action.IsActive {
		status = "⚪ Removed"
	}
	line := fmt.Sprintf("**#%d** %s - %s\nBy: %s | %s", action.ID, historyLabels[action.ActionType],
		action.CreatedAt.UTC().Format("01/02/2006 15:04"), mention(action.ModeratorID), status)
	if action.DurationMinutes != nil && *action.DurationMinutes > 0 {
		line += " | " + moderation.FormatDuration(*action.DurationMinutes)
	}
	return line + "\nReason: " + action.Reason
}

// historyLister lists the most recent records of one type.
func (b *Bot) historyLister(actionType storage.ActionType) func(context.Context, *cmdContext) {
	return func(ctx context.Context, c *cmdContext) {
		userID, ok := c.targetOrAuthor(0)
		if !ok {
			c.usage(c.name)
			return
		}
		if userID != c.msg.Author.ID && !c.can(discordgo.PermissionKickMembers) {
			c.replyEmbed(b.errorEmbed("You need **Kick Members** to view another member's history."))
			return
		}
		label := historyLabels[actionType]
		actions, err := b.moderation.History(ctx, c.msg.GuildID, userID, actionType, historyListSize)
		if err != nil {
			b.logger.Warn("history lookup failed", zap.String("user_id", userID), zap.Error(err))
			c.replyEmbed(b.errorEmbed("Could not load the moderation history."))
			return
		}
		if len(actions) == 0 {
			c.replyEmbed(b.brandEmbed("📋 No "+label+" History", mention(userID)+" has no "+strings.ToLower(label)+" records."))
			return
		}
		lines := make([]string, 0, len(actions))
		for _, action := range actions {
			lines = append(lines, formatHistoryEntry(action))
		}
		embed := b.brandEmbed(fmt.Sprintf("📋 %s History (%d)", label, len(actions)), mention(userID)+"\n\n"+strings.Join(lines, "\n\n"))
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
		c.replyEmbed(embed)
	}
}

// historySummary counts active rows and renders the per-type breakdown.
func historySummary(actions []storage.ModerationAction) (int, string) {
	active := 0
	for _, action := range actions {
		if action.IsActive {
			active++
		}
	}
	counts := storage.Counts(actions)
	return active, fmt.Sprintf("Warnings: **%d** | Mutes: **%d** | Kicks: **%d** | Bans: **%d**",
		counts[storage.ActionWarn], counts[storage.ActionMute], counts[storage.ActionKick], counts[storage.ActionBan])
}

func (b *Bot) cmdHistory(ctx context.Context, c *cmdContext) {
	userID, ok := c.targetOrAuthor(0)
	if !ok {
		c.usage(c.name)
		return
	}
	if userID != c.msg.Author.ID && !c.can(discordgo.PermissionKickMembers) {
		c.replyEmbed(b.errorEmbed("You need **Kick Members** to view another member's history."))
		return
	}
	actions, err := b.moderation.History(ctx, c.msg.GuildID, userID, "", 0)
	if err != nil {
		b.logger.Warn("history lookup failed", zap.String("user_id", userID), zap.Error(err))
		c.replyEmbed(b.errorEmbed("Could not load the moderation history."))
		return
	}
	if len(actions) == 0 {
		c.replyEmbed(b.brandEmbed("📋 Clean Record", mention(userID)+" has no moderation history."))
		return
	}

	active, summary := historySummary(actions)

	recent := actions
	if len(recent) > 8 {
		recent = recent[:8]
	}
	lines := make([]string, 0, len(recent))
	for _, action := range recent {
		lines = append(lines, formatHistoryEntry(action))
	}
	embed := b.brandEmbed("📋 Moderation History", mention(userID),
		field("📊 Total", strconv.Itoa(len(actions)), true),
		field("🟢 Active", strconv.Itoa(active), true),
		field("Breakdown", summary, false),
		field("Recent Actions", strings.Join(lines, "\n\n"), false),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
	c.replyEmbed(embed)
}

func (b *Bot) cmdReport(ctx context.Context, c *cmdContext) {
	userID, ok := parseUserID(c.arg(0))
	reason := c.rest(1)
	if !ok || reason == "" {
		c.usage(c.name)
		return
	}
	if userID == c.msg.Author.ID {
		c.replyEmbed(b.errorEmbed("You cannot report yourself."))
		return
	}
	member := b.memberForUser(c.msg.GuildID, userID)
	if member == nil {
		c.replyEmbed(b.errorEmbed("That member is not in this server."))
		return
	}
	if member.User != nil && member.User.Bot {
		c.replyEmbed(b.errorEmbed("You cannot report bots."))
		return
	}

	pending := b.pending.Propose(moderation.Pending{
		Action:      moderation.ActionReport,
		GuildID:     c.msg.GuildID,
		ChannelID:   c.msg.ChannelID,
		ModeratorID: c.msg.Author.ID,
		TargetID:    userID,
		Reason:      reason,
	})
	embed := b.commandEmbed("🚨 Confirm Report Submission", "Please review your report before submitting.", b.cfg.Notifications.EmbedColors.Error,
		[]*discordgo.MessageEmbedField{
			field("Reported User", mention(userID), true),
			field("Reporter", mention(c.msg.Author.ID), true),
			field("📋 Reason", reason, false),
			field("⚠️ WARNING", "**FALSE REPORTS WILL GET YOU MUTED**", false),
		})
	msg, err := c.send(&discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: buttons(
			discordgo.Button{Label: "Submit Report", Style: discordgo.DangerButton, CustomID: reportSubmitPrefix + pending.ID},
			discordgo.Button{Label: "Cancel Report", Style: discordgo.SecondaryButton, CustomID: reportCancelPrefix + pending.ID},
		),
	})
	if err != nil {
		b.logger.Warn("report confirmation failed", zap.Error(err))
		return
	}
	b.pending.SetMessage(pending.ID, msg.ID)
}

// handleReportComponent drives the reporter's confirmation and the staff review.
func (b *Bot) handleReportComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	userID := interaction.Member.User.ID
	switch {
	case strings.HasPrefix(customID, reportSubmitPrefix), strings.HasPrefix(customID, reportCancelPrefix):
		submit := strings.HasPrefix(customID, reportSubmitPrefix)
		id := strings.TrimPrefix(strings.TrimPrefix(customID, reportSubmitPrefix), reportCancelPrefix)
		pending, err := b.pending.Resolve(id, userID)
		switch {
		case errors.Is(err, moderation.ErrNotOwner):
			b.respondEmbed(session, interaction, b.errorEmbed("Only the reporter can use these buttons."), true)
			return
		case err != nil:
			b.update(session, interaction, b.errorEmbed("This report has expired."), nil)
			return
		}
		if !submit {
			b.update(session, interaction, b.commandEmbed("Report Cancelled", "Your report was not submitted.", b.cfg.Notifications.EmbedColors.Neutral, nil), nil)
			return
		}
		if err := b.submitReport(pending); err != nil {
			b.logger.Warn("report submit failed", zap.Error(err))
			b.update(session, interaction, b.errorEmbed("Failed to submit the report."), nil)
			return
		}
		b.update(session, interaction, b.brandEmbed(emojiRight+" Report Submitted Successfully", "Staff will review your report shortly.",
			field("Reported User", mention(pending.TargetID), true),
			field("📋 Reason", pending.Reason, false)), nil)

	case strings.HasPrefix(customID, reportApprovePrefix), strings.HasPrefix(customID, reportDenyPrefix):
		if !hasPermissionIn(interaction, discordgo.PermissionKickMembers) {
			b.respondEmbed(session, interaction, b.errorEmbed("You need **Kick Members** to review reports."), true)
			return
		}
		approve := strings.HasPrefix(customID, reportApprovePrefix)
		parts := strings.Split(strings.TrimPrefix(strings.TrimPrefix(customID, reportApprovePrefix), reportDenyPrefix), ":")
		targetID := parts[0]
		reason := embedField(interaction.Message, "📋 Reason")
		if !approve {
			b.update(session, interaction, b.commandEmbed("Report Denied", "", b.cfg.Notifications.EmbedColors.Neutral,
				[]*discordgo.MessageEmbedField{
					field("Reported User", mention(targetID), true),
					field("Denied By", mention(userID), true),
					field("📋 Original Reason", reason, false),
				}), nil)
			return
		}
		b.update(session, interaction, b.commandEmbed("Report Approved - Choose Action", "Select an action to take against the reported user.",
			b.cfg.Notifications.EmbedColors.Brand,
			[]*discordgo.MessageEmbedField{
				field("Reported User", mention(targetID), true),
				field("Approved By", mention(userID), true),
				field("📋 Original Reason", reason, false),
			}),
			buttons(
				discordgo.Button{Label: "Warn", Style: discordgo.SecondaryButton, CustomID: reportActPrefix + "warn:" + targetID},
				discordgo.Button{Label: "Mute", Style: discordgo.SecondaryButton, CustomID: reportActPrefix + "mute:" + targetID},
				discordgo.Button{Label: "Kick", Style: discordgo.DangerButton, CustomID: reportActPrefix + "kick:" + targetID},
				discordgo.Button{Label: "Ban", Style: discordgo.DangerButton, CustomID: reportActPrefix + "ban:" + targetID},
			))

	case strings.HasPrefix(customID, reportActPrefix):
		parts := strings.SplitN(strings.TrimPrefix(customID, reportActPrefix), ":", 2)
		if len(parts) != 2 {
			return
		}
		action, ok := moderation.ParseAction(parts[0])
		if !ok {
			return
		}
		if !hasPermissionIn(interaction, moderation.ActorPermission(action)) {
			b.respondEmbed(session, interaction, b.errorEmbed("You need **"+moderation.PermissionName(moderation.ActorPermission(action))+"** for that action."), true)
			return
		}
		duration := ""
		switch action {
		case moderation.ActionMute:
			duration = "1h"
		case moderation.ActionBan:
			duration = "permanent"
		}
		reason := "Report violation: " + embedField(interaction.Message, "📋 Original Reason")
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
		embed := b.runAction(ctx, interaction.GuildID, userID, parts[1], action, duration, reason)
		b.editResponse(session, interaction, embed, nil)
	}
}

func (b *Bot) submitReport(p moderation.Pending) error {
	channelID := b.cfg.Channels.Report
	if channelID == "" {
		return errors.New("no report channel configured")
	}
	info := "Unknown"
	if member := b.memberForUser(p.GuildID, p.TargetID); member != nil && member.User != nil {
		created, _ := discordgo.SnowflakeTimestamp(member.User.ID)
		info = fmt.Sprintf("Tag: %s\nCreated: <t:%d:R>", userTag(member.User), created.Unix())
		if !member.JoinedAt.IsZero() {
			info += fmt.Sprintf("\nJoined: <t:%d:R>", member.JoinedAt.Unix())
		}
	}
	embed := b.commandEmbed("🚨 User Report Alert", "", b.cfg.Notifications.EmbedColors.Error, []*discordgo.MessageEmbedField{
		field("Reported User", mention(p.TargetID), true),
		field("Reporter", mention(p.ModeratorID), true),
		field("Channel", "<#"+p.ChannelID+">", true),
		field("Server", b.guildName(p.GuildID), true),
		field("📋 Reason", p.Reason, false),
		field("User Info", info, false),
	})
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footerModeration}
	embed.Timestamp = time.Now().Format(time.RFC3339)
	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: buttons(
			discordgo.Button{Label: "Approve Report", Style: discordgo.SuccessButton, CustomID: reportApprovePrefix + p.TargetID + ":" + p.ModeratorID},
			discordgo.Button{Label: "Deny Report", Style: discordgo.DangerButton, CustomID: reportDenyPrefix + p.TargetID + ":" + p.ModeratorID},
		),
	})
	if err == nil {
		b.audit.Log(b.ctx, audit.LevelInfo, p.GuildID, p.TargetID, "report", "reported by "+p.ModeratorID+": "+p.Reason)
	}
	return err
}

// hasPermissionIn checks the clicking member's resolved channel permissions.
func hasPermissionIn(interaction *discordgo.InteractionCreate, permission int64) bool {
	if interaction.Member == nil {
		return false
	}
	return moderation.HasPermission(interaction.Member.Permissions, permission)
}

func embedField(msg *discordgo.Message, name string) string {
	if msg == nil {
		return ""
	}
	for _, embed := range msg.Embeds {
		for _, f := range embed.Fields {
			if f.Name == name {
				return f.Value
			}
		}
	}
	return ""
}
