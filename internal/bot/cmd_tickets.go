package bot

import (
	"context"
	"errors"
	"strings"

	"gsbot/internal/tickets"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	ticketOpenPrefix = "ticket:open:"
	ticketYesPrefix  = "ticket:yes:"
	ticketNoPrefix   = "ticket:no:"
	ticketDenyPrefix = "ticket:deny:"

	ticketClose  = "close"
	ticketDelete = "delete"
	ticketClaim  = "claim"

	ticketIcon = "<:GsTicketsStyle2:1415298853598396509>"
)

func (b *Bot) ticketCommands() []*command {
	return []*command{
		{name: "ticketpanel", help: "Post the ticket panel", run: b.cmdTicketPanel},
		{name: "claim", help: "Claim the current ticket", run: b.cmdTicketClaim},
		{name: "transfer", usage: "transfer <member>", help: "Hand the current ticket to another staff member", run: b.cmdTicketTransfer},
		{name: "delete", help: "Delete the current ticket", run: b.cmdTicketDelete},
	}
}

func (b *Bot) ticketError(description string) *discordgo.MessageEmbed {
	return b.commandEmbed("", emojiWrong+" "+description, b.cfg.Notifications.EmbedColors.Neutral, nil)
}

func (b *Bot) ticketNote(description string) *discordgo.MessageEmbed {
	return b.commandEmbed("", description, b.cfg.Notifications.EmbedColors.Neutral, nil)
}

func (b *Bot) ticketChannel(channelID string) (tickets.Channel, error) {
	ch, err := b.session.State.Channel(channelID)
	if err != nil || ch == nil {
		ch, err = b.session.Channel(channelID)
		if err != nil {
			return tickets.Channel{}, err
		}
	}
	return tickets.Channel{ID: ch.ID, Name: ch.Name, Topic: ch.Topic}, nil
}

func ticketActionButtons() []discordgo.MessageComponent {
	return buttons(
		discordgo.Button{Label: "Close", Style: discordgo.SecondaryButton, CustomID: "ticket:" + ticketClose},
		discordgo.Button{Label: "Delete", Style: discordgo.SecondaryButton, CustomID: "ticket:" + ticketDelete},
		discordgo.Button{Label: "Claim", Style: discordgo.SecondaryButton, CustomID: "ticket:" + ticketClaim},
	)
}

func confirmButtons(yesID, noID string) []discordgo.MessageComponent {
	return buttons(
		discordgo.Button{Label: "Yes", Style: discordgo.SecondaryButton, CustomID: yesID, Emoji: &discordgo.ComponentEmoji{Name: "GsRight", ID: "1414593140156792893"}},
		discordgo.Button{Label: "No", Style: discordgo.SecondaryButton, CustomID: noID, Emoji: &discordgo.ComponentEmoji{Name: "GsWrong", ID: "1414561861352816753"}},
	)
}

func kindTitle(kind string) string {
	if kind == "" {
		return "Ticket"
	}
	return strings.ToUpper(kind[:1]) + kind[1:] + " Ticket"
}

func (b *Bot) ticketActionEmbed(kind, creatorID string) *discordgo.MessageEmbed {
	return b.brandEmbed(kindTitle(kind), mentionOrUnknown(creatorID)+" this ticket has been created. Use the buttons below (staff only).")
}

func mentionOrUnknown(id string) string {
	if id == "" {
		return "Unknown"
	}
	return mention(id)
}

func (b *Bot) cmdTicketPanel(ctx context.Context, c *cmdContext) {
	if c.msg.Author.ID != b.cfg.Tickets.PanelUserID {
		c.replyEmbed(b.ticketError("You are not allowed to use this command."))
		return
	}
	embed := b.commandEmbed(ticketIcon+"  GS Tickets",
		"Choose the type of ticket you want to open below:\n\n"+
			"<:GsBuying:1415290878964142110> **Buying Tickets** → For purchases and orders.\n\n"+
			"<:GsSupport:1415290793681490000> **Support Tickets** → For help and general assistance.",
		b.cfg.Notifications.EmbedColors.Neutral, nil)
	msg, err := c.send(&discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: buttons(
			discordgo.Button{Label: "Buying Tickets", Style: discordgo.SecondaryButton, CustomID: ticketOpenPrefix + tickets.KindBuying, Emoji: &discordgo.ComponentEmoji{Name: "GsBuying", ID: "1415290878964142110"}},
			discordgo.Button{Label: "Support Tickets", Style: discordgo.SecondaryButton, CustomID: ticketOpenPrefix + tickets.KindSupport, Emoji: &discordgo.ComponentEmoji{Name: "GsSupport", ID: "1415290793681490000"}},
		),
	})
	if err != nil {
		b.logger.Warn("ticket panel post failed", zap.Error(err))
		return
	}
	if err := b.tickets.Registry().AddPanel(tickets.Panel{ChannelID: msg.ChannelID, MessageID: msg.ID}); err != nil {
		b.logger.Error("ticket panel persist failed", zap.Error(err))
	}
}

// staffInTicket gates the ticket commands on the staff role and channel kind.
func (b *Bot) staffInTicket(c *cmdContext, includeClosed bool) (tickets.Channel, bool) {
	_, member := c.author()
	if !b.isStaff(member) {
		c.replyEmbed(b.ticketError("You don’t have permission."))
		return tickets.Channel{}, false
	}
	channel, err := b.ticketChannel(c.msg.ChannelID)
	if err == nil {
		err = b.tickets.Check(channel, includeClosed)
	}
	if err != nil {
		c.replyEmbed(b.ticketError("This command can only be used in a ticket channel."))
		return tickets.Channel{}, false
	}
	return channel, true
}

func (b *Bot) cmdTicketClaim(ctx context.Context, c *cmdContext) {
	if _, ok := b.staffInTicket(c, false); !ok {
		return
	}
	_, _ = c.send(&discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{b.brandEmbed("Claim ticket", mention(c.msg.Author.ID)+", do you want to claim this ticket?")},
		Components: confirmButtons(ticketYesPrefix+ticketClaim, ticketDenyPrefix+ticketClaim),
	})
}

func (b *Bot) cmdTicketDelete(ctx context.Context, c *cmdContext) {
	if _, ok := b.staffInTicket(c, true); !ok {
		return
	}
	_, _ = c.send(&discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{b.brandEmbed("Confirm delete", "Are you sure you want to delete this ticket?")},
		Components: confirmButtons(ticketYesPrefix+ticketDelete, ticketDenyPrefix+ticketDelete),
	})
}

func (b *Bot) cmdTicketTransfer(ctx context.Context, c *cmdContext) {
	channel, ok := b.staffInTicket(c, false)
	if !ok {
		return
	}
	_, target, found := c.target(0)
	if !found {
		c.usage("transfer")
		return
	}
	if !b.isStaff(target) {
		c.replyEmbed(b.ticketError("Target is not staff."))
		return
	}
	if err := b.tickets.Transfer(ctx, channel, target.User.ID); err != nil {
		b.logger.Warn("ticket transfer failed", zap.String("channel_id", channel.ID), zap.Error(err))
		c.replyEmbed(b.ticketError("Failed to transfer the ticket."))
		return
	}
	c.replyEmbed(b.brandEmbed("", "Ticket transferred to "+mention(target.User.ID)+"."))
}

func (b *Bot) handleTicketComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	if strings.HasPrefix(customID, ticketOpenPrefix) {
		b.openTicket(session, interaction, strings.TrimPrefix(customID, ticketOpenPrefix))
		return
	}
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.ticketError("You can’t use this."), true)
		return
	}

	switch {
	case strings.HasPrefix(customID, ticketYesPrefix):
		b.runTicketAction(ctx, session, interaction, strings.TrimPrefix(customID, ticketYesPrefix))
	case strings.HasPrefix(customID, ticketNoPrefix):
		channel, _ := b.ticketChannel(interaction.ChannelID)
		creatorID, _ := b.tickets.Participants(channel)
		record, _ := b.tickets.Registry().Get(interaction.ChannelID)
		b.update(session, interaction, b.ticketActionEmbed(record.Kind, creatorID), ticketActionButtons())
	case strings.HasPrefix(customID, ticketDenyPrefix):
		text := "Action denied."
		if strings.TrimPrefix(customID, ticketDenyPrefix) == ticketClaim {
			text = "Claim cancelled."
		}
		b.update(session, interaction, b.ticketError(text), nil)
	default:
		action := strings.TrimPrefix(customID, "ticket:")
		b.update(session, interaction,
			b.brandEmbed("Confirm action", "Are you sure you want to **"+strings.ToUpper(action[:1])+action[1:]+"**?"),
			confirmButtons(ticketYesPrefix+action, ticketNoPrefix+action))
	}
}

func (b *Bot) runTicketAction(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, action string) {
	actorID := interaction.Member.User.ID
	channel, err := b.ticketChannel(interaction.ChannelID)
	if err == nil {
		err = b.tickets.Check(channel, action == ticketDelete)
	}
	if err != nil {
		b.update(session, interaction, b.ticketError("This can only be used in a ticket channel."), nil)
		return
	}

	var done string
	switch action {
	case ticketClose:
		done = emojiRight + " Ticket closed (user removed) by " + mention(actorID) + "."
	case ticketDelete:
		done = emojiRight + " Ticket deleted by " + mention(actorID) + "."
	case ticketClaim:
		done = emojiRight + " Ticket claimed by " + mention(actorID) + "."
	default:
		b.update(session, interaction, b.ticketNote("Unknown action."), nil)
		return
	}
	b.update(session, interaction, b.ticketNote(done), nil)

	switch action {
	case ticketClose:
		err = b.tickets.Close(ctx, channel, actorID)
	case ticketDelete:
		err = b.tickets.Delete(ctx, channel, actorID)
	case ticketClaim:
		err = b.tickets.Claim(ctx, channel, actorID)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("ticket action failed", zap.String("action", action), zap.String("channel_id", channel.ID), zap.Error(err))
		_, _ = session.ChannelMessageSendEmbed(channel.ID, b.ticketError("Failed to "+action+" the ticket."))
	}
}

func (b *Bot) openTicket(session *discordgo.Session, interaction *discordgo.InteractionCreate, kind string) {
	if interaction.Member == nil || interaction.Member.User == nil {
		return
	}
	user := interaction.Member.User
	category := b.cfg.Tickets.SupportCategory
	if kind == tickets.KindBuying {
		category = b.cfg.Tickets.BuyingCategory
	}
	if b.cfg.Roles.Staff == "" || category == "" || (kind != tickets.KindBuying && kind != tickets.KindSupport) {
		b.respondEmbed(session, interaction, b.ticketError("Ticket system not set up properly. Contact an admin."), true)
		return
	}

	view := int64(discordgo.PermissionViewChannel)
	viewSend := view | discordgo.PermissionSendMessages
	channel, err := session.GuildChannelCreateComplex(interaction.GuildID, discordgo.GuildChannelCreateData{
		Name:     tickets.ChannelName(kind, user.Username),
		Type:     discordgo.ChannelTypeGuildText,
		Topic:    tickets.FormatTopic(user.ID, ""),
		ParentID: category,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: interaction.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: view},
			{ID: b.cfg.Roles.Staff, Type: discordgo.PermissionOverwriteTypeRole, Allow: viewSend},
			{ID: user.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: viewSend},
		},
	})
	if err != nil {
		b.logger.Error("ticket channel create failed", zap.String("user_id", user.ID), zap.Error(err))
		b.respondEmbed(session, interaction, b.ticketError("Failed to create the ticket."), true)
		return
	}

	actionID := ""
	msg, err := session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{b.ticketActionEmbed(kind, user.ID)},
		Components: ticketActionButtons(),
	})
	if err != nil {
		b.logger.Warn("ticket action message failed", zap.String("channel_id", channel.ID), zap.Error(err))
	} else {
		actionID = msg.ID
	}
	if err := b.tickets.Open(channel.ID, user.ID, actionID, kind); err != nil {
		b.logger.Error("ticket registry write failed", zap.String("channel_id", channel.ID), zap.Error(err))
	}
	b.logger.Info("ticket opened", zap.String("kind", kind), zap.String("user_id", user.ID), zap.String("channel_id", channel.ID))
	b.respondEmbed(session, interaction, b.ticketNote(kindTitle(kind)+" created: <#"+channel.ID+"> "+emojiRight), true)
}
