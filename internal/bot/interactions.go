package bot

import (
	"context"
	"strings"

	"gsbot/internal/metrics"
	"gsbot/internal/moderation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	automodBanPrefix     = "automod:ban:"
	automodDismissPrefix = "automod:dismiss:"
	footerAutomod        = "🔥 Game Services Automod System"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Member == nil || interaction.Member.User == nil {
		if interaction.Type == discordgo.InteractionApplicationCommand {
			b.respond(session, interaction, "This command only works in a server.", true)
		}
		return
	}
	ctx := b.ctx
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("interaction panicked", zap.Any("panic", r))
		}
	}()

	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		metrics.CommandsHandled.WithLabelValues(data.Name).Inc()
		b.handleSlash(ctx, session, interaction, data)
	case discordgo.InteractionMessageComponent:
		customID := interaction.MessageComponentData().CustomID
		b.logger.Debug("component", zap.String("custom_id", customID), zap.String("user_id", interaction.Member.User.ID))
		switch {
		case strings.HasPrefix(customID, "mod:"):
			b.handleModComponent(ctx, session, interaction, customID)
		case strings.HasPrefix(customID, "ticket:"):
			b.handleTicketComponent(ctx, session, interaction, customID)
		case strings.HasPrefix(customID, "report:"):
			b.handleReportComponent(ctx, session, interaction, customID)
		case strings.HasPrefix(customID, "automod:"):
			b.handleAutomodComponent(ctx, session, interaction, customID)
		}
	}
}

func (b *Bot) handleSlash(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		options[opt.Name] = opt
	}

	switch data.Name {
	case "petvalue":
		name := ""
		if opt, ok := options["name"]; ok {
			name = strings.TrimSpace(opt.StringValue())
		}
		if name == "" {
			b.respondEmbed(session, interaction, b.errorEmbed("Please provide a pet name."), true)
			return
		}
		embed, found := b.petValueEmbed(name)
		if !found {
			b.respondEmbed(session, interaction, embed, false)
			return
		}
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: petLinkButtons(),
			},
		})
	case "petweight":
		age, weight, target := 0, 0.0, 0
		if opt, ok := options["age"]; ok {
			age = int(opt.IntValue())
		}
		if opt, ok := options["weight"]; ok {
			weight = opt.FloatValue()
		}
		if opt, ok := options["target"]; ok {
			target = int(opt.IntValue())
		}
		embed, problem := b.petWeightEmbed(age, weight, target)
		if problem != "" {
			b.respondEmbed(session, interaction, b.errorEmbed(problem), true)
			return
		}
		b.respondEmbed(session, interaction, embed, false)
	case "status":
		b.respondEmbed(session, interaction, b.statusEmbed(), true)
	default:
		b.respond(session, interaction, "Unknown command.", true)
	}
}

// handleAutomodComponent answers the Ban and Dismiss buttons under automod reports.
func (b *Bot) handleAutomodComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	actorID := interaction.Member.User.ID
	switch {
	case strings.HasPrefix(customID, automodBanPrefix):
		if !hasPermissionIn(interaction, discordgo.PermissionBanMembers) {
			b.respondEmbed(session, interaction, b.errorEmbed("You need **Ban Members** to do that."), true)
			return
		}
		userID := strings.TrimPrefix(customID, automodBanPrefix)
		word := strings.Trim(embedField(interaction.Message, "🔍 Detected Word"), "|")
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
		embed := b.runAction(ctx, interaction.GuildID, actorID, userID, moderation.ActionBan, "permanent", "Automod violation: "+word)
		if embed.Footer != nil {
			embed.Footer.Text = footerAutomod
		}
		b.editResponse(session, interaction, embed, nil)

	case strings.HasPrefix(customID, automodDismissPrefix):
		if !hasPermissionIn(interaction, discordgo.PermissionKickMembers) {
			b.respondEmbed(session, interaction, b.errorEmbed("You need **Kick Members** to do that."), true)
			return
		}
		userID := strings.TrimPrefix(customID, automodDismissPrefix)
		embed := b.commandEmbed("Automod Report Dismissed", "", b.cfg.Notifications.EmbedColors.Neutral, []*discordgo.MessageEmbedField{
			field("👤 User", mention(userID), true),
			field("Dismissed By", mention(actorID), true),
			field("🔍 Detected Word", embedField(interaction.Message, "🔍 Detected Word"), true),
		})
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footerAutomod}
		b.update(session, interaction, embed, nil)
	}
}
