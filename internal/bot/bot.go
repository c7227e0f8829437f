package bot

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"gsbot/internal/absence"
	"gsbot/internal/analytics"
	"gsbot/internal/automod"
	"gsbot/internal/config"
	"gsbot/internal/games"
	"gsbot/internal/invites"
	"gsbot/internal/moderation"
	"gsbot/internal/modules/audit"
	"gsbot/internal/pets"
	"gsbot/internal/storage"
	"gsbot/internal/tickets"
	"gsbot/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps are the long-lived stores the bot drives.
type Deps struct {
	Ledger    storage.Ledger
	Audit     *audit.Logger
	Analytics *analytics.Service
	Pets      *pets.Store
	Tickets   *tickets.Registry
}

type Bot struct {
	cfg         config.Config
	logger      *zap.Logger
	session     *discordgo.Session
	audit       *audit.Logger
	analytics   *analytics.Service
	pets        *pets.Store
	extractor   *pets.Extractor
	moderation  *moderation.Service
	pending     *moderation.Registry
	tickets     *tickets.Manager
	games       *games.Runner
	automod     *automod.Module
	counter     *analytics.Counter
	guide       *analytics.ChatGuide
	invites     *invites.Tracker
	absence     *absence.Scheduler
	commands    map[string]*command
	wfl         *utils.SlidingWindow
	reactions   *rate.Limiter
	history     *rate.Limiter
	petChannels map[string]bool
	connected   atomic.Bool
	started     time.Time
	ctx         context.Context
	cancel      context.CancelFunc
}

func New(cfg config.Config, logger *zap.Logger, deps Deps) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsMessageContent

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		cfg:         cfg,
		started:     time.Now(),
		logger:      logger,
		session:     session,
		audit:       deps.Audit,
		analytics:   deps.Analytics,
		pets:        deps.Pets,
		extractor:   pets.NewExtractor(deps.Pets, logger),
		pending:     moderation.NewRegistry(time.Duration(cfg.Moderation.ConfirmTimeoutSeconds) * time.Second),
		counter:     analytics.NewCounter(),
		guide:       analytics.NewChatGuide(cfg.ChatGuide.Interval, time.Duration(cfg.ChatGuide.CooldownSeconds)*time.Second),
		invites:     invites.NewTracker(),
		wfl:         utils.NewSlidingWindow(time.Duration(max(cfg.Reactions.CooldownSeconds, 1)) * time.Second),
		reactions:   rate.NewLimiter(rate.Limit(4), 10),
		history:     rate.NewLimiter(rate.Limit(2), 4),
		petChannels: make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, channelID := range cfg.Channels.PetValues {
		b.petChannels[channelID] = true
	}

	b.moderation = moderation.NewService(deps.Ledger, b, b, deps.Audit, logger, cfg.Moderation.AppealURL)
	b.tickets = tickets.NewManager(deps.Tickets, ticketPlatform{b}, cfg.Roles.Staff, logger)
	b.games = games.NewRunner(games.NewRegistry(), games.NewGenerator(nil), cfg.Games, logger)
	b.automod = automod.New(cfg.Automod, automodPlatform{b}, deps.Ledger, deps.Audit, logger)
	b.absence = absence.NewScheduler(absenceRoles{b}, deps.Audit, logger)
	b.commands = b.buildCommands()

	if b.audit != nil {
		b.audit.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
			if entry.Level != audit.LevelCrit {
				return
			}
			b.notifyAudit(entry)
		})
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onResumed)
	b.session.AddHandler(b.onDisconnect)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onInviteCreate)
	b.session.AddHandler(b.onChannelCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := openGateway(b.ctx, b.session.Open, gatewayRetryDelay, b.logger); err != nil {
		return err
	}

	return b.registerCommands()
}

const gatewayRetryDelay = 10 * time.Second

// openGateway calls open, and once more after delay if the first attempt fails.
func openGateway(ctx context.Context, open func() error, delay time.Duration, logger *zap.Logger) error {
	err := open()
	if err == nil {
		return nil
	}
	logger.Warn("gateway connect failed, retrying once", zap.Duration("delay", delay), zap.Error(err))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	if err := open(); err != nil {
		return fmt.Errorf("gateway connect retry: %w", err)
	}
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	b.cancel()
	b.absence.Stop()
	done := make(chan struct{})
	go func() {
		for b.games.Registry().Len() > 0 {
			time.Sleep(50 * time.Millisecond)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if b.session != nil {
		_ = b.session.Close()
	}
}

// Connected reports whether the gateway session is up.
func (b *Bot) Connected() bool {
	return b.connected.Load()
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.connected.Store(true)
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username), zap.Int("guilds", len(event.Guilds)))
	for _, guild := range event.Guilds {
		b.refreshInvites(guild.ID)
	}
}

func (b *Bot) onResumed(session *discordgo.Session, event *discordgo.Resumed) {
	b.connected.Store(true)
	b.logger.Info("discord session resumed")
}

func (b *Bot) onDisconnect(session *discordgo.Session, event *discordgo.Disconnect) {
	b.connected.Store(false)
	b.logger.Warn("discord session disconnected")
}

func (b *Bot) notifyAudit(entry storage.AuditLog) {
	if b.cfg.Channels.ModLog == "" {
		return
	}
	embed := b.commandEmbed("🚨 "+entry.Event, entry.Details, b.cfg.Notifications.EmbedColors.Error, nil)
	if entry.UserID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "User", Value: mention(entry.UserID), Inline: true})
	}
	_, _ = b.session.ChannelMessageSendEmbed(b.cfg.Channels.ModLog, embed)
}

func (b *Bot) memberForUser(guildID, userID string) *discordgo.Member {
	member, err := b.session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return member
	}
	member, _ = b.session.GuildMember(guildID, userID)
	return member
}

func (b *Bot) guild(guildID string) *discordgo.Guild {
	guild, err := b.session.State.Guild(guildID)
	if err == nil && guild != nil {
		return guild
	}
	guild, _ = b.session.Guild(guildID)
	return guild
}

// modMember projects a guild member onto the fields the guards compare.
func (b *Bot) modMember(guildID, userID string) (moderation.Member, *discordgo.Member) {
	guild := b.guild(guildID)
	member := b.memberForUser(guildID, userID)
	return memberView(guild, member, userID), member
}

func (b *Bot) botMember(guildID string) moderation.Member {
	view, _ := b.modMember(guildID, b.session.State.User.ID)
	return view
}

func memberView(guild *discordgo.Guild, member *discordgo.Member, userID string) moderation.Member {
	view := moderation.Member{ID: userID}
	if guild == nil || member == nil {
		return view
	}
	view.IsOwner = guild.OwnerID == userID
	view.Permissions = memberPermissions(guild, member)
	view.Rank = memberRank(guild, member)
	return view
}

func memberPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if guild == nil || member == nil {
		return 0
	}
	if member.User != nil && guild.OwnerID == member.User.ID {
		return discordgo.PermissionAll
	}
	perms := int64(0)
	roles := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roles[role.ID] = role
		if role.ID == guild.ID {
			perms |= role.Permissions
		}
	}
	for _, roleID := range member.Roles {
		if role := roles[roleID]; role != nil {
			perms |= role.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	return perms
}

func memberRank(guild *discordgo.Guild, member *discordgo.Member) int {
	rank := 0
	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Position > rank {
				rank = role.Position
			}
		}
	}
	return rank
}

func hasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

func (b *Bot) isStaff(member *discordgo.Member) bool {
	return hasRole(member, b.cfg.Roles.Staff)
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

// update replaces the message a component was clicked on.
func (b *Bot) update(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

func (b *Bot) brandEmbed(title, description string, fields ...*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return b.commandEmbed(title, description, b.cfg.Notifications.EmbedColors.Brand, fields)
}

func (b *Bot) errorEmbed(description string) *discordgo.MessageEmbed {
	return b.commandEmbed("", "<:GsWrong:1414561861352816753>  "+description, b.cfg.Notifications.EmbedColors.Error, nil)
}

func field(name, value string, inline bool) *discordgo.MessageEmbedField {
	if value == "" {
		value = "-"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}

func buttons(list ...discordgo.Button) []discordgo.MessageComponent {
	row := discordgo.ActionsRow{}
	for _, button := range list {
		row.Components = append(row.Components, button)
	}
	return []discordgo.MessageComponent{row}
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

// parseUserID accepts <@id>, <@!id> or a bare snowflake.
func parseUserID(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	arg = strings.TrimPrefix(arg, "<@")
	arg = strings.TrimPrefix(arg, "!")
	arg = strings.TrimSuffix(arg, ">")
	if len(arg) < 15 || len(arg) > 21 {
		return "", false
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return arg, true
}

func displayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user != nil {
		return user.Username
	}
	return "unknown"
}

func userTag(user *discordgo.User) string {
	if user == nil {
		return "unknown"
	}
	if user.Discriminator == "" || user.Discriminator == "0" {
		return user.Username
	}
	return fmt.Sprintf("%s#%s", user.Username, user.Discriminator)
}
