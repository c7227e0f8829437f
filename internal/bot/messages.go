package bot

import (
	"context"
	"regexp"
	"strings"
	"time"

	"gsbot/internal/automod"
	"gsbot/internal/metrics"
	"gsbot/internal/pets"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const answerEmoji = "GsRight:1414593140156792893"

var wflPattern = regexp.MustCompile(`(?i)\bwfl\b`)

func (b *Bot) onMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	if event.Author == nil || event.Author.Bot || event.GuildID == "" {
		return
	}
	ctx := b.ctx

	b.counter.Record(event.GuildID, event.Author.ID)
	metrics.MessagesCounted.Inc()
	b.observeChatGuide(event.ChannelID)

	if b.checkAutomod(ctx, event) {
		return
	}
	if b.petChannels[event.ChannelID] {
		b.ingestPets(event.Message)
	}
	if b.games.Registry().Answer(event.ChannelID, event.Author.ID, event.Content) {
		_ = session.MessageReactionAdd(event.ChannelID, event.ID, answerEmoji)
	}
	if b.dispatch(ctx, session, event) {
		return
	}
	if event.ChannelID == b.cfg.Channels.WFL && wflPattern.MatchString(event.Content) {
		b.reactWFL(ctx, event.GuildID, event.ChannelID, event.ID)
	}
}

// onMessageUpdate re-reads edited value posts.
func (b *Bot) onMessageUpdate(session *discordgo.Session, event *discordgo.MessageUpdate) {
	if event.Message == nil || !b.petChannels[event.ChannelID] || event.Content == "" {
		return
	}
	if event.Author != nil && event.Author.Bot {
		return
	}
	b.ingestPets(event.Message)
}

func (b *Bot) observeChatGuide(channelID string) {
	if channelID != b.cfg.Channels.ChatGuide || !b.guide.Observe(channelID) {
		return
	}
	if _, err := b.session.ChannelMessageSend(channelID, b.cfg.ChatGuide.Message); err != nil {
		b.logger.Warn("chat guide post failed", zap.String("channel_id", channelID), zap.Error(err))
		return
	}
	b.guide.MarkSent(channelID)
	b.logger.Info("chat guide posted", zap.String("channel_id", channelID))
}

func (b *Bot) checkAutomod(ctx context.Context, event *discordgo.MessageCreate) bool {
	guild := b.guild(event.GuildID)
	member := event.Member
	if member != nil {
		member.User = event.Author
	} else {
		member = b.memberForUser(event.GuildID, event.Author.ID)
	}
	author := memberView(guild, member, event.Author.ID)
	msg := automod.Message{
		GuildID:   event.GuildID,
		ChannelID: event.ChannelID,
		ID:        event.ID,
		Content:   event.Content,
		AuthorTag: userTag(event.Author),
	}
	_, handled := b.automod.HandleMessage(ctx, msg, author, b.botMember(event.GuildID))
	return handled
}

func (b *Bot) ingestPets(msg *discordgo.Message) {
	found, err := b.extractor.Ingest(pets.Message{
		ID:        msg.ID,
		Content:   msg.Content,
		CreatedAt: msg.Timestamp,
		Images:    messageImages(msg),
	})
	if err != nil {
		b.logger.Error("pet ingest failed", zap.String("message_id", msg.ID), zap.Error(err))
		return
	}
	if len(found) > 0 {
		metrics.PetsExtracted.Add(float64(len(found)))
		metrics.PetRecords.Set(float64(b.pets.Len()))
	}
}

// messageImages lists image attachments, then embed images and thumbnails.
func messageImages(msg *discordgo.Message) []string {
	var out []string
	for _, att := range msg.Attachments {
		if strings.HasPrefix(att.ContentType, "image/") {
			out = append(out, att.URL)
		}
	}
	for _, embed := range msg.Embeds {
		if embed.Image != nil && embed.Image.URL != "" {
			out = append(out, embed.Image.URL)
		}
		if embed.Thumbnail != nil && embed.Thumbnail.URL != "" {
			out = append(out, embed.Thumbnail.URL)
		}
	}
	return out
}

// reactWFL adds the configured custom emojis, once per cooldown per channel.
func (b *Bot) reactWFL(ctx context.Context, guildID, channelID, messageID string) {
	if !b.wfl.Allow(channelID, 1, time.Now()) {
		return
	}
	guild := b.guild(guildID)
	for _, name := range b.cfg.Reactions.WFLEmojis {
		emoji := guildEmoji(guild, name)
		if emoji == "" {
			continue
		}
		if err := b.reactions.Wait(ctx); err != nil {
			return
		}
		if err := b.session.MessageReactionAdd(channelID, messageID, emoji); err != nil {
			b.logger.Debug("wfl reaction failed", zap.String("emoji", name), zap.Error(err))
		}
	}
}

func guildEmoji(guild *discordgo.Guild, name string) string {
	if guild == nil {
		return ""
	}
	for _, emoji := range guild.Emojis {
		if emoji.Name == name {
			return emoji.APIName()
		}
	}
	return ""
}
