package bot

import (
	"context"
	"strings"
	"time"

	"gsbot/internal/metrics"
	"gsbot/internal/moderation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	run     func(ctx context.Context, c *cmdContext)
}

type cmdContext struct {
	b       *Bot
	session *discordgo.Session
	msg     *discordgo.MessageCreate
	name    string
	args    []string
}

// parseCommand strips a prefix and splits the remainder into a lowercase
// command name and its arguments.
func parseCommand(content string, prefixes []string) (name string, args []string, ok bool) {
	lower := strings.ToLower(content)
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(lower, strings.ToLower(prefix)) {
			continue
		}
		fields := strings.Fields(content[len(prefix):])
		if len(fields) == 0 {
			return "", nil, false
		}
		return strings.ToLower(fields[0]), fields[1:], true
	}
	return "", nil, false
}

func (b *Bot) buildCommands() map[string]*command {
	list := []*command{}
	list = append(list, b.petCommands()...)
	list = append(list, b.moderationCommands()...)
	list = append(list, b.ticketCommands()...)
	list = append(list, b.gameCommands()...)
	list = append(list, b.utilityCommands()...)
	list = append(list, &command{name: "help", aliases: []string{"commands"}, help: "List commands", run: b.cmdHelp})

	out := make(map[string]*command, len(list)*2)
	for _, cmd := range list {
		out[cmd.name] = cmd
		for _, alias := range cmd.aliases {
			out[alias] = cmd
		}
	}
	return out
}

// dispatch runs a prefixed command. It reports whether content was one.
func (b *Bot) dispatch(ctx context.Context, session *discordgo.Session, msg *discordgo.MessageCreate) bool {
	name, args, ok := parseCommand(msg.Content, b.cfg.Prefixes)
	if !ok {
		return false
	}
	cmd := b.commands[name]
	if cmd == nil {
		return false
	}
	metrics.CommandsHandled.WithLabelValues(cmd.name).Inc()
	b.logger.Debug("command", zap.String("command", cmd.name), zap.String("user_id", msg.Author.ID), zap.String("channel_id", msg.ChannelID))

	c := &cmdContext{b: b, session: session, msg: msg, name: name, args: args}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("command panicked", zap.String("command", cmd.name), zap.Any("panic", r))
			c.replyEmbed(b.errorEmbed("Something went wrong running that command."))
		}
	}()
	cmd.run(ctx, c)
	return true
}

func (c *cmdContext) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

// rest joins the arguments from index i on.
func (c *cmdContext) rest(i int) string {
	if i >= len(c.args) {
		return ""
	}
	return strings.Join(c.args[i:], " ")
}

func (c *cmdContext) reply(content string) *discordgo.Message {
	msg, err := c.session.ChannelMessageSend(c.msg.ChannelID, content)
	if err != nil {
		c.b.logger.Debug("reply failed", zap.String("channel_id", c.msg.ChannelID), zap.Error(err))
	}
	return msg
}

func (c *cmdContext) replyEmbed(embed *discordgo.MessageEmbed) *discordgo.Message {
	msg, err := c.session.ChannelMessageSendEmbed(c.msg.ChannelID, embed)
	if err != nil {
		c.b.logger.Debug("reply failed", zap.String("channel_id", c.msg.ChannelID), zap.Error(err))
	}
	return msg
}

func (c *cmdContext) send(data *discordgo.MessageSend) (*discordgo.Message, error) {
	return c.session.ChannelMessageSendComplex(c.msg.ChannelID, data)
}

func (c *cmdContext) usage(cmd string) {
	if found := c.b.commands[cmd]; found != nil && found.usage != "" {
		c.replyEmbed(c.b.errorEmbed("Usage: `" + c.b.cfg.Prefixes[0] + found.usage + "`"))
		return
	}
	c.replyEmbed(c.b.errorEmbed("Invalid arguments."))
}

func (c *cmdContext) author() (moderation.Member, *discordgo.Member) {
	return c.b.modMember(c.msg.GuildID, c.msg.Author.ID)
}

// target resolves argument i as a guild member.
func (c *cmdContext) target(i int) (moderation.Member, *discordgo.Member, bool) {
	userID, ok := parseUserID(c.arg(i))
	if !ok {
		return moderation.Member{}, nil, false
	}
	view, member := c.b.modMember(c.msg.GuildID, userID)
	if member == nil {
		return view, nil, false
	}
	return view, member, true
}

// targetOrAuthor falls back to the author when argument i is absent.
func (c *cmdContext) targetOrAuthor(i int) (string, bool) {
	if c.arg(i) == "" {
		return c.msg.Author.ID, true
	}
	return parseUserID(c.arg(i))
}

func (c *cmdContext) can(permission int64) bool {
	view, _ := c.author()
	return moderation.HasPermission(view.Permissions, permission)
}

func (b *Bot) cmdHelp(ctx context.Context, c *cmdContext) {
	seen := map[string]bool{}
	var lines []string
	for _, group := range [][]*command{b.petCommands(), b.moderationCommands(), b.ticketCommands(), b.gameCommands(), b.utilityCommands()} {
		for _, cmd := range group {
			if seen[cmd.name] || cmd.help == "" {
				continue
			}
			seen[cmd.name] = true
			usage := cmd.usage
			if usage == "" {
				usage = cmd.name
			}
			lines = append(lines, "`"+b.cfg.Prefixes[0]+usage+"`: "+cmd.help)
		}
	}
	embed := b.brandEmbed("📖 Commands", strings.Join(lines, "\n"))
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "🔥 Game Services"}
	embed.Timestamp = time.Now().Format(time.RFC3339)
	c.replyEmbed(embed)
}
