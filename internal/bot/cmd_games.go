package bot

import (
	"context"
	"errors"

	"gsbot/internal/games"

	"go.uber.org/zap"
)

func (b *Bot) gameCommands() []*command {
	return []*command{
		{name: "countryguess", aliases: []string{"country", "flag", "guess"}, help: "Guess countries from their flags",
			run: b.gameStarter(games.KindCountry)},
		{name: "mathquestions", aliases: []string{"math", "mathgame", "mathquiz"}, help: "Solve quick math questions",
			run: b.gameStarter(games.KindMath)},
		{name: "groupmath", aliases: []string{"gmath", "groupmathgame", "mgame"}, help: "Group math game",
			run: b.gameStarter(games.KindGroupMath)},
		{name: "groupcountriesquiz", aliases: []string{"gcountry", "groupcountry", "gcountries", "countrygame", "countries", "flags"}, help: "Group countries quiz",
			run: b.gameStarter(games.KindGroupCountry)},
		{name: "groupscramble", aliases: []string{"gscramble", "groupunscramble", "gunscramble", "scramble", "unscramble", "wordgame"}, help: "Group word scramble",
			run: b.gameStarter(games.KindGroupScramble)},
		{name: "groupwordbomb", aliases: []string{"gwordbomb", "groupbomb", "gbomb", "wordbomb", "bomb"}, help: "Group word bomb",
			run: b.gameStarter(games.KindGroupWordBomb)},
		{name: "countryquiz", aliases: []string{"cquiz"}, run: func(ctx context.Context, c *cmdContext) {
			p := b.cfg.Prefixes[0]
			c.reply("🌍 Use `" + p + "groupcountriesquiz` or `" + p + "countryguess` to play geography games!")
		}},
	}
}

func (b *Bot) gameStarter(kind games.Kind) func(context.Context, *cmdContext) {
	return func(ctx context.Context, c *cmdContext) {
		channelID := c.msg.ChannelID
		_, err := b.games.Start(b.ctx, kind, channelID, gameTable{b: b}, func() {
			b.logger.Info("game finished", zap.String("game", string(kind)), zap.String("channel_id", channelID))
		})
		switch {
		case errors.Is(err, games.ErrAlreadyActive):
			c.reply("🎮 A game is already active in this channel! Wait for it to finish.")
		case err != nil:
			b.logger.Error("game start failed", zap.String("game", string(kind)), zap.Error(err))
			c.replyEmbed(b.errorEmbed("Could not start the game."))
		default:
			b.logger.Info("game started", zap.String("game", string(kind)), zap.String("channel_id", channelID), zap.String("user_id", c.msg.Author.ID))
		}
	}
}
