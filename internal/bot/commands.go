package bot

import "github.com/bwmarrin/discordgo"

func floatPtr(v float64) *float64 { return &v }

func slashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "petvalue",
			Description: "Look up a pet's value and demand",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Pet name",
					Required:    true,
				},
			},
		},
		{
			Name:        "petweight",
			Description: "Predict a pet's weight at other ages",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "age",
					Description: "Current age (1-100)",
					Required:    true,
					MinValue:    floatPtr(1),
					MaxValue:    100,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "weight",
					Description: "Current weight in kg",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "target",
					Description: "Age to predict (1-100)",
					MinValue:    floatPtr(1),
					MaxValue:    100,
				},
			},
		},
		{
			Name:        "status",
			Description: "Show bot status",
		},
	}
}

// registerCommands syncs the global slash commands: edits known ones,
// creates new ones and deletes any that are no longer declared.
func (b *Bot) registerCommands() error {
	commands := slashCommands()
	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
