package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gsbot/internal/pets"
	"gsbot/internal/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	petsPerPage   = 15
	petFooter     = "🔥 Game Services"
	weightFooter  = "🔥 Game Services • Pet Weight Calculator"
	kgEmoji       = "<:KG:1414601553167519864>"
	shecklesEmoji = "<:Sheckles:1412881740099223582>"
	serverInvite  = "https://discord.gg/4Jy4R8kMaf"
)

var demandEmoji = map[string]string{
	"High":           "🔥",
	"Medium":         "📈",
	"Low":            "📉",
	"Extremely High": "💎",
	"Terrible":       "💀",
}

func (b *Bot) petCommands() []*command {
	return []*command{
		{name: "petvalue", aliases: []string{"v", "value", "val"}, usage: "petvalue <name>", help: "Look up a pet's value", run: b.cmdPetValue},
		{name: "petlist", aliases: []string{"pets", "list"}, usage: "petlist [page]", help: "List known pets", run: b.cmdPetList},
		{name: "petweight", usage: "petweight <age> <weight> [target age]", help: "Predict a pet's weight", run: b.cmdPetWeight},
	}
}

func orAdding(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Adding"
	}
	return value
}

// petValueEmbed renders a lookup. ok is false when nothing matched.
func (b *Bot) petValueEmbed(query string) (*discordgo.MessageEmbed, bool) {
	match, candidates, ok := b.pets.Lookup(query)
	if !ok {
		embed := b.brandEmbed("", emojiWrong+"  Pet  **"+query+"**  not found. Names are exactly how they are in-game, \ndouble check!")
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Game Services Values"}
		embed.Footer = &discordgo.MessageEmbedFooter{Text: petFooter}
		return embed, false
	}

	record := match.Record
	embed := b.brandEmbed(record.Name, "",
		field("<:ExclamationMark:1412880724809482260>  __Pets are valued based on Mimic__  <:MimicOctopus:1412404639164403752>", "> __1KG Mimic = 100 Value__", false),
		field("Value", record.Value+" "+shecklesEmoji, true),
		field("Demand", record.Demand, true),
		field("Trend", orAdding(record.Trend), true),
		field("Tier", orAdding(record.Tier), true),
		field("Obtained By", orAdding(record.ObtainedBy), true),
	)
	embed.URL = serverInvite
	embed.Author = &discordgo.MessageEmbedAuthor{Name: "Game Services Values"}
	if url := utils.CleanImageURL(record.ImageURL); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}
	if len(candidates) > 1 {
		names := make([]string, 0, len(candidates)-1)
		for _, other := range candidates[1:] {
			names = append(names, fmt.Sprintf("%s (%d%%)", other.Record.Name, other.Score))
		}
		embed.Fields = append(embed.Fields, field("🔍 Did you mean", strings.Join(names, "\n"), false))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%s • Info: (%d%% match)", petFooter, match.Score)}
	return embed, true
}

func petLinkButtons() []discordgo.MessageComponent {
	return buttons(
		discordgo.Button{Label: "Suggest Values", Style: discordgo.LinkButton, URL: "https://discord.com/channels/1370086525210984458/1391747223884136590"},
		discordgo.Button{Label: "Values Explained", Style: discordgo.LinkButton, URL: "https://discord.com/channels/1370086525210984458/1370101881308713193/1406781226018406450"},
	)
}

func (b *Bot) cmdPetValue(ctx context.Context, c *cmdContext) {
	query := c.rest(0)
	if query == "" {
		c.usage(c.name)
		return
	}
	embed, ok := b.petValueEmbed(query)
	if !ok {
		c.replyEmbed(embed)
		_ = c.session.MessageReactionAdd(c.msg.ChannelID, c.msg.ID, "GsWrong:1414561861352816753")
		return
	}
	if _, err := c.send(&discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: petLinkButtons(),
		Reference:  c.msg.Reference(),
	}); err != nil {
		c.replyEmbed(embed)
	}
	_ = c.session.MessageReactionAdd(c.msg.ChannelID, c.msg.ID, answerEmoji)
}

func (b *Bot) cmdPetList(ctx context.Context, c *cmdContext) {
	entries := b.pets.Entries()
	if len(entries) == 0 {
		c.reply(emojiWrong + "   No pets found in database")
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Record.Name) < strings.ToLower(entries[j].Record.Name)
	})

	pages := (len(entries) + petsPerPage - 1) / petsPerPage
	page := 1
	if c.arg(0) != "" {
		n, err := strconv.Atoi(c.arg(0))
		if err != nil || n < 1 || n > pages {
			c.reply(fmt.Sprintf("%s   Invalid page number. Pages available: 1-%d", emojiWrong, pages))
			return
		}
		page = n
	}
	start := (page - 1) * petsPerPage
	end := min(start+petsPerPage, len(entries))

	var list strings.Builder
	for _, entry := range entries[start:end] {
		icon, ok := demandEmoji[entry.Record.Demand]
		if !ok {
			icon = "📊"
		}
		fmt.Fprintf(&list, "• **%s** - %s | %s %s\n", entry.Record.Name, entry.Record.Value, entry.Record.Demand, icon)
	}

	prefix := b.cfg.Prefixes[0]
	embed := b.brandEmbed("🐾 Pet Database", "",
		field("📊 Total Pets", fmt.Sprintf("**%d** pets", len(entries)), true),
		field("📄 Page", fmt.Sprintf("**%d/%d**", page, pages), true),
		field("🐾 Pets", list.String(), false),
	)
	if page < pages {
		embed.Fields = append(embed.Fields, field("💡 Navigation",
			fmt.Sprintf("Use `%spetlist %d` for next page ➡️\nUse `%sv <name>` to get detailed info 🔍", prefix, page+1, prefix), false))
	} else {
		embed.Fields = append(embed.Fields, field("💡 Usage", "Use `"+prefix+"v <name>` to get detailed pet info 🔍", false))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "🔥 Game Services • AUTO-SCAN ALL MESSAGES"}
	c.replyEmbed(embed)
}

// petWeightEmbed validates the inputs and renders the prediction. A non-empty
// problem string is the user-facing rejection.
func (b *Bot) petWeightEmbed(age int, weight float64, target int) (*discordgo.MessageEmbed, string) {
	switch {
	case age < pets.MinAge || age > pets.MaxAge:
		return nil, "Pet Age must be between 1 and 100"
	case weight <= 0:
		return nil, "Pet Weight must be greater than 0"
	case target != 0 && (target < pets.MinAge || target > pets.MaxAge):
		return nil, "Pet Target age must be between 1 and 100"
	}

	weightText := strconv.FormatFloat(weight, 'f', -1, 64)
	embed := b.brandEmbed("Petweight Prediction", "")
	embed.URL = serverInvite
	embed.Footer = &discordgo.MessageEmbedFooter{Text: weightFooter}

	if target != 0 {
		predictions, err := pets.Predict(age, weight, target)
		if err != nil {
			return nil, "Invalid Pet age provided"
		}
		embed.Fields = []*discordgo.MessageEmbedField{
			field("Current Info:", fmt.Sprintf("**Age:** %d \n**Weight:** %s %s", age, weightText, kgEmoji), false),
			field(fmt.Sprintf("Predicted Weight at Age %d", target), fmt.Sprintf("**%.2f %s**", predictions[target], kgEmoji), false),
		}
		return embed, ""
	}

	ages := pets.KeyAges(age)
	predictions, err := pets.Predict(age, weight, ages...)
	if err != nil {
		return nil, "Invalid age provided"
	}
	var lines strings.Builder
	for _, a := range ages {
		marker := ""
		if a == age {
			marker = " ← **Current**"
		}
		fmt.Fprintf(&lines, "**Age %d:** %.2f kg%s\n", a, predictions[a], marker)
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		field("Current Info:", fmt.Sprintf("**Age:** %d 📅\n**Weight:** %s %s", age, weightText, kgEmoji), false),
		field("Weight Predictions:", lines.String(), false),
		field("Tip:", "Use `"+b.cfg.Prefixes[0]+"petweight <age> <weight> <target_age>` to predict weight at a specific age", false),
	}
	return embed, ""
}

func (b *Bot) cmdPetWeight(ctx context.Context, c *cmdContext) {
	if len(c.args) < 2 {
		c.usage(c.name)
		return
	}
	age, errAge := strconv.Atoi(c.arg(0))
	weight, errWeight := strconv.ParseFloat(c.arg(1), 64)
	target := 0
	var errTarget error
	if c.arg(2) != "" {
		target, errTarget = strconv.Atoi(c.arg(2))
	}
	if errAge != nil || errWeight != nil || errTarget != nil {
		c.reply(emojiWrong + "   Please provide valid numbers for age and weight")
		return
	}

	embed, problem := b.petWeightEmbed(age, weight, target)
	if problem != "" {
		c.reply(emojiWrong + "   " + problem)
		return
	}
	_, _ = c.send(&discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}, Reference: c.msg.Reference()})
	_ = c.session.MessageReactionAdd(c.msg.ChannelID, c.msg.ID, answerEmoji)
}
