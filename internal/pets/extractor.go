package pets

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gsbot/internal/utils"

	"go.uber.org/zap"
)

// Templates are tried in order, most specific first.
var Templates = []*regexp.Regexp{
	regexp.MustCompile(`(?im)\(([^)]+)\)\s*-\s*([^┆\n]+?)┆\s*Demand:\s*([^┆\n]+?)\s*┆\s*Image:\s*(https?://[^\s\n]+)`),
	regexp.MustCompile(`(?im)\(([^)]+)\)\s*-\s*([^┆\n]+?)┆\s*Demand:\s*([^┆\n]+)`),
	regexp.MustCompile(`(?im)([A-Za-z\s]+?)\s*-\s*([^┆\n]+?)┆\s*Demand:\s*([^┆\n]+?)┆\s*Image:\s*(https?://[^\s\n]+)`),
	regexp.MustCompile(`(?im)([A-Za-z\s]+?)\s*-\s*([^┆\n]+?)┆\s*Demand:\s*([^┆\n]+)`),
}

// Denylist marks messages from other game bots.
var Denylist = []string{
	"wordbomb", "trivia", "akinator", "pokemon", "countryball", "higher lower",
	"word chain", "rhyme time", "scramble", "hangman", "twenty questions",
	"truth or dare", "never have i ever", "would you rather", "counting",
	"rock paper scissors", "tic tac toe", "connect 4", "chess", "checkers",
}

// RequiredKeywords must appear at least once for a message to be scanned.
var RequiredKeywords = []string{
	"value", "demand", "pet", "🐾", "🪙", "high", "medium", "low", "extremely", "image:", "┆",
}

// JunkNames are leftovers of copy-pasted image links.
var JunkNames = []string{"lossless", "losless", "loss", "less"}

const MinNameLength = 2

var (
	losslessPrefix = regexp.MustCompile(`(?i)^lossless\s*`)
	nonWord        = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s]`)
)

type Extraction struct {
	Name     string
	Value    string
	Demand   string
	ImageURL string
}

// Message is the part of a chat message the extractor reads. Images lists
// image attachments and embed image or thumbnail URLs.
type Message struct {
	ID        string
	Content   string
	CreatedAt time.Time
	Images    []string
}

type Extractor struct {
	store  *Store
	logger *zap.Logger
}

func NewExtractor(store *Store, logger *zap.Logger) *Extractor {
	return &Extractor{store: store, logger: logger}
}

// Ingest extracts pets from msg and persists them before returning.
func (e *Extractor) Ingest(msg Message) ([]Extraction, error) {
	found := Extract(msg.Content, msg.Images)
	if len(found) == 0 {
		return nil, nil
	}
	at := msg.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	if err := e.store.Apply(found, msg.ID, at.UTC()); err != nil {
		return found, err
	}
	for _, item := range found {
		e.logger.Info("pet updated",
			zap.String("name", item.Name),
			zap.String("value", item.Value),
			zap.String("demand", item.Demand),
			zap.Bool("image", item.ImageURL != ""),
		)
	}
	return found, nil
}

// Extract runs the templates over content. A key is reported once per
// message; the first template to produce it wins.
func Extract(content string, images []string) []Extraction {
	lower := strings.ToLower(content)
	if containsAny(lower, Denylist) || !containsAny(lower, RequiredKeywords) {
		return nil
	}

	var found []Extraction
	seen := make(map[string]struct{})
	for _, template := range Templates {
		for _, match := range template.FindAllStringSubmatch(content, -1) {
			name := SanitizeName(match[1])
			if !validName(name) {
				continue
			}
			key := NormalizeKey(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			item := Extraction{
				Name:   name,
				Value:  strings.TrimSpace(match[2]),
				Demand: strings.TrimSpace(match[3]),
			}
			if len(match) > 4 && match[4] != "" {
				item.ImageURL = utils.CleanImageURL(strings.TrimSpace(match[4]))
			}
			found = append(found, item)
		}
	}

	if len(found) == 1 && found[0].ImageURL == "" && len(images) == 1 {
		found[0].ImageURL = images[0]
	}
	return found
}

func SanitizeName(raw string) string {
	name := losslessPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	name = strings.TrimSpace(name)
	return strings.TrimSpace(nonWord.ReplaceAllString(name, ""))
}

func validName(name string) bool {
	if utf8.RuneCountInString(name) < MinNameLength {
		return false
	}
	lower := strings.ToLower(name)
	for _, junk := range JunkNames {
		if lower == junk {
			return false
		}
	}
	return true
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
