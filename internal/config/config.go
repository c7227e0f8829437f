package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken   string         `yaml:"discord_token"`
	DatabaseURL    string         `yaml:"database_url"`
	DatabasePath   string         `yaml:"database_path"`
	LogLevel       string         `yaml:"log_level"`
	Prefixes       []string       `yaml:"prefixes"`
	PetDataPath    string         `yaml:"pet_data_path"`
	TicketDataPath string         `yaml:"ticket_data_path"`
	Web            WebConfig      `yaml:"web"`
	Channels       ChannelConfig  `yaml:"channels"`
	Roles          RoleConfig     `yaml:"roles"`
	Tickets        TicketConfig   `yaml:"tickets"`
	Moderation     ModConfig      `yaml:"moderation"`
	Automod        AutomodConfig  `yaml:"automod"`
	Games          GameConfig     `yaml:"games"`
	ChatGuide      ChatGuide      `yaml:"chat_guide"`
	Notifications  NotifyConfig   `yaml:"notifications"`
	Reactions      ReactionConfig `yaml:"reactions"`
}

type WebConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	BotName     string `yaml:"bot_name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	WebhookURL  string `yaml:"webhook_url"`
}

type ChannelConfig struct {
	WFL           string   `yaml:"wfl"`
	PetValues     []string `yaml:"pet_values"`
	Report        string   `yaml:"report"`
	AutomodReport string   `yaml:"automod_report"`
	ChatGuide     string   `yaml:"chat_guide"`
	ModLog        string   `yaml:"mod_log"`
	TicketLog     string   `yaml:"ticket_log"`
	PetNotify     string   `yaml:"pet_notify"`
}

type RoleConfig struct {
	Staff   string `yaml:"staff"`
	Absence string `yaml:"absence"`
}

type TicketConfig struct {
	BuyingCategory  string `yaml:"buying_category"`
	SupportCategory string `yaml:"support_category"`
	PanelUserID     string `yaml:"panel_user_id"`
	TranscriptLimit int    `yaml:"transcript_limit"`
	Greeting        string `yaml:"greeting"`
}

type ModConfig struct {
	ConfirmTimeoutSeconds int    `yaml:"confirm_timeout_seconds"`
	DefaultMinutes        int    `yaml:"default_minutes"`
	MaxTimeoutDays        int    `yaml:"max_timeout_days"`
	AppealURL             string `yaml:"appeal_url"`
	ConnectAttempts       int    `yaml:"connect_attempts"`
}

type AutomodConfig struct {
	Enabled        bool     `yaml:"enabled"`
	TimeoutMinutes int      `yaml:"timeout_minutes"`
	BannedWords    []string `yaml:"banned_words"`
}

type GameConfig struct {
	JoinSeconds      int `yaml:"join_seconds"`
	Rounds           int `yaml:"rounds"`
	RoundSeconds     int `yaml:"round_seconds"`
	WordBombSeconds  int `yaml:"wordbomb_seconds"`
	SoloRounds       int `yaml:"solo_rounds"`
	SoloRoundSeconds int `yaml:"solo_round_seconds"`
	PauseSeconds     int `yaml:"pause_seconds"`
}

type ChatGuide struct {
	Interval        int    `yaml:"interval"`
	CooldownSeconds int    `yaml:"cooldown_seconds"`
	Message         string `yaml:"message"`
}

type ReactionConfig struct {
	WFLEmojis       []string `yaml:"wfl_emojis"`
	CooldownSeconds int      `yaml:"cooldown_seconds"`
}

type NotifyConfig struct {
	DMEnabled   bool        `yaml:"dm_enabled"`
	EmbedColors EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Brand   int `yaml:"brand"`
	Neutral int `yaml:"neutral"`
	Error   int `yaml:"error"`
	Muted   int `yaml:"muted"`
}

var defaultBannedWords = []string{
	"negr", "gay", "epstiened", "fatass", "dildo", "vagina", "@everyone", "nudes", "epstein", "diddy",
	"fetish", "bitch ass", "bitchass", "doxx", "chong", "nigga", "anal", "asshole", "boob", "didy",
	"femboy", "horny", "whore", "diddle", "slut", "sybau", "lgbtq", "drug", "penis",
	"goon", "dick", "pussy", "twerk", "porn", "niger", "fag", "lgbt", "slag", "blackie",
	"prostitute", "nigger", "retard", "diddled", "niggas", "dih", "feet", "schlong",
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:   "data/gsbot.db",
		LogLevel:       "info",
		Prefixes:       []string{"gs.", "gs "},
		PetDataPath:    "pet_values.json",
		TicketDataPath: "tickets.json",
		Web: WebConfig{
			Enabled:     true,
			Addr:        ":5000",
			BotName:     "Game Services",
			Version:     "1.0.0",
			Environment: "production",
		},
		Channels: ChannelConfig{
			WFL: "1401169397850308708",
			PetValues: []string{
				"1406716276373590117",
				"1406716328697659583",
				"1406716530326241451",
				"1406716596302385323",
				"1406716645921263787",
				"1406716717870223360",
				"1406716764368404520",
			},
			Report:        "1403179951431094404",
			AutomodReport: "1405317544507609180",
			ChatGuide:     "1370086532433838102",
			ModLog:        "1414528231834386545",
			TicketLog:     "1414528231834386545",
			PetNotify:     "1414528231834386545",
		},
		Roles: RoleConfig{
			Staff:   "1394686620300476476",
			Absence: "1374481044916408340",
		},
		Tickets: TicketConfig{
			BuyingCategory:  "1372934736330096780",
			SupportCategory: "1372934887186890903",
			PanelUserID:     "721063236371480717",
			TranscriptLimit: 3000,
			Greeting:        "**Hello, please be patient until staff respond to your ticket, meanwhile state why you made it.**",
		},
		Moderation: ModConfig{
			ConfirmTimeoutSeconds: 300,
			DefaultMinutes:        10,
			MaxTimeoutDays:        28,
			ConnectAttempts:       3,
		},
		Automod: AutomodConfig{
			Enabled:        true,
			TimeoutMinutes: 10,
			BannedWords:    append([]string(nil), defaultBannedWords...),
		},
		Games: GameConfig{
			JoinSeconds:      20,
			Rounds:           10,
			RoundSeconds:     20,
			WordBombSeconds:  25,
			SoloRounds:       5,
			SoloRoundSeconds: 15,
			PauseSeconds:     2,
		},
		ChatGuide: ChatGuide{
			Interval:        100,
			CooldownSeconds: 300,
			Message:         "**Make sure to check out the Chat Guide & you are following the guidelines whilst chatting!**",
		},
		Reactions: ReactionConfig{
			WFLEmojis:       []string{"W1", "F1", "L1"},
			CooldownSeconds: 1,
		},
		Notifications: NotifyConfig{
			DMEnabled: true,
			EmbedColors: EmbedColors{
				Brand:   0xFFC916,
				Neutral: 0x000000,
				Error:   0xEF4444,
				Muted:   0x808080,
			},
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	normalize(&cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Prefixes = envList("COMMAND_PREFIXES", cfg.Prefixes)
	cfg.PetDataPath = envString("PET_DATA_PATH", cfg.PetDataPath)
	cfg.TicketDataPath = envString("TICKET_DATA_PATH", cfg.TicketDataPath)
	cfg.Web.Enabled = envBool("WEB_ENABLED", cfg.Web.Enabled)
	cfg.Web.Addr = envString("WEB_ADDR", cfg.Web.Addr)
	if port := os.Getenv("PORT"); port != "" {
		cfg.Web.Addr = ":" + port
	}
	cfg.Web.Environment = envString("ENVIRONMENT", cfg.Web.Environment)
	cfg.Web.WebhookURL = envString("PET_NOTIFY_WEBHOOK_URL", cfg.Web.WebhookURL)
	cfg.Channels.WFL = envString("WFL_CHANNEL_ID", cfg.Channels.WFL)
	cfg.Channels.PetValues = envList("PET_VALUES_CHANNEL_IDS", cfg.Channels.PetValues)
	cfg.Channels.Report = envString("REPORT_CHANNEL_ID", cfg.Channels.Report)
	cfg.Channels.AutomodReport = envString("AUTOMOD_REPORT_CHANNEL_ID", cfg.Channels.AutomodReport)
	cfg.Channels.ChatGuide = envString("CHAT_GUIDE_CHANNEL_ID", cfg.Channels.ChatGuide)
	cfg.Channels.ModLog = envString("MOD_LOG_CHANNEL_ID", cfg.Channels.ModLog)
	cfg.Channels.TicketLog = envString("TICKET_LOG_CHANNEL_ID", cfg.Channels.TicketLog)
	cfg.Channels.PetNotify = envString("PET_NOTIFY_CHANNEL_ID", cfg.Channels.PetNotify)
	cfg.Roles.Staff = envString("STAFF_ROLE_ID", cfg.Roles.Staff)
	cfg.Roles.Absence = envString("ABSENCE_ROLE_ID", cfg.Roles.Absence)
	cfg.Tickets.BuyingCategory = envString("TICKET_BUYING_CATEGORY_ID", cfg.Tickets.BuyingCategory)
	cfg.Tickets.SupportCategory = envString("TICKET_SUPPORT_CATEGORY_ID", cfg.Tickets.SupportCategory)
	cfg.Tickets.PanelUserID = envString("TICKET_PANEL_USER_ID", cfg.Tickets.PanelUserID)
	cfg.Moderation.ConfirmTimeoutSeconds = envInt("CONFIRM_TIMEOUT_SECONDS", cfg.Moderation.ConfirmTimeoutSeconds)
	cfg.Moderation.AppealURL = envString("APPEAL_URL", cfg.Moderation.AppealURL)
	cfg.Automod.Enabled = envBool("AUTOMOD_ENABLED", cfg.Automod.Enabled)
	cfg.Automod.TimeoutMinutes = envInt("AUTOMOD_TIMEOUT_MINUTES", cfg.Automod.TimeoutMinutes)
	cfg.Automod.BannedWords = envList("AUTOMOD_BANNED_WORDS", cfg.Automod.BannedWords)
	cfg.Notifications.DMEnabled = envBool("DM_ENABLED", cfg.Notifications.DMEnabled)
	cfg.Notifications.EmbedColors.Brand = envInt("EMBED_COLOR_BRAND", cfg.Notifications.EmbedColors.Brand)
	cfg.Notifications.EmbedColors.Error = envInt("EMBED_COLOR_ERROR", cfg.Notifications.EmbedColors.Error)
}

func normalize(cfg *Config) {
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = []string{"gs."}
	}
	if cfg.Moderation.ConfirmTimeoutSeconds <= 0 {
		cfg.Moderation.ConfirmTimeoutSeconds = 300
	}
	if cfg.Moderation.DefaultMinutes <= 0 {
		cfg.Moderation.DefaultMinutes = 10
	}
	if cfg.Moderation.MaxTimeoutDays <= 0 || cfg.Moderation.MaxTimeoutDays > 28 {
		cfg.Moderation.MaxTimeoutDays = 28
	}
	if cfg.Moderation.ConnectAttempts <= 0 {
		cfg.Moderation.ConnectAttempts = 3
	}
	if cfg.Tickets.TranscriptLimit <= 0 {
		cfg.Tickets.TranscriptLimit = 3000
	}
	if cfg.Automod.TimeoutMinutes <= 0 {
		cfg.Automod.TimeoutMinutes = 10
	}
	if cfg.ChatGuide.Interval <= 0 {
		cfg.ChatGuide.Interval = 100
	}
	if cfg.Reactions.CooldownSeconds <= 0 {
		cfg.Reactions.CooldownSeconds = 1
	}
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

// envList splits a comma separated variable, dropping empty items.
func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
