package moderation

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

type Action string

const (
	ActionWarn     Action = "warn"
	ActionMute     Action = "mute"
	ActionMuteWarn Action = "mutewarn"
	ActionKick     Action = "kick"
	ActionBan      Action = "ban"
	ActionReport   Action = "report"
)

func ParseAction(value string) (Action, bool) {
	switch action := Action(strings.ToLower(value)); action {
	case ActionWarn, ActionMute, ActionMuteWarn, ActionKick, ActionBan:
		return action, true
	}
	return "", false
}

// Member is the slice of guild state the guards need. Rank is the position
// of the member's highest role.
type Member struct {
	ID          string
	Permissions int64
	Rank        int
	IsOwner     bool
}

type GuardError struct {
	Reason string
	Hint   string
}

func (e *GuardError) Error() string {
	if e.Hint == "" {
		return e.Reason
	}
	return e.Reason + "\n\n**How to fix:** " + e.Hint
}

var permissionNames = map[int64]string{
	discordgo.PermissionSendMessages:    "Send Messages",
	discordgo.PermissionModerateMembers: "Moderate Members",
	discordgo.PermissionKickMembers:     "Kick Members",
	discordgo.PermissionBanMembers:      "Ban Members",
	discordgo.PermissionManageMessages:  "Manage Messages",
	discordgo.PermissionAdministrator:   "Administrator",
}

func PermissionName(permission int64) string {
	if name, ok := permissionNames[permission]; ok {
		return name
	}
	return fmt.Sprintf("permission %d", permission)
}

// HasPermission treats Administrator as holding every permission.
func HasPermission(permissions, need int64) bool {
	if permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return permissions&need == need
}

func ActorPermission(action Action) int64 {
	switch action {
	case ActionMute, ActionMuteWarn:
		return discordgo.PermissionModerateMembers
	case ActionBan:
		return discordgo.PermissionBanMembers
	default:
		return discordgo.PermissionKickMembers
	}
}

func BotPermission(action Action) int64 {
	switch action {
	case ActionMute, ActionMuteWarn:
		return discordgo.PermissionModerateMembers
	case ActionKick:
		return discordgo.PermissionKickMembers
	case ActionBan:
		return discordgo.PermissionBanMembers
	default:
		return discordgo.PermissionSendMessages
	}
}

// CheckActor enforces the moderator's permission and strict rank over the
// target. The guild owner is exempt from the rank check.
func CheckActor(action Action, actor, target Member) error {
	need := ActorPermission(action)
	if !actor.IsOwner && !HasPermission(actor.Permissions, need) {
		return &GuardError{
			Reason: fmt.Sprintf("You don't have permission to %s users.", action),
			Hint:   fmt.Sprintf("you need the **%s** permission.", PermissionName(need)),
		}
	}
	if actor.ID == target.ID {
		return &GuardError{Reason: fmt.Sprintf("You cannot %s yourself.", action)}
	}
	if target.IsOwner {
		return &GuardError{Reason: fmt.Sprintf("You cannot %s the server owner.", action)}
	}
	if !actor.IsOwner && target.Rank >= actor.Rank {
		return &GuardError{Reason: fmt.Sprintf("You cannot %s users with equal or higher roles.", action)}
	}
	return nil
}

// CheckBot enforces the bot's capability and strict rank over the target.
func CheckBot(action Action, bot, target Member) error {
	need := BotPermission(action)
	if !HasPermission(bot.Permissions, need) {
		return &GuardError{
			Reason: fmt.Sprintf("I'm missing these permissions: **%s**", PermissionName(need)),
			Hint:   "go to Server Settings → Roles, find my role and enable the missing permission.",
		}
	}
	if target.IsOwner || target.Rank >= bot.Rank {
		return &GuardError{
			Reason: fmt.Sprintf("I cannot %s <@%s> because their role is equal to or higher than mine.", action, target.ID),
			Hint:   "move my role above theirs in Server Settings → Roles.",
		}
	}
	return nil
}
