package models

// Tier selects which backend configuration a generation request is routed to.
type Tier int

const (
	// TierStandard is the default model, available to everyone.
	TierStandard Tier = iota
	// TierPrivileged is the higher-cost model, restricted to the operator.
	TierPrivileged
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierPrivileged:
		return "privileged"
	default:
		return "unknown"
	}
}

// Identity is the subject of throttling and access checks for one update.
// It lives only for the duration of the pipeline pass.
type Identity struct {
	UserID   int64
	Username string
}

// ChatKind distinguishes private conversations from group chats.
type ChatKind int

const (
	ChatPrivate ChatKind = iota
	ChatGroup
)

// TriggerReason records why the pipeline decided to run for a message.
type TriggerReason int

const (
	TriggerNone TriggerReason = iota
	TriggerPrivateChat
	TriggerMention
	TriggerReplyToBot
)

func (r TriggerReason) String() string {
	switch r {
	case TriggerPrivateChat:
		return "private_chat"
	case TriggerMention:
		return "mention"
	case TriggerReplyToBot:
		return "reply_to_bot"
	default:
		return "none"
	}
}

// Turn is the ephemeral value one pipeline pass operates on.
// It is not retained once the response has been delivered.
type Turn struct {
	Text   string
	Chat   ChatKind
	Reason TriggerReason
}
