package chat

import (
	"context"
)

// MessageRef identifies a posted message. Timestamp is the transport's message
// id within the channel (Slack ts).
type MessageRef struct {
	Channel   string
	Timestamp string
}

func (r MessageRef) IsZero() bool {
	return r.Channel == "" && r.Timestamp == ""
}

// MessageEvent is an inbound user message addressed to the bot.
type MessageEvent struct {
	Ref      MessageRef
	ThreadTS string
	UserID   string
	Text     string
}

// ReactionEvent is an inbound emoji reaction on a message.
type ReactionEvent struct {
	Ref      MessageRef
	UserID   string
	Reaction string
}

// Handler receives inbound events. Implementations must tolerate being called
// from the transport's goroutine.
type Handler interface {
	HandleMessage(ctx context.Context, evt MessageEvent)
	HandleReaction(ctx context.Context, evt ReactionEvent)
}

// Gateway is the chat transport surface the core posts through. Reaction
// add/remove is best-effort by contract: implementations log and continue on
// failure, and callers never branch on it.
type Gateway interface {
	PostMessage(ctx context.Context, channel, threadTS, text string) (MessageRef, error)
	UpdateMessage(ctx context.Context, ref MessageRef, text string) error
	AddReaction(ctx context.Context, ref MessageRef, name string)
	RemoveReaction(ctx context.Context, ref MessageRef, name string)
}

// SeedReactions pre-populates a message with the reactions a session accepts so
// the operator can click instead of hunting the picker.
func SeedReactions(ctx context.Context, gw Gateway, ref MessageRef, names ...string) {
	for _, name := range names {
		gw.AddReaction(ctx, ref, name)
	}
}
