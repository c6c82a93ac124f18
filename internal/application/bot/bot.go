// Package bot runs the chat event loop: deduplicate, classify, route,
// reply. It is transport-agnostic and consumes events from any source
// that can produce ports.ChatEvent values.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/router"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/config"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/tracing"
)

// Bot consumes chat events and drives the router. One event is handled
// at a time; per-session serialization lives below in the registry's
// command locks.
type Bot struct {
	router  *router.Router
	replier ports.Replier
	dedup   ports.DedupPort
	chat    config.ChatConfig
	logger  *logging.Logger
	tracer  *tracing.Tracer
}

// New creates a bot.
func New(r *router.Router, replier ports.Replier, dedup ports.DedupPort, chat config.ChatConfig, logger *logging.Logger, tracer *tracing.Tracer) *Bot {
	return &Bot{
		router:  r,
		replier: replier,
		dedup:   dedup,
		chat:    chat,
		logger:  logger,
		tracer:  tracer,
	}
}

// Run consumes events until the channel closes or the context is
// cancelled.
func (b *Bot) Run(ctx context.Context, events <-chan ports.ChatEvent) error {
	b.logger.InfoContext(ctx, "bot event loop started", "identity", b.chat.BotIdentity)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				b.logger.InfoContext(ctx, "event channel closed, stopping")
				return nil
			}
			b.HandleEvent(ctx, event)
		}
	}
}

// HandleEvent processes a single inbound event. It never panics outward
// and never returns an error to the transport; failures become reply
// text or log lines.
func (b *Bot) HandleEvent(ctx context.Context, event ports.ChatEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "panic while handling event",
				"event_id", event.ID, "panic", r)
		}
	}()

	ctx = logging.WithCorrelationID(ctx, uuid.NewString())
	ctx, span := b.tracer.StartEventSpan(ctx, event.ID, event.Topic)
	defer span.End()

	// The bot's own messages echo back through the event stream.
	if event.Sender == b.chat.BotIdentity {
		return
	}

	seen, err := b.dedup.MarkSeen(ctx, event.ID)
	if err != nil {
		b.logger.WarnContext(ctx, "dedup check failed, processing anyway",
			"event_id", event.ID, "error", err)
	}
	if seen {
		b.logger.DebugContext(ctx, "duplicate event skipped", "event_id", event.ID)
		return
	}

	topic := b.resolveTopic(event)
	ctx = logging.WithTopic(ctx, topic)
	logging.LogEventReceived(ctx, b.logger, event.Sender, topic)

	reply := b.router.Handle(ctx, topic, event.Content)
	if reply == "" {
		return
	}

	b.sendReply(ctx, event, reply)
}

// resolveTopic derives the routing topic. Private messages get a
// per-sender pseudo-topic so each user keeps a private default session.
func (b *Bot) resolveTopic(event ports.ChatEvent) string {
	if event.Type == ports.MessagePrivate {
		local := event.Sender
		if at := strings.Index(local, "@"); at >= 0 {
			local = local[:at]
		}
		return fmt.Sprintf("pm-%s", local)
	}
	if event.Topic == "" {
		return b.chat.DefaultTopic
	}
	return event.Topic
}

// sendReply mirrors the inbound event: private events answer the sender,
// stream events answer the same stream and topic.
func (b *Bot) sendReply(ctx context.Context, event ports.ChatEvent, reply string) {
	var err error
	if event.Type == ports.MessagePrivate {
		err = b.replier.SendPrivate(ctx, event.Sender, reply)
	} else {
		stream := event.Stream
		if stream == "" {
			stream = b.chat.DefaultStream
		}
		topic := event.Topic
		if topic == "" {
			topic = b.chat.DefaultTopic
		}
		err = b.replier.SendToTopic(ctx, stream, topic, reply)
	}

	if err != nil {
		b.logger.ErrorContext(ctx, "could not send reply",
			"event_id", event.ID, "error", err)
		return
	}
	logging.LogReplySent(ctx, b.logger, event.Topic, len(reply))
}
