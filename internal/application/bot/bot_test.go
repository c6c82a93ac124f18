package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/bridge"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/contextfiles"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/router"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/config"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/security"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/storage"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/tracing"
)

type fakeTerminal struct{ alive map[string]bool }

func newFakeTerminal() *fakeTerminal { return &fakeTerminal{alive: make(map[string]bool)} }

func (f *fakeTerminal) Create(ctx context.Context, handle, workDir string) error {
	f.alive[handle] = true
	return nil
}

func (f *fakeTerminal) IsAlive(ctx context.Context, handle string) bool { return f.alive[handle] }

func (f *fakeTerminal) Recreate(ctx context.Context, handle, workDir string) error {
	f.alive[handle] = true
	return nil
}

func (f *fakeTerminal) SendKeys(ctx context.Context, handle, text string, submit bool) error {
	return nil
}

func (f *fakeTerminal) SendInterrupt(ctx context.Context, handle string) error { return nil }

func (f *fakeTerminal) CapturePane(ctx context.Context, handle string, lines int) (string, error) {
	return "", nil
}

func (f *fakeTerminal) Kill(ctx context.Context, handle string) error { return nil }

// memDedup is an in-memory DedupPort.
type memDedup struct{ seen map[string]bool }

func newMemDedup() *memDedup { return &memDedup{seen: make(map[string]bool)} }

func (m *memDedup) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	if m.seen[eventID] {
		return true, nil
	}
	m.seen[eventID] = true
	return false, nil
}

// recordingReplier captures outbound replies.
type recordingReplier struct {
	topicReplies   []string // "stream/topic: text"
	privateReplies []string // "recipient: text"
}

func (r *recordingReplier) SendToTopic(ctx context.Context, stream, topic, text string) error {
	r.topicReplies = append(r.topicReplies, stream+"/"+topic+": "+text)
	return nil
}

func (r *recordingReplier) SendPrivate(ctx context.Context, recipient, text string) error {
	r.privateReplies = append(r.privateReplies, recipient+": "+text)
	return nil
}

func newTestBot(t *testing.T) (*Bot, *recordingReplier) {
	t.Helper()
	store, err := storage.NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewRecordStore() error = %v", err)
	}
	term := newFakeTerminal()
	logger := logging.Default()
	reg := session.NewRegistry(store, term, "claude-session-", logger)
	br := bridge.New(term, security.NewGate(security.Policy{}), storage.NewHistoryLog(store), reg,
		config.AssistantConfig{Executable: "sh"}, config.TerminalConfig{}, logger, tracing.Default())
	files := contextfiles.NewManager(reg, logger)
	r := router.New(reg, br, files, "/", nil, logger)

	replier := &recordingReplier{}
	chat := config.ChatConfig{
		BotIdentity:   "bot@example.com",
		DefaultTopic:  "general",
		DefaultStream: "general",
		CommandPrefix: "/",
	}
	return New(r, replier, newMemDedup(), chat, logger, tracing.Default()), replier
}

func streamEvent(id, content string) ports.ChatEvent {
	return ports.ChatEvent{
		ID:      id,
		Sender:  "user@example.com",
		Type:    ports.MessageStream,
		Topic:   "deploys",
		Stream:  "dev",
		Content: content,
	}
}

func TestHandleEventRepliesOnStream(t *testing.T) {
	b, replier := newTestBot(t)

	b.HandleEvent(context.Background(), streamEvent("1", "/new-session alpha"))

	if len(replier.topicReplies) != 1 {
		t.Fatalf("topic replies = %v", replier.topicReplies)
	}
	if !strings.HasPrefix(replier.topicReplies[0], "dev/deploys: Created session 001") {
		t.Errorf("reply = %q", replier.topicReplies[0])
	}
}

func TestHandleEventDeduplicates(t *testing.T) {
	b, replier := newTestBot(t)
	ctx := context.Background()

	b.HandleEvent(ctx, streamEvent("41", "/new-session alpha"))
	b.HandleEvent(ctx, streamEvent("41", "/new-session alpha"))

	if len(replier.topicReplies) != 1 {
		t.Errorf("duplicate event produced %d replies", len(replier.topicReplies))
	}
}

func TestHandleEventSkipsOwnMessages(t *testing.T) {
	b, replier := newTestBot(t)

	event := streamEvent("1", "/list-sessions")
	event.Sender = "bot@example.com"
	b.HandleEvent(context.Background(), event)

	if len(replier.topicReplies) != 0 {
		t.Errorf("bot answered its own message: %v", replier.topicReplies)
	}
}

func TestPrivateEventUsesSenderTopic(t *testing.T) {
	b, replier := newTestBot(t)
	ctx := context.Background()

	event := ports.ChatEvent{
		ID:      "7",
		Sender:  "dana@example.com",
		Type:    ports.MessagePrivate,
		Content: "/new-session private-work",
	}
	b.HandleEvent(ctx, event)

	if len(replier.privateReplies) != 1 {
		t.Fatalf("private replies = %v", replier.privateReplies)
	}
	if !strings.HasPrefix(replier.privateReplies[0], "dana@example.com: Created session 001") {
		t.Errorf("reply = %q", replier.privateReplies[0])
	}

	// The session is bound to the per-sender pseudo-topic.
	event2 := event
	event2.ID = "8"
	event2.Content = "/list-sessions"
	b.HandleEvent(ctx, event2)
	if len(replier.privateReplies) != 2 || !strings.Contains(replier.privateReplies[1], "001: private-work") {
		t.Errorf("second reply = %v", replier.privateReplies)
	}
}

func TestResolveTopicDefaults(t *testing.T) {
	b, _ := newTestBot(t)

	tests := []struct {
		name  string
		event ports.ChatEvent
		want  string
	}{
		{"stream with topic", ports.ChatEvent{Type: ports.MessageStream, Topic: "deploys"}, "deploys"},
		{"stream without topic", ports.ChatEvent{Type: ports.MessageStream}, "general"},
		{"private", ports.ChatEvent{Type: ports.MessagePrivate, Sender: "dana@example.com"}, "pm-dana"},
		{"private without domain", ports.ChatEvent{Type: ports.MessagePrivate, Sender: "dana"}, "pm-dana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.resolveTopic(tt.event); got != tt.want {
				t.Errorf("resolveTopic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	b, _ := newTestBot(t)

	events := make(chan ports.ChatEvent)
	close(events)

	if err := b.Run(context.Background(), events); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
