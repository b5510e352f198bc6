package botkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID+":"+content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) UserChannelPermissions(string, string, ...discordgo.RequestOption) (int64, error) {
	return 0, nil
}

func (f *fakeSession) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeEvents struct {
	mu      sync.Mutex
	handler func(*discordgo.Session, *discordgo.MessageCreate)
	removed bool
}

func (f *fakeEvents) AddHandler(h interface{}) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h.(func(*discordgo.Session, *discordgo.MessageCreate))
	return func() { f.removed = true }
}

func (f *fakeEvents) registered() func(*discordgo.Session, *discordgo.MessageCreate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

func message(channelID, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: "u1"},
	}}
}

func TestParseCommand(t *testing.T) {
	b := New(&fakeSession{}, time.Second, "~", "hey bot", "hey bot,")

	tests := []struct {
		content  string
		wantCmd  string
		wantArgs []string
		wantOK   bool
	}{
		{content: "~help", wantCmd: "help", wantArgs: []string{}, wantOK: true},
		{content: "  ~Help fetchnow ", wantCmd: "help", wantArgs: []string{"fetchnow"}, wantOK: true},
		{content: "~ help", wantCmd: "help", wantArgs: []string{}, wantOK: true},
		{content: "hey bot, help", wantCmd: "help", wantArgs: []string{}, wantOK: true},
		{content: "Hey Bot help me", wantCmd: "help", wantArgs: []string{"me"}, wantOK: true},
		{content: "~", wantOK: false},
		{content: "hello", wantOK: false},
		{content: "https://a/1", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			cmd, args, ok := b.parseCommand(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantCmd, cmd)
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestHandleMessageRoutesCommand(t *testing.T) {
	s := &fakeSession{}
	b := New(s, time.Second, "~")

	var gotArgs []string
	b.RegisterCmdView("ping", "answers pong", func(ctx context.Context, s Session, m *discordgo.MessageCreate, args []string) error {
		gotArgs = args
		_, err := s.ChannelMessageSend(m.ChannelID, "pong")
		return err
	})

	b.handleMessage(context.Background(), message("c1", "~ping now"))

	assert.Equal(t, []string{"c1:pong"}, s.messages())
	assert.Equal(t, []string{"now"}, gotArgs)
}

func TestHandleMessageIgnores(t *testing.T) {
	s := &fakeSession{}
	b := New(s, time.Second, "~")
	b.QuietIn("relay")

	called := 0
	b.RegisterCmdView("ping", "", func(context.Context, Session, *discordgo.MessageCreate, []string) error {
		called++
		return nil
	})

	fromBot := message("c1", "~ping")
	fromBot.Author.Bot = true

	b.handleMessage(context.Background(), fromBot)
	b.handleMessage(context.Background(), message("relay", "~ping"))
	b.handleMessage(context.Background(), message("c1", "~unknown"))
	b.handleMessage(context.Background(), message("c1", "ping"))
	b.handleMessage(context.Background(), &discordgo.MessageCreate{})
	b.handleMessage(context.Background(), nil)

	assert.Zero(t, called)
	assert.Empty(t, s.messages())
}

func TestHandleMessageViewError(t *testing.T) {
	s := &fakeSession{}
	b := New(s, time.Second, "~")
	b.RegisterCmdView("boom", "", func(context.Context, Session, *discordgo.MessageCreate, []string) error {
		return errors.New("database is down")
	})

	b.handleMessage(context.Background(), message("c1", "~boom"))

	assert.Equal(t, []string{"c1:internal error"}, s.messages())
}

func TestHandleMessageRecoversPanic(t *testing.T) {
	b := New(&fakeSession{}, time.Second, "~")
	b.RegisterCmdView("panic", "", func(context.Context, Session, *discordgo.MessageCreate, []string) error {
		panic("view exploded")
	})

	assert.NotPanics(t, func() {
		b.handleMessage(context.Background(), message("c1", "~panic"))
	})
}

func TestCommandsAndPrefix(t *testing.T) {
	b := New(&fakeSession{}, time.Second, "hey bot", "~")
	b.RegisterCmdView("help", "show help", nil)
	b.RegisterCmdView("FetchNow", "run now", nil)
	b.RegisterCmdView("help", "show help again", nil)

	assert.Equal(t, []Command{
		{Name: "fetchnow", Description: "run now"},
		{Name: "help", Description: "show help"},
	}, b.Commands())
	assert.Equal(t, "~", b.Prefix())
}

func TestRunSubscribesUntilCancelled(t *testing.T) {
	s := &fakeSession{}
	b := New(s, time.Second, "~")

	var gotDeadline bool
	b.RegisterCmdView("ping", "", func(ctx context.Context, s Session, m *discordgo.MessageCreate, _ []string) error {
		_, gotDeadline = ctx.Deadline()
		return nil
	})

	events := &fakeEvents{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, events) }()

	require.Eventually(t, func() bool { return events.registered() != nil }, time.Second, time.Millisecond)
	events.registered()(nil, message("c1", "~ping"))
	assert.True(t, gotDeadline)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, events.removed)
}
