package alert

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kovalyov-valentin/news-relay/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-relay/internal/model"
)

// Часть *tgbotapi.BotAPI, через которую шлем алерты
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram шлет оператору сообщение о каждом упавшем запуске
// и одно сообщение, когда запуски снова пошли успешно.
// Участники канала с новостями этих сообщений не видят
type Telegram struct {
	bot     Sender
	chatID  int64
	feedURL string

	mu      sync.Mutex
	failing bool
}

func NewTelegram(bot Sender, chatID int64, feedURL string) *Telegram {
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		feedURL: feedURL,
	}
}

func (t *Telegram) Observe(_ context.Context, run model.Run) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var text string
	switch {
	case run.Failed():
		text = t.formatFailure(run)
	case t.failing:
		text = t.formatRecovery(run)
	default:
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	// Даем понять телеграму, что это сообщение надо парсить как markdown
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}

	t.failing = run.Failed()
	return nil
}

func (t *Telegram) formatFailure(run model.Run) string {
	lines := []string{
		markup.Bold("News relay run failed"),
		"",
		"Stage: " + markup.Code(run.Stage),
		"Run: " + markup.Code(run.ID),
		"Feed: " + markup.EscapeForMarkdown(t.feedURL),
	}

	if run.Link != "" {
		lines = append(lines, "Candidate: "+markup.EscapeForMarkdown(run.Link))
	}
	if run.Err != nil {
		lines = append(lines, "Error: "+markup.Code(run.Err.Error()))
	}

	return strings.Join(lines, "\n")
}

func (t *Telegram) formatRecovery(run model.Run) string {
	return strings.Join([]string{
		markup.Bold("News relay recovered"),
		"",
		"Run: " + markup.Code(run.ID),
		"Outcome: " + markup.Code(string(run.Outcome)),
	}, "\n")
}
