package botkit

import (
	"context"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/kovalyov-valentin/news-relay/internal/logger"
	"go.uber.org/zap"
)

// Часть сессии discordgo, которая нужна view
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Источник событий gateway, *discordgo.Session
type EventSource interface {
	AddHandler(handler interface{}) func()
}

// Функция, которая реагирует на определенную команду
// args - слова после имени команды
type ViewFunc func(ctx context.Context, s Session, m *discordgo.MessageCreate, args []string) error

type Command struct {
	Name        string
	Description string
}

type Bot struct {
	session Session
	// Префиксы команд, самый длинный проверяется первым
	prefixes []string
	// Сколько дается одной команде
	timeout time.Duration
	// Канал, в котором бот молчит
	quietChannelID string

	cmdViews map[string]ViewFunc
	commands []Command

	log *zap.SugaredLogger
}

func New(session Session, timeout time.Duration, prefixes ...string) *Bot {
	sorted := append([]string(nil), prefixes...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	return &Bot{
		session:  session,
		prefixes: sorted,
		timeout:  timeout,
		cmdViews: make(map[string]ViewFunc),
		log:      logger.Named("botkit"),
	}
}

// QuietIn запрещает боту отвечать в канале.
// Ответ в канале ленты стал бы последним сообщением и сломал бы проверку на дубли
func (b *Bot) QuietIn(channelID string) {
	b.quietChannelID = channelID
}

// Метод для регистрации View для команды
func (b *Bot) RegisterCmdView(cmd, description string, view ViewFunc) {
	cmd = strings.ToLower(cmd)

	if _, ok := b.cmdViews[cmd]; !ok {
		b.commands = append(b.commands, Command{Name: cmd, Description: description})
	}
	b.cmdViews[cmd] = view
}

// Commands возвращает зарегистрированные команды по алфавиту
func (b *Bot) Commands() []Command {
	out := append([]Command(nil), b.commands...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Prefix - основной префикс, его показываем в справке
func (b *Bot) Prefix() string {
	shortest := ""
	for _, p := range b.prefixes {
		if shortest == "" || len(p) < len(shortest) {
			shortest = p
		}
	}
	return shortest
}

// Run подписывается на сообщения и обрабатывает команды, пока не отменят ctx
func (b *Bot) Run(ctx context.Context, events EventSource) error {
	remove := events.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		msgCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		b.handleMessage(msgCtx, m)
	})
	defer remove()

	<-ctx.Done()
	return ctx.Err()
}

// Метод, который разбирает сообщение и роутит команду на соответствующую view
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	// Во view может произойти паника, ее нужно перехватить
	defer func() {
		if p := recover(); p != nil {
			b.log.Errorw("panic recovered", "panic", p, "stack", string(debug.Stack()))
		}
	}()

	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}

	if b.quietChannelID != "" && m.ChannelID == b.quietChannelID {
		return
	}

	cmd, args, ok := b.parseCommand(m.Content)
	if !ok {
		return
	}

	view, ok := b.cmdViews[cmd]
	if !ok {
		return
	}

	b.log.Infow("executing command", "command", cmd, "user", m.Author.ID)

	if err := view(ctx, b.session, m, args); err != nil {
		b.log.Errorw("failed to handle command", "command", cmd, "error", err)

		if _, err := b.session.ChannelMessageSend(m.ChannelID, "internal error"); err != nil {
			b.log.Errorw("failed to send message", "error", err)
		}
		return
	}

	b.log.Infow("executed command", "command", cmd)
}

// Вытаскиваем имя команды и аргументы: "~Help foo" -> "help", ["foo"]
func (b *Bot) parseCommand(content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	lower := strings.ToLower(content)

	for _, prefix := range b.prefixes {
		if !strings.HasPrefix(lower, strings.ToLower(prefix)) {
			continue
		}

		fields := strings.Fields(content[len(prefix):])
		if len(fields) == 0 {
			return "", nil, false
		}
		return strings.ToLower(fields[0]), fields[1:], true
	}

	return "", nil, false
}
