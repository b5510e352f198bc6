package gateway

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/kovalyov-valentin/news-relay/internal/logger"
	"github.com/kovalyov-valentin/news-relay/internal/model"
	"go.uber.org/zap"
)

// Интенты, с которыми подключаемся к gateway.
// MessageContent нужен командам, чтобы видеть текст сообщений
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// Часть *discordgo.Session, которой мы пользуемся
type session interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Discord - тонкая обертка над сессией discordgo.
// Соединением (подключение, переподключение) сессия управляет сама
type Discord struct {
	s         session
	connected atomic.Bool
	log       *zap.SugaredLogger
}

// NewSession создает сессию бота, но не подключается к gateway
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	s.Identify.Intents = Intents
	return s, nil
}

func NewDiscord(s *discordgo.Session) *Discord {
	d := newDiscord(s)

	s.AddHandler(d.onReady)
	s.AddHandler(d.onResumed)
	s.AddHandler(d.onDisconnect)

	return d
}

func newDiscord(s session) *Discord {
	return &Discord{
		s:   s,
		log: logger.Named("discord"),
	}
}

// LatestMessage возвращает самое свежее сообщение канала или nil, если канал пустой
func (d *Discord) LatestMessage(ctx context.Context, channelID uint64) (*model.Message, error) {
	msgs, err := d.s.ChannelMessages(FormatID(channelID), 1, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch recent messages of %d: %w", channelID, err)
	}

	// Discord отдает историю от новых к старым
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, nil
	}

	return &model.Message{
		ID:      msgs[0].ID,
		Content: msgs[0].Content,
	}, nil
}

// SendMessage отправляет text в канал как есть, без форматирования
func (d *Discord) SendMessage(ctx context.Context, channelID uint64, text string) error {
	if _, err := d.s.ChannelMessageSend(FormatID(channelID), text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message to %d: %w", channelID, err)
	}
	return nil
}

// CheckChannel проверяет, что канал существует, доступен боту и является текстовым каналом сервера
func (d *Discord) CheckChannel(ctx context.Context, channelID uint64) error {
	ch, err := d.s.Channel(FormatID(channelID), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("resolve channel %d: %w", channelID, err)
	}

	if ch.GuildID == "" {
		return fmt.Errorf("channel %d is not a guild channel", channelID)
	}

	if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
		return fmt.Errorf("channel %d is not a text channel (type %d)", channelID, ch.Type)
	}

	return nil
}

// Connected говорит, живо ли сейчас соединение с gateway
func (d *Discord) Connected() bool {
	return d.connected.Load()
}

func (d *Discord) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	d.connected.Store(true)
	if r != nil && r.User != nil {
		d.log.Infow("logged in", "user", r.User.Username)
	}
}

func (d *Discord) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	d.connected.Store(true)
	d.log.Info("gateway session resumed")
}

func (d *Discord) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	d.connected.Store(false)
	d.log.Warn("gateway disconnected")
}

func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
