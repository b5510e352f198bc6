package main

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/kovalyov-valentin/news-relay/internal/alert"
	"github.com/kovalyov-valentin/news-relay/internal/config"
	"github.com/kovalyov-valentin/news-relay/internal/gateway"
	"github.com/kovalyov-valentin/news-relay/internal/logger"
	"github.com/kovalyov-valentin/news-relay/internal/notifier"
	"github.com/kovalyov-valentin/news-relay/internal/source"
	"github.com/kovalyov-valentin/news-relay/internal/storage"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"
)

// Сколько даем на проверку канала и подготовку журнала при старте
const setupTimeout = 30 * time.Second

// loadConfig читает конфиг и настраивает логгер. Ошибка здесь фатальна
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.StringSlice("config")...)
	if err != nil {
		return config.Config{}, err
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return config.Config{}, fmt.Errorf("init logger: %w", err)
	}

	return cfg, nil
}

// newRelay собирает задачу: источник ленты, проверку канала и наблюдателей.
// Возвращает функцию, которая освобождает ресурсы наблюдателей
func newRelay(ctx context.Context, cfg config.Config, discord *gateway.Discord) (*notifier.Notifier, func(), error) {
	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	if err := discord.CheckChannel(setupCtx, cfg.ChannelID); err != nil {
		return nil, nil, err
	}

	decoder, err := source.DecoderFor(cfg.FeedParser)
	if err != nil {
		return nil, nil, err
	}

	relay := notifier.New(
		source.NewRSSSource(cfg.FeedURL, decoder, cfg.FetchTimeout),
		discord,
		cfg.ChannelID,
		cfg.PollInterval,
		cfg.TickTimeout,
		cfg.RunOnStart,
	)

	cleanup := func() {}

	if cfg.JournalEnabled() {
		db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		cleanup = func() { _ = db.Close() }

		journal := storage.NewRunPostgresStorage(db)
		if err := journal.Ensure(setupCtx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("ensure journal schema: %w", err)
		}

		if pruned, err := journal.Prune(setupCtx, time.Now().Add(-cfg.JournalRetention)); err != nil {
			logger.L.Warnw("failed to prune run journal", "error", err)
		} else if pruned > 0 {
			logger.L.Infow("pruned run journal", "rows", pruned)
		}

		relay.AddObserver(journal)
	}

	if cfg.AlertsEnabled() {
		tg, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create telegram alert bot: %w", err)
		}

		relay.AddObserver(alert.NewTelegram(tg, cfg.TelegramChatID, cfg.FeedURL))
		logger.L.Infow("telegram alerts enabled", "chat_id", cfg.TelegramChatID)
	}

	return relay, cleanup, nil
}
