package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kovalyov-valentin/news-relay/internal/bot"
	"github.com/kovalyov-valentin/news-relay/internal/bot/middleware"
	"github.com/kovalyov-valentin/news-relay/internal/botkit"
	"github.com/kovalyov-valentin/news-relay/internal/gateway"
	"github.com/kovalyov-valentin/news-relay/internal/health"
	"github.com/kovalyov-valentin/news-relay/internal/logger"
	"github.com/urfave/cli/v2"
)

// Команде дается время на полный запуск задачи и ответ
const commandGrace = 5 * time.Second

func runCmd() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Connect to Discord and relay the feed until stopped",
		Action: runRelay,
	}
}

func runRelay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := gateway.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	discord := gateway.NewDiscord(session)
	if err := session.Open(); err != nil {
		return fmt.Errorf("connect to discord gateway: %w", err)
	}
	defer session.Close()

	relay, cleanup, err := newRelay(ctx, cfg, discord)
	if err != nil {
		return err
	}
	defer cleanup()

	channelID := gateway.FormatID(cfg.ChannelID)

	// Команды. В канал ленты бот не отвечает, иначе ответ станет последним сообщением
	newsBot := botkit.New(session, cfg.TickTimeout+commandGrace, cfg.CommandPrefix, "hey bot,", "hey bot")
	newsBot.QuietIn(channelID)
	newsBot.RegisterCmdView("help", "show this help", bot.ViewCmdHelp(newsBot, channelID, cfg.PollInterval))
	newsBot.RegisterCmdView(
		"fetchnow",
		"check the feed and post the newest story right now (admins only)",
		middleware.AdminOnly(cfg.AdminIDs, bot.ViewCmdFetchNow(relay)),
	)

	var wg sync.WaitGroup

	// Воркер relay
	wg.Add(1)
	go func(ctx context.Context) {
		defer wg.Done()
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L.Errorw("relay stopped", "error", err)
			cancel()
		}
	}(ctx)

	if cfg.HealthAddr != "" {
		app := health.Server(map[string]health.Probe{
			"gateway": health.GatewayProbe(discord.Connected),
			"relay":   health.TickProbe(relay.LastTick, relay.Interval(), time.Now(), time.Now),
		})

		wg.Add(1)
		go func(ctx context.Context) {
			defer wg.Done()
			if err := health.Serve(ctx, app, cfg.HealthAddr); err != nil && !errors.Is(err, context.Canceled) {
				logger.L.Errorw("health server stopped", "error", err)
			}
		}(ctx)
	}

	logger.L.Infow("news relay started", "feed", cfg.FeedURL, "channel_id", channelID)

	// Запуск бота
	if err := newsBot.Run(ctx, session); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	wg.Wait()
	logger.L.Info("news relay stopped")

	return nil
}
