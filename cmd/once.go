package main

import (
	"fmt"

	"github.com/kovalyov-valentin/news-relay/internal/gateway"
	"github.com/kovalyov-valentin/news-relay/internal/logger"
	"github.com/urfave/cli/v2"
)

func onceCmd() *cli.Command {
	return &cli.Command{
		Name:  "once",
		Usage: "Run a single relay pass over the REST API and exit",
		Description: `Useful for running the relay from cron or a CI job instead of
keeping a gateway connection. Exits non-zero when the pass fails.`,
		Action: runOnce,
	}
}

func runOnce(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Для REST вызовов подключение к gateway не нужно
	session, err := gateway.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	relay, cleanup, err := newRelay(c.Context, cfg, gateway.NewDiscord(session))
	if err != nil {
		return err
	}
	defer cleanup()

	run := relay.Tick(c.Context)
	if run.Failed() {
		return fmt.Errorf("relay run %s failed: %w", run.ID, run.Err)
	}

	return nil
}
