package main

import (
	"os"

	"github.com/kovalyov-valentin/news-relay/internal/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "news-relay",
		Usage: "Posts the newest story of an RSS feed into a Discord channel",
		Description: `Every poll interval the relay fetches the feed, takes its newest item
and posts the item link into the configured channel, unless the last
message of the channel already is that link.

Settings are read from config.hcl / config.local.hcl and environment
variables, e.g. DISCORD_TOKEN, CHANNEL_ID, RSS_URL.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "HCL config files, later files override earlier ones",
				EnvVars: []string{"NEWS_RELAY_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			onceCmd(),
		},
		// Без команды запускаем бота
		Action: runRelay,
	}

	if err := app.Run(os.Args); err != nil {
		logger.L.Errorw("news-relay stopped with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}
