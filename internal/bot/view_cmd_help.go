package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/kovalyov-valentin/news-relay/internal/botkit"
	"github.com/samber/lo"
)

type CommandLister interface {
	Commands() []botkit.Command
	Prefix() string
}

// ViewCmdHelp показывает справку по всем командам или по одной, если она передана аргументом
func ViewCmdHelp(lister CommandLister, channelID string, interval time.Duration) botkit.ViewFunc {
	return func(ctx context.Context, s botkit.Session, m *discordgo.MessageCreate, args []string) error {
		var (
			prefix   = lister.Prefix()
			commands = lister.Commands()
		)

		if len(args) > 0 {
			name := strings.ToLower(strings.TrimPrefix(args[0], prefix))
			cmd, ok := lo.Find(commands, func(c botkit.Command) bool { return c.Name == name })

			text := fmt.Sprintf("Unknown command `%s`.", name)
			if ok {
				text = formatCommand(prefix, cmd)
			}

			_, err := s.ChannelMessageSend(m.ChannelID, text)
			return err
		}

		msgText := fmt.Sprintf(
			"This bot fetches the latest news from its RSS feed and posts the link to <#%s> every %s.\n\n**Commands**\n%s",
			channelID,
			interval,
			strings.Join(lo.Map(commands, func(c botkit.Command, _ int) string {
				return formatCommand(prefix, c)
			}), "\n"),
		)

		_, err := s.ChannelMessageSend(m.ChannelID, msgText)
		return err
	}
}

func formatCommand(prefix string, c botkit.Command) string {
	return fmt.Sprintf("`%s%s` - %s", prefix, c.Name, c.Description)
}
