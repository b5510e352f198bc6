package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/kovalyov-valentin/news-relay/internal/botkit"
	"github.com/kovalyov-valentin/news-relay/internal/model"
)

type TickRunner interface {
	TryTick(ctx context.Context) (model.Run, bool)
}

// ViewCmdFetchNow запускает проверку ленты вне расписания и отвечает итогом.
// Текст ошибки наружу не отдаем, только этап и id запуска для поиска в логах
func ViewCmdFetchNow(runner TickRunner) botkit.ViewFunc {
	return func(ctx context.Context, s botkit.Session, m *discordgo.MessageCreate, _ []string) error {
		run, ok := runner.TryTick(ctx)

		var msgText string
		switch {
		case !ok:
			msgText = "A relay run is already in progress, try again in a moment."
		case run.Outcome == model.OutcomePosted:
			// Угловые скобки отключают превью ссылки
			msgText = fmt.Sprintf("Posted a new article: <%s>", run.Link)
		case run.Outcome == model.OutcomeDuplicate:
			msgText = "No new articles."
		default:
			msgText = fmt.Sprintf("Relay run `%s` failed at stage `%s`, see the logs for details.", run.ID, run.Stage)
		}

		_, err := s.ChannelMessageSend(m.ChannelID, msgText)
		return err
	}
}
