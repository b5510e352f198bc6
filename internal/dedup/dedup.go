// Package dedup решает, постить ли свежую статью.
//
// Отдельного хранилища нет: маркером последнего поста служит текст последнего
// сообщения в канале. Каждый наш пост содержит ровно ссылку на статью, поэтому
// пока в канал пишет только бот, текст последнего сообщения равен последней
// запощенной ссылке.
package dedup

import (
	"errors"
	"strings"

	"github.com/kovalyov-valentin/news-relay/internal/model"
)

// У кандидата нет ссылки, постить нечего
var ErrMissingLink = errors.New("newest feed item has no link")

type Decision int

const (
	Skip Decision = iota
	Post
)

func (d Decision) String() string {
	if d == Post {
		return "post"
	}
	return "skip"
}

// CheckCandidate проверяет, что кандидата вообще можно запостить
func CheckCandidate(candidate model.FeedItem) error {
	if strings.TrimSpace(candidate.Link) == "" {
		return ErrMissingLink
	}
	return nil
}

// Decide сравнивает кандидата с последним сообщением канала.
// last == nil значит, что в канале еще ничего нет.
// Сравнивается только ссылка и только точным совпадением
func Decide(candidate model.FeedItem, last *model.Message) (Decision, error) {
	if err := CheckCandidate(candidate); err != nil {
		return Skip, err
	}

	if last == nil {
		return Post, nil
	}

	if last.Content == candidate.Link {
		return Skip, nil
	}

	return Post, nil
}
