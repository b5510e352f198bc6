package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kovalyov-valentin/news-relay/internal/model"
)

const userAgent = "news-relay/1.0 (+rss)"

// Лента пришла, но в ней нет ни одной статьи
var ErrEmptyFeed = errors.New("feed has no items")

// Источник ответил не 2xx
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected http status %s", e.Status)
}

// RSS клиент для одной ленты
type RSSSource struct {
	// URL откуда забираем ленту
	URL    string
	client *http.Client
	decode Decoder
}

// timeout ограничивает один запрос целиком, вместе с чтением тела
func NewRSSSource(url string, decode Decoder, timeout time.Duration) *RSSSource {
	return &RSSSource{
		URL:    url,
		client: &http.Client{Timeout: timeout},
		decode: decode,
	}
}

// Fetch забирает ленту и возвращает статьи в том порядке, в котором они идут в документе.
// Первая статья считается самой свежей
func (s *RSSSource) Fetch(ctx context.Context) ([]model.FeedItem, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	if len(items) == 0 {
		return nil, ErrEmptyFeed
	}

	return items, nil
}

// Читаем тело целиком, разбирать будем уже из памяти
func (s *RSSSource) load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	return data, nil
}
