package model

import "time"

// Элемент ленты. Пустая строка означает, что поле в ленте отсутствовало
type FeedItem struct {
	// Заголовок статьи
	Title string
	// Ссылка на статью, именно она уходит в канал
	Link string
}

// Сообщение из истории канала.
// Нас интересует только текст, он и есть маркер последнего поста
type Message struct {
	ID      string
	Content string
}

// Итог одного запуска
type Outcome string

const (
	OutcomePosted    Outcome = "posted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Один запуск задачи (тик). Живет ровно один тик, между тиками ничего не хранится
type Run struct {
	ID string
	// Время начала и окончания запуска
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	// Этап, на котором произошла ошибка. Пустой, если запуск успешный
	Stage string
	// Ссылка-кандидат, если до нее удалось дойти
	Link string
	Err  error
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r Run) Failed() bool {
	return r.Outcome == OutcomeFailed
}
