package notifier

import (
	"errors"
	"fmt"
)

// Этап запуска, на котором что-то пошло не так
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageDedup   Stage = "dedup"
	StageHistory Stage = "history"
	StagePost    Stage = "post"
)

var (
	// Не удалось забрать или разобрать ленту, либо она пустая
	ErrFetch = errors.New("feed fetch failed")
	// Кандидат непригоден для поста, например без ссылки
	ErrDedupInput = errors.New("dedup input rejected")
	// Не удалось получить последнее сообщение канала
	ErrHistory = errors.New("channel history query failed")
	// Не удалось отправить сообщение
	ErrPost = errors.New("post message failed")
)

func (s Stage) sentinel() error {
	switch s {
	case StageFetch:
		return ErrFetch
	case StageDedup:
		return ErrDedupInput
	case StageHistory:
		return ErrHistory
	case StagePost:
		return ErrPost
	default:
		return nil
	}
}

// StageError привязывает причину к этапу.
// errors.Is работает и с ErrFetch/ErrPost/..., и с исходной причиной
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	sentinel := e.Stage.sentinel()
	return sentinel != nil && target == sentinel
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf достает этап из ошибки, пустая строка если ошибка не наша
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
