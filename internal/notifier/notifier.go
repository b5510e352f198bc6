package notifier

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kovalyov-valentin/news-relay/internal/dedup"
	"github.com/kovalyov-valentin/news-relay/internal/logger"
	"github.com/kovalyov-valentin/news-relay/internal/model"
	"go.uber.org/zap"
)

// Сколько ждем наблюдателей после запуска, даже если приложение уже останавливается
const observeTimeout = 10 * time.Second

var errNoItems = errors.New("feed returned no items")

type FeedSource interface {
	Fetch(ctx context.Context) ([]model.FeedItem, error)
}

// Клиент чат-платформы. Соединением он управляет сам, мы только читаем и пишем через него
type Gateway interface {
	// Последнее сообщение канала или nil, если канал пустой
	LatestMessage(ctx context.Context, channelID uint64) (*model.Message, error)
	SendMessage(ctx context.Context, channelID uint64, text string) error
}

// Observer получает итог каждого запуска: журнал, алерты и т.п.
type Observer interface {
	Observe(ctx context.Context, run model.Run) error
}

type ObserverFunc func(ctx context.Context, run model.Run) error

func (f ObserverFunc) Observe(ctx context.Context, run model.Run) error {
	return f(ctx, run)
}

type Notifier struct {
	// Откуда берем свежую статью
	source FeedSource
	// Через что читаем историю канала и постим
	gateway Gateway
	// id канала куда мы будем постить статьи
	channelID uint64
	// Интервал между запусками
	sendInterval time.Duration
	// Ограничение на один запуск целиком
	tickTimeout time.Duration
	// Делать ли первый запуск сразу, не дожидаясь интервала
	runOnStart bool

	observers []Observer

	// Запуски идут строго по одному, в том числе ручные
	mu sync.Mutex
	// Время окончания последнего запуска, unix nano
	lastTick atomic.Int64

	log *zap.SugaredLogger
}

func New(
	source FeedSource,
	gateway Gateway,
	channelID uint64,
	sendInterval time.Duration,
	tickTimeout time.Duration,
	runOnStart bool,
) *Notifier {
	return &Notifier{
		source:       source,
		gateway:      gateway,
		channelID:    channelID,
		sendInterval: sendInterval,
		tickTimeout:  tickTimeout,
		runOnStart:   runOnStart,
		log:          logger.Named("notifier"),
	}
}

// AddObserver регистрирует наблюдателя. Вызывать до Start
func (n *Notifier) AddObserver(o Observer) {
	n.observers = append(n.observers, o)
}

func (n *Notifier) Interval() time.Duration {
	return n.sendInterval
}

// LastTick возвращает время окончания последнего запуска, нулевое если запусков не было
func (n *Notifier) LastTick() time.Time {
	ns := n.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Start крутит запуски с фиксированным интервалом, пока не отменят ctx.
// Ошибка одного запуска на следующие не влияет
func (n *Notifier) Start(ctx context.Context) error {
	ticker := time.NewTicker(n.sendInterval)
	defer ticker.Stop()

	n.log.Infow("relay started", "channel_id", n.channelID, "interval", n.sendInterval)

	if n.runOnStart {
		n.Tick(ctx)
	}

	for {
		select {
		case <-ticker.C:
			n.Tick(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick выполняет один запуск. Если другой запуск еще идет, ждет его окончания
func (n *Notifier) Tick(ctx context.Context) model.Run {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.tick(ctx)
}

// TryTick выполняет запуск, только если сейчас ничего не выполняется
func (n *Notifier) TryTick(ctx context.Context) (model.Run, bool) {
	if !n.mu.TryLock() {
		return model.Run{}, false
	}
	defer n.mu.Unlock()

	return n.tick(ctx), true
}

// Граница запуска: все ошибки и паники остаются здесь
func (n *Notifier) tick(ctx context.Context) model.Run {
	run := model.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	runCtx, cancel := context.WithTimeout(ctx, n.tickTimeout)
	defer cancel()

	outcome, link, err := n.safeSelectAndSend(runCtx)

	run.FinishedAt = time.Now()
	run.Outcome = outcome
	run.Link = link
	run.Err = err
	run.Stage = string(StageOf(err))

	n.lastTick.Store(run.FinishedAt.UnixNano())
	n.report(run)
	n.notifyObservers(ctx, run)

	return run
}

func (n *Notifier) safeSelectAndSend(ctx context.Context) (outcome model.Outcome, link string, err error) {
	stage := StageFetch

	defer func() {
		if p := recover(); p != nil {
			n.log.Errorw("panic recovered", "panic", p, "stack", string(debug.Stack()))
			outcome = model.OutcomeFailed
			err = stageErr(stage, fmt.Errorf("panic: %v", p))
		}
	}()

	return n.selectAndSend(ctx, &stage)
}

// Одна итерация: лента -> проверка на дубль -> пост.
// stage обновляется по ходу, чтобы паника была приписана нужному этапу
func (n *Notifier) selectAndSend(ctx context.Context, stage *Stage) (model.Outcome, string, error) {
	items, err := n.source.Fetch(ctx)
	if err != nil {
		return model.OutcomeFailed, "", stageErr(StageFetch, err)
	}

	if len(items) == 0 {
		return model.OutcomeFailed, "", stageErr(StageFetch, errNoItems)
	}

	// Первая статья в ленте самая свежая
	candidate := items[0]

	*stage = StageDedup
	if err := dedup.CheckCandidate(candidate); err != nil {
		return model.OutcomeFailed, "", stageErr(StageDedup, fmt.Errorf("item %q: %w", candidate.Title, err))
	}

	*stage = StageHistory
	last, err := n.gateway.LatestMessage(ctx, n.channelID)
	if err != nil {
		return model.OutcomeFailed, candidate.Link, stageErr(StageHistory, err)
	}

	*stage = StageDedup
	decision, err := dedup.Decide(candidate, last)
	if err != nil {
		return model.OutcomeFailed, candidate.Link, stageErr(StageDedup, err)
	}

	if decision == dedup.Skip {
		return model.OutcomeDuplicate, candidate.Link, nil
	}

	*stage = StagePost
	if err := n.gateway.SendMessage(ctx, n.channelID, candidate.Link); err != nil {
		return model.OutcomeFailed, candidate.Link, stageErr(StagePost, err)
	}

	return model.OutcomePosted, candidate.Link, nil
}

func (n *Notifier) report(run model.Run) {
	switch run.Outcome {
	case model.OutcomePosted:
		n.log.Infow("posted new article", "run_id", run.ID, "link", run.Link, "duration", run.Duration())
	case model.OutcomeDuplicate:
		n.log.Infow("no new articles", "run_id", run.ID, "link", run.Link, "duration", run.Duration())
	default:
		n.log.Errorw("relay run failed",
			"run_id", run.ID,
			"stage", run.Stage,
			"link", run.Link,
			"duration", run.Duration(),
			"error", run.Err,
		)
	}
}

// Наблюдатели не должны терять итог запуска из-за остановки приложения
func (n *Notifier) notifyObservers(ctx context.Context, run model.Run) {
	if len(n.observers) == 0 {
		return
	}

	observeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), observeTimeout)
	defer cancel()

	for _, o := range n.observers {
		if err := o.Observe(observeCtx, run); err != nil {
			n.log.Warnw("observer failed", "run_id", run.ID, "error", err)
		}
	}
}
