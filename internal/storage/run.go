package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kovalyov-valentin/news-relay/internal/model"
)

// Журнал запусков. Ссылки и содержимое ленты не храним,
// источником правды для проверки на дубли остается канал
type RunPostgresStorage struct {
	db *sqlx.DB
}

func NewRunPostgresStorage(db *sqlx.DB) *RunPostgresStorage {
	return &RunPostgresStorage{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS relay_runs (
	id          UUID PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	outcome     TEXT NOT NULL,
	stage       TEXT,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS relay_runs_started_at_idx ON relay_runs (started_at DESC);
`

// Ensure создает таблицу, если ее еще нет
func (s *RunPostgresStorage) Ensure(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const insertRunQuery = `INSERT INTO relay_runs (id, started_at, finished_at, outcome, stage, error)
	VALUES (:id, :started_at, :finished_at, :outcome, :stage, :error)
	ON CONFLICT (id) DO NOTHING`

// Метод для сохранения запуска
func (s *RunPostgresStorage) Store(ctx context.Context, run model.Run) error {
	_, err := s.db.NamedExecContext(ctx, insertRunQuery, toDBRun(run))
	return err
}

// Observe пишет итог каждого запуска в журнал
func (s *RunPostgresStorage) Observe(ctx context.Context, run model.Run) error {
	return s.Store(ctx, run)
}

// Prune удаляет записи старше olderThan и возвращает число удаленных
func (s *RunPostgresStorage) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM relay_runs WHERE started_at < $1`, olderThan.UTC())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// Внутренняя модель для работы с БД, чтобы правильно мапить его на колонки в таблице
type dbRun struct {
	ID         string         `db:"id"`
	StartedAt  time.Time      `db:"started_at"`
	FinishedAt time.Time      `db:"finished_at"`
	Outcome    string         `db:"outcome"`
	Stage      sql.NullString `db:"stage"`
	Error      sql.NullString `db:"error"`
}

func toDBRun(run model.Run) dbRun {
	r := dbRun{
		ID:         run.ID,
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt.UTC(),
		Outcome:    string(run.Outcome),
		Stage:      sql.NullString{String: run.Stage, Valid: run.Stage != ""},
	}

	if run.Err != nil {
		r.Error = sql.NullString{String: run.Err.Error(), Valid: true}
	}

	return r
}
