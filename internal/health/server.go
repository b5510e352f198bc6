package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 5 * time.Second

// Probe возвращает ошибку, если компонент нездоров
type Probe func() error

// Server отдает GET /healthz: 200, когда все пробы проходят, иначе 503 со списком упавших
func Server(probes map[string]Probe) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		failed := make(map[string]string)
		for _, name := range names {
			if err := probes[name](); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"failed": failed,
			})
		}

		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}

// Serve слушает addr, пока не отменят ctx
func Serve(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	case <-ctx.Done():
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown health server: %w", err)
		}
		return ctx.Err()
	}
}

// GatewayProbe падает, пока нет соединения с чат-платформой
func GatewayProbe(connected func() bool) Probe {
	return func() error {
		if !connected() {
			return errors.New("gateway is not connected")
		}
		return nil
	}
}

// TickProbe падает, если запусков не было дольше трех интервалов.
// До первого запуска отсчет идет от startedAt
func TickProbe(lastTick func() time.Time, interval time.Duration, startedAt time.Time, now func() time.Time) Probe {
	return func() error {
		last := lastTick()
		if last.IsZero() {
			last = startedAt
		}

		if age := now().Sub(last); age > 3*interval {
			return fmt.Errorf("no relay run for %s", age.Round(time.Second))
		}
		return nil
	}
}
