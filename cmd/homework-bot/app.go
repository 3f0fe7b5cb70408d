package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/homework-bot/internal/config"
	"github.com/tbourn/homework-bot/internal/domain"
	httpapi "github.com/tbourn/homework-bot/internal/http"
	"github.com/tbourn/homework-bot/internal/notify"
	"github.com/tbourn/homework-bot/internal/observability"
	"github.com/tbourn/homework-bot/internal/practicum"
	"github.com/tbourn/homework-bot/internal/repo"
	"github.com/tbourn/homework-bot/internal/services"
	"github.com/tbourn/homework-bot/internal/sysutil"
)

// app holds the wired components and the cleanup hooks, run in reverse order
// by close.
type app struct {
	cfg     config.Config
	db      *gorm.DB
	poller  *services.Poller
	cleanup []func(context.Context) error
}

// bootstrap loads configuration, configures logging, verifies credentials,
// and wires the poller. Any error aborts startup; resources acquired so far
// are released.
func bootstrap(ctx context.Context, envFiles []string) (a *app, err error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	logFile, err := sysutil.SetupLogger(cfg.LogFile, cfg.LogPretty)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	a = &app{cfg: cfg}
	a.onClose(func(context.Context) error { return logFile.Close() })
	defer func() {
		if err != nil {
			a.close(context.WithoutCancel(ctx))
			a = nil
		}
	}()

	if err = cfg.Credentials.Check(); err != nil {
		return a, err
	}
	target, err := notify.ParseChatTarget(cfg.Credentials.TelegramChatID)
	if err != nil {
		log.Error().Err(err).Msg("invalid TELEGRAM_CHAT_ID")
		return a, err
	}

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return a, fmt.Errorf("setup tracing: %w", err)
	}
	a.onClose(shutdownTracing)

	var journal services.Journal
	if cfg.JournalEnabled {
		if a.db, err = repo.OpenSQLite(cfg.DBPath); err != nil {
			return a, fmt.Errorf("open journal: %w", err)
		}
		a.onClose(func(context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		if err = repo.AutoMigrate(a.db); err != nil {
			return a, fmt.Errorf("migrate journal: %w", err)
		}
		journal = repo.NewJournal(a.db)
	}

	client := practicum.New(cfg.PracticumEndpoint, cfg.Credentials.PracticumToken, cfg.RequestTimeout, nil)
	bot := notify.NewBot(cfg.Credentials.TelegramToken, cfg.TelegramEndpoint, cfg.RequestTimeout, nil)

	a.poller = services.NewPoller(services.PollerConfig{
		Client:      client,
		Notifier:    notify.New(bot, target),
		Journal:     journal,
		RetryPeriod: cfg.RetryPeriod,
	})

	log.Info().
		Str("chat", target.String()).
		Dur("retry_period", cfg.RetryPeriod).
		Bool("journal", cfg.JournalEnabled).
		Bool("http", cfg.HTTPEnabled).
		Str("version", version).
		Msg("homework bot configured")
	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.cleanup = append(a.cleanup, fn)
}

func (a *app) close(ctx context.Context) {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil {
			log.Warn().Err(err).Msg("cleanup failed")
		}
	}
	a.cleanup = nil
}

// runService polls until ctx is cancelled. The operator API, when enabled,
// is served alongside; a listener failure stops the bot.
func runService(ctx context.Context, envFiles []string) error {
	a, err := bootstrap(ctx, envFiles)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var srv *http.Server
	if a.cfg.HTTPEnabled {
		srv = a.httpServer()
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("operator API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("operator API failed")
				cancel(fmt.Errorf("operator API: %w", err))
			}
		}()
	}

	_ = a.poller.Run(runCtx)

	shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer done()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("operator API shutdown")
		}
	}
	log.Info().Msg("homework bot stopped")
	a.close(shutdownCtx)

	// A signal is a clean exit; a listener failure is not.
	if cause := context.Cause(runCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

func (a *app) httpServer() *http.Server {
	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	httpapi.RegisterRoutes(r, a.db, a.poller, a.cfg)

	return &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
	}
}

// runCheck runs one cycle, prints it, and fails when the cycle failed.
func runCheck(ctx context.Context, envFiles []string, out *output) error {
	a, err := bootstrap(ctx, envFiles)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	c := a.poller.RunCycle(ctx)
	if err := printCycle(out, c); err != nil {
		return err
	}
	if c.Outcome == domain.OutcomeFailed {
		return fmt.Errorf("cycle %s failed: %s", c.ID, c.Error)
	}
	return nil
}

func printCycle(out *output, c domain.Cycle) error {
	headers := []string{"ID", "OUTCOME", "HOMEWORK", "STATUS", "DELIVERED", "DURATION"}
	rows := [][]string{{
		c.ID, c.Outcome, dash(c.HomeworkName), dash(c.Status),
		strconv.FormatBool(c.Delivered), c.Duration().Round(time.Millisecond).String(),
	}}
	return out.print(headers, rows, c)
}

type verdictRow struct {
	Status  string `json:"status"`
	Verdict string `json:"verdict"`
}

func printVerdicts(out *output) error {
	statuses := domain.Statuses()
	rows := make([][]string, 0, len(statuses))
	items := make([]verdictRow, 0, len(statuses))
	for _, s := range statuses {
		v, err := domain.Verdict(s)
		if err != nil {
			return err
		}
		rows = append(rows, []string{s, v})
		items = append(items, verdictRow{Status: s, Verdict: v})
	}
	return out.print([]string{"STATUS", "VERDICT"}, rows, items)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
