// Package server initializes and runs the task service. It opens the
// database, applies migrations, selects the avatar and mail backends from
// config, and serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/avatar"
	"taskkeeper/internal/server/config"
	"taskkeeper/internal/server/httpapi"
	"taskkeeper/internal/server/mail"
	"taskkeeper/internal/server/repositories/repomanager"
	"taskkeeper/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	taskService *services.TaskService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	avatars, err := selectAvatarStore(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	us := services.NewUserService(db, repos, avatars, avatar.NewProcessor(cfg.AvatarSize),
		selectMailer(cfg), logger, cfg)
	ts := services.NewTaskService(db, repos, logger)

	return &App{config: cfg, logger: logger, db: db, userService: us, taskService: ts}, nil
}

// selectAvatarStore keeps avatars in Postgres unless an S3 bucket is
// configured.
func selectAvatarStore(ctx context.Context, cfg *config.Config, db *sql.DB) (avatar.Store, error) {
	if cfg.S3Bucket == "" {
		return avatar.NewPostgresStore(db), nil
	}
	store, err := avatar.NewS3Store(ctx, avatar.S3Config{
		RootUser:     cfg.S3RootUser,
		RootPassword: cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}
	return store, nil
}

// selectMailer returns the SendGrid client when an API key is set, otherwise
// a no-op so account flows work without mail credentials.
func selectMailer(cfg *config.Config) mail.Mailer {
	if cfg.SendgridAPIKey == "" {
		return mail.Noop{}
	}
	return mail.NewSendgridMailer(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config, app.logger, app.userService, app.taskService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err.Error())
	}
}
