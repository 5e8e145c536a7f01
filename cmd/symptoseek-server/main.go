package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/symptoseek/symptoseek/internal/config"
	"github.com/symptoseek/symptoseek/internal/domain/appointment"
	"github.com/symptoseek/symptoseek/internal/domain/chat"
	"github.com/symptoseek/symptoseek/internal/domain/doctor"
	"github.com/symptoseek/symptoseek/internal/domain/notification"
	"github.com/symptoseek/symptoseek/internal/domain/reminder"
	"github.com/symptoseek/symptoseek/internal/domain/report"
	"github.com/symptoseek/symptoseek/internal/domain/user"
	"github.com/symptoseek/symptoseek/internal/platform/auth"
	"github.com/symptoseek/symptoseek/internal/platform/blobstore"
	"github.com/symptoseek/symptoseek/internal/platform/db"
	"github.com/symptoseek/symptoseek/internal/platform/llm"
	"github.com/symptoseek/symptoseek/internal/platform/mailer"
	"github.com/symptoseek/symptoseek/internal/platform/middleware"
	"github.com/symptoseek/symptoseek/internal/platform/scheduler"
	"github.com/symptoseek/symptoseek/internal/platform/ws"
)

const apiPrefix = "/api/v1"

// apiGroups mounts the public and JWT-guarded route groups under the
// versioned API prefix.
func apiGroups(e *echo.Echo, secret []byte, roles auth.RoleSource) (public, api *echo.Group) {
	public = e.Group(apiPrefix)
	api = e.Group(apiPrefix, auth.JWTMiddleware(secret, roles))
	return public, api
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "symptoseek-server",
		Short: "SymptoSeek API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("database pool established")

	secret := []byte(cfg.JWTSecret)
	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour

	// Repositories
	userRepo := user.NewUserRepoPG(pool)
	doctorRepo := doctor.NewDoctorRepoPG(pool)
	apptRepo := appointment.NewAppointmentRepoPG(pool)
	reminderRepo := reminder.NewReminderRepoPG(pool)
	notifRepo := notification.NewNotificationRepoPG(pool)
	reportRepo := report.NewReportRepoPG(pool)
	chatRepo := chat.NewChatRepoPG(pool)

	// Outbound mail
	var mail mailer.EmailSender = mailer.NopSender{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		})
	} else {
		logger.Warn().Msg("SMTP_HOST not set, outbound mail disabled")
	}

	hub := ws.NewHub(logger)

	userSvc := user.NewService(userRepo, secret, ttl)
	doctorSvc := doctor.NewService(doctorRepo)
	apptSvc := appointment.NewService(apptRepo)

	loc, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		return fmt.Errorf("load scheduler timezone: %w", err)
	}

	sched := scheduler.New(
		reminder.NewSchedulerSource(reminderRepo), userSvc, mail, logger,
		scheduler.WithLocation(loc),
		scheduler.WithNotify(func(userID string, rem *scheduler.Reminder) {
			data, _ := json.Marshal(rem)
			hub.Push(userID, ws.Event{Kind: "reminder", Title: rem.Title, Data: data})
		}),
	)
	reminderSvc := reminder.NewService(reminderRepo, sched)

	notifSvc := notification.NewService(notifRepo)
	sweeper := notification.NewSweeper(
		notifRepo, userSvc, mail, logger,
		notification.WithInterval(cfg.SweepInterval()),
		notification.WithNotify(func(userID string, n *notification.Notification, advance bool) {
			title := n.Title
			if advance {
				title = "Upcoming: " + n.Title
			}
			data, _ := json.Marshal(n)
			hub.Push(userID, ws.Event{Kind: "notification", Title: title, Data: data})
		}),
	)

	reportSvc := report.NewService(reportRepo, blobstore.NewMemoryStore())

	var model llm.Client
	if cfg.OpenAIAPIKey != "" {
		model = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, chat assistant disabled")
	}
	chatSvc := chat.NewService(chatRepo, model)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	public, api := apiGroups(e, secret, userSvc)

	user.NewHandler(userSvc).RegisterRoutes(public, api)
	doctor.NewHandler(doctorSvc).RegisterRoutes(api)
	appointment.NewHandler(apptSvc).RegisterRoutes(api)
	reminder.NewHandler(reminderSvc).RegisterRoutes(api)
	notification.NewHandler(notifSvc).RegisterRoutes(api)
	report.NewHandler(reportSvc).RegisterRoutes(api)
	chat.NewHandler(chatSvc).RegisterRoutes(api)
	ws.NewHandler(hub, secret).RegisterRoutes(e.Group(""))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	count, err := sched.Initialize(jobCtx)
	if err != nil {
		return fmt.Errorf("initialize reminder jobs: %w", err)
	}
	logger.Info().Int("jobs", count).Msg("reminder scheduler initialized")

	sweeper.Start(jobCtx)
	logger.Info().Dur("interval", cfg.SweepInterval()).Msg("notification sweeper started")

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	sweeper.Stop()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
