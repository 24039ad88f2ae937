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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aegismedix/cortex/internal/config"
	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/briefing"
	"github.com/aegismedix/cortex/internal/domain/chat"
	"github.com/aegismedix/cortex/internal/domain/medication"
	"github.com/aegismedix/cortex/internal/domain/notification"
	"github.com/aegismedix/cortex/internal/domain/patient"
	"github.com/aegismedix/cortex/internal/domain/reconcile"
	"github.com/aegismedix/cortex/internal/domain/reminder"
	"github.com/aegismedix/cortex/internal/domain/session"
	"github.com/aegismedix/cortex/internal/domain/task"
	"github.com/aegismedix/cortex/internal/domain/vitals"
	"github.com/aegismedix/cortex/internal/platform/auth"
	"github.com/aegismedix/cortex/internal/platform/db"
	"github.com/aegismedix/cortex/internal/platform/gemini"
	"github.com/aegismedix/cortex/internal/platform/keylock"
	"github.com/aegismedix/cortex/internal/platform/logger"
	"github.com/aegismedix/cortex/internal/platform/mailer"
	"github.com/aegismedix/cortex/internal/platform/middleware"
	"github.com/aegismedix/cortex/internal/platform/websocket"
)

const serviceName = "cortex"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cortex-server",
		Short: "Recovery companion API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and reminder worker",
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
			ctx := context.Background()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
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
			ctx := context.Background()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

// reconcileCmd runs one reconciliation pass for a stored transcript, for
// replaying sessions outside the HTTP path.
func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a transcript file into a patient's record",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientFlag, _ := cmd.Flags().GetString("patient")
			file, _ := cmd.Flags().GetString("file")
			startedFlag, _ := cmd.Flags().GetString("started")
			endedFlag, _ := cmd.Flags().GetString("ended")

			patientID, err := uuid.Parse(patientFlag)
			if err != nil {
				return fmt.Errorf("invalid --patient: %w", err)
			}
			transcript, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			in := reconcile.Input{PatientID: patientID, Transcript: string(transcript)}
			if in.StartedAt, err = parseFlagTime(startedFlag); err != nil {
				return fmt.Errorf("invalid --started: %w", err)
			}
			if in.EndedAt, err = parseFlagTime(endedFlag); err != nil {
				return fmt.Errorf("invalid --ended: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(serviceName, cfg.Env)
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			pipeline := newPipeline(cfg, pool, newModel(cfg), log)
			result, err := pipeline.Run(ctx, in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().String("patient", "", "Patient id")
	cmd.Flags().String("file", "", "Path to a plain-text transcript")
	cmd.Flags().String("started", "", "Session start (RFC 3339)")
	cmd.Flags().String("ended", "", "Session end (RFC 3339)")
	_ = cmd.MarkFlagRequired("patient")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func parseFlagTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

// newModel returns nil when no API key is configured so that callers take
// their degraded paths directly.
func newModel(cfg *config.Config) *gemini.Client {
	if !cfg.ModelEnabled() {
		return nil
	}
	return gemini.New(gemini.Config{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.GeminiBaseURL,
		SummaryModel: cfg.GeminiSummaryModel,
		ChatModel:    cfg.GeminiChatModel,
		Timeout:      cfg.GeminiTimeout,
	})
}

func newPipeline(cfg *config.Config, pool *pgxpool.Pool, model *gemini.Client, log zerolog.Logger) *reconcile.Pipeline {
	pc := reconcile.Config{
		Store: &reconcile.RepoStore{
			Patients:    patient.NewRepoPG(pool),
			Medications: medication.NewRepoPG(pool),
			Vitals:      vitals.NewRepoPG(pool),
			Activity:    activity.NewRepoPG(pool),
			Sessions:    session.NewRepoPG(pool),
		},
		Tx:                   db.NewTxRunner(pool),
		Locks:                &keylock.Map{},
		Logger:               log,
		MinTranscriptChars:   cfg.MinTranscriptChars,
		RecoveryDurationDays: cfg.RecoveryDurationDays,
	}
	if model != nil {
		pc.Model = model
	}
	return reconcile.New(pc)
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.IsDev() && cfg.AuthIssuer == "" && cfg.AuthJWKSURL == "" && cfg.AuthSigningKey == "" {
		return auth.DevAuthMiddleware()
	}
	jc := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
	}
	if cfg.AuthSigningKey != "" {
		jc.SigningKey = []byte(cfg.AuthSigningKey)
	}
	return auth.JWTMiddleware(jc)
}

// authorizeTopic lets a socket subscribe only to patient topics the caller
// may read.
func authorizeTopic(ctx context.Context, topic string) bool {
	patientID, ok := websocket.PatientFromTopic(topic)
	return ok && auth.CanAccessPatient(ctx, patientID)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(serviceName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(log))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool, func() db.PoolStats { return db.GetPoolStats(pool) }))

	api := e.Group("/api/v1", authMiddleware(cfg))
	patients := api.Group("/patients/:id", auth.RequirePatientAccess("id"))
	limited := middleware.RateLimit(middleware.DefaultRateLimitConfig())
	modelAPI := api.Group("", limited)
	modelPatients := api.Group("/patients/:id", auth.RequirePatientAccess("id"), limited)

	hub := websocket.NewHub(log)
	websocket.NewHandler(hub, authorizeTopic, cfg.CORSOrigins).RegisterRoutes(api)

	model := newModel(cfg)
	if model == nil {
		log.Warn().Msg("GEMINI_API_KEY not set; summaries degrade and chat uses fallback replies")
	}
	tx := db.NewTxRunner(pool)

	patientRepo := patient.NewRepoPG(pool)
	vitalsRepo := vitals.NewRepoPG(pool)
	medRepo := medication.NewRepoPG(pool)
	sessionRepo := session.NewRepoPG(pool)
	activityRepo := activity.NewRepoPG(pool)
	chatRepo := chat.NewRepoPG(pool)
	notificationSvc := notification.NewService(notification.NewRepoPG(pool))

	activitySvc := activity.NewService(activityRepo)
	activity.NewHandler(activitySvc).RegisterRoutes(patients)
	patient.NewHandler(patient.NewService(patientRepo)).RegisterRoutes(patients)
	vitals.NewHandler(vitals.NewService(vitalsRepo, hub, log)).RegisterRoutes(patients)
	medication.NewHandler(medication.NewService(medRepo, activitySvc, tx)).RegisterRoutes(api, patients)
	session.NewHandler(sessionRepo).RegisterRoutes(patients)
	notification.NewHandler(notificationSvc).RegisterRoutes(api, patients)
	task.NewHandler(task.NewService(task.NewRepoPG(pool), activitySvc, tx)).RegisterRoutes(api, patients)

	brief := &briefing.Builder{
		Patients:    patientRepo,
		Vitals:      vitalsRepo,
		Medications: medRepo,
		Chat:        chatRepo,
		Sessions:    sessionRepo,
		Logger:      log,
	}
	briefing.NewHandler(brief).RegisterRoutes(patients)

	var chatModel chat.Model
	if model != nil {
		chatModel = model
	}
	chat.NewHandler(chat.NewService(chatRepo, chatModel, brief, tx, log)).RegisterRoutes(modelAPI)

	pipeline := newPipeline(cfg, pool, model, log)
	reconcile.NewHandler(pipeline, hub, log).RegisterRoutes(modelPatients)

	if cfg.RemindersEnabled {
		w := &reminder.Worker{
			Patients:    patientRepo,
			Medications: medRepo,
			Activity:    activitySvc,
			Events:      hub,
			Inbox:       notificationSvc,
			Interval:    cfg.ReminderInterval,
			Logger:      log.With().Str("component", "reminder").Logger(),
		}
		if cfg.MailEnabled() {
			w.Mail = mailer.NewSendGrid(mailer.Config{
				APIKey:    cfg.SendGridAPIKey,
				BaseURL:   cfg.SendGridBaseURL,
				FromEmail: cfg.MailFrom,
				FromName:  cfg.MailFromName,
			})
		} else {
			log.Info().Msg("SENDGRID_API_KEY or MAIL_FROM not set, reminder emails disabled")
		}
		go w.Start(ctx)
	}

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
