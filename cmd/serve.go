package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"socratic/internal/intent"
	"socratic/internal/llm"
	"socratic/internal/metrics"
	"socratic/internal/orchestrator"
	"socratic/internal/server"
	"socratic/internal/session"
	"socratic/internal/store"
	"socratic/internal/tutor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutoring HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	// Missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	addr := listenAddr(cmd)
	ttl, _ := cmd.Flags().GetDuration("session-ttl")

	// The persistence mirror is best-effort: a broken database disables
	// it with a warning instead of refusing to start.
	var recorder store.Recorder = store.NopRecorder{}
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		logger.Warn("persistence disabled: cannot resolve database path", "error", err)
	} else if st, err := store.Open(dbPath); err != nil {
		logger.Warn("persistence disabled: cannot open database", "path", dbPath, "error", err)
	} else {
		defer st.Close()
		recorder = st.Recorder()
		logger.Info("persistence mirror enabled", "path", dbPath)
	}

	llmCfg := llm.ConfigFromEnv()
	if err := llmCfg.Validate(); err != nil {
		return fmt.Errorf("LLM configuration: %w", err)
	}
	provider, err := llm.NewProvider(cmd.Context(), llmCfg, recorder)
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}

	m := metrics.New()
	var sessions *session.Store
	sessions = session.NewStore(
		session.WithIdleTTL(ttl),
		session.WithEvictHook(func(*session.Session) {
			m.ActiveSessions.Set(float64(sessions.Len()))
		}),
	)
	defer sessions.Close()

	pipeline := tutor.NewPipeline(tutor.Deps{
		Sessions:   sessions,
		Classifier: intent.NewRuleClassifier(),
		Orch:       orchestrator.New(provider, orchestrator.DefaultConfig(), logger),
		Recorder:   recorder,
		Metrics:    m,
		Logger:     logger,
		ModelID:    provider.ModelID(),
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      server.New(pipeline, m, logger).Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "provider", llmCfg.Provider, "model", provider.ModelID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func listenAddr(cmd *cobra.Command) string {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		return addr
	}
	if addr := os.Getenv("SOCRATIC_ADDR"); addr != "" {
		return addr
	}
	return ":3000"
}
