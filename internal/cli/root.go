package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asad/localsession/internal/config"
	"github.com/asad/localsession/internal/core"
	"github.com/asad/localsession/internal/httpx"
	"github.com/asad/localsession/internal/kv"
	"github.com/asad/localsession/internal/logging"
	"github.com/asad/localsession/internal/services/sessionapi"
	"github.com/asad/localsession/internal/session"
	"github.com/asad/localsession/internal/state"
)

var (
	// Version is set at build time via ldflags.
	// Example: go build -ldflags "-X github.com/asad/localsession/internal/cli.Version=1.0.0"
	Version = "dev"
)

// Execute is the entry point for the CLI. It should be called from main.go.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "localsession",
		Short: "Persistent authorization code and session id cache",
		Long: `localsession keeps an authorization code and a session identifier in a
local persistent store (DATA_DIR) and exposes them from the command line or
over a small HTTP API.

Entries: authorization-code, session-id`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:       "get <entry>",
			Short:     "Print an entry's value, or null",
			Args:      cobra.ExactArgs(1),
			ValidArgs: session.Entries,
			RunE:      runGet,
		},
		&cobra.Command{
			Use:   "set <entry> <value>",
			Short: "Store a value for an entry",
			Args:  cobra.ExactArgs(2),
			RunE:  runSet,
		},
		&cobra.Command{
			Use:       "clear <entry>",
			Short:     "Reset an entry to null and remove it from the store",
			Args:      cobra.ExactArgs(1),
			ValidArgs: session.Entries,
			RunE:      runClear,
		},
		&cobra.Command{
			Use:   "new-session",
			Short: "Generate a session id, store it and print it",
			Args:  cobra.NoArgs,
			RunE:  runNewSession,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the session entries over HTTP",
			Long: `Start the HTTP edge server on HTTP_PORT. With the file backend and
WATCH_STORE enabled, changes made by other processes are picked up live.`,
			Args: cobra.NoArgs,
			RunE: runServe,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "localsession version %s\n", Version)
			},
		},
	)

	return rootCmd
}

// env is what every command needs: configuration, a logger and the store.
type env struct {
	cfg    *config.Config
	logger logging.Logger
	store  kv.Store
	close  func() error
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.StoreBackend, err)
	}

	return &env{cfg: cfg, logger: logger, store: store, close: closeStore}, nil
}

func openStore(cfg *config.Config) (kv.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		s, err := kv.NewSQLiteStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return kv.NewMemoryStore(), noop, nil
	default:
		s, err := kv.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	}
}

// withEntry opens the session and resolves the named entry.
func withEntry(name string, fn func(e *env, entry session.Entry) error) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	s, err := session.New(e.store, session.WithLogger(e.logger))
	if err != nil {
		return err
	}
	defer s.Close()

	entry, err := s.Lookup(name)
	if err != nil {
		return err
	}
	return fn(e, entry)
}

func runGet(cmd *cobra.Command, args []string) error {
	return withEntry(args[0], func(_ *env, entry session.Entry) error {
		printValue(cmd.OutOrStdout(), entry.Get())
		return nil
	})
}

func runSet(cmd *cobra.Command, args []string) error {
	value := args[1]
	return withEntry(args[0], func(e *env, entry session.Entry) error {
		if err := entry.Set(&value); err != nil {
			return err
		}
		e.logger.Debug("entry set", logging.String("entry", entry.Name))
		return nil
	})
}

func runClear(cmd *cobra.Command, args []string) error {
	return withEntry(args[0], func(e *env, entry session.Entry) error {
		if err := entry.Clear(); err != nil {
			return err
		}
		e.logger.Debug("entry cleared", logging.String("entry", entry.Name))
		return nil
	})
}

func runNewSession(cmd *cobra.Command, args []string) error {
	return withEntry(session.EntrySessionID, func(_ *env, entry session.Entry) error {
		id := session.NewSessionID()
		if err := entry.Set(&id); err != nil {
			return err
		}
		printValue(cmd.OutOrStdout(), &id)
		return nil
	})
}

func printValue(w io.Writer, v *string) {
	if v == nil {
		fmt.Fprintln(w, "null")
		return
	}
	fmt.Fprintln(w, *v)
}

// runServe starts the HTTP server and blocks until SIGINT/SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	logger := e.logger
	logger.Info("starting localsession",
		logging.String("version", Version),
		logging.Int("http_port", e.cfg.HTTPPort),
		logging.String("data_dir", e.cfg.DataDir),
		logging.String("store_backend", e.cfg.StoreBackend),
		logging.String("log_level", e.cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := state.NewHub()
	s, err := session.New(e.store, session.WithLogger(logger), session.WithHub(hub))
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	defer s.Close()

	if watcher, ok := e.store.(kv.Watcher); ok && e.cfg.WatchStore {
		go func() {
			if err := hub.Follow(ctx, watcher); err != nil {
				logger.Warn("store watcher stopped", logging.ErrorField(err))
			}
		}()
	}

	registry := core.NewRegistry()
	registry.Register(sessionapi.NewService(s, logger))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", e.cfg.HTTPPort),
		Handler:           httpx.NewEdgeRouter(registry, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.String("address", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
