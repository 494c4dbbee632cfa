// Package cli is the terminal front end of the task manager.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BuzzLyutic/task-sync/internal/client"
	"github.com/BuzzLyutic/task-sync/internal/config"
	"github.com/BuzzLyutic/task-sync/internal/store"
)

// app is the state shared by all commands of one invocation.
type app struct {
	configPath string
	serverURL  string
	logLevel   string

	cfg      config.Client
	logger   *zap.Logger
	api      *client.Client
	tasks    *store.Store
	sessions *sessionFile
}

// NewRootCmd builds the todo command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "todo",
		Short: "Manage your tasks from the terminal",
		Long: `todo talks to a task-sync item store.

Log in once with "todo login", then list, add, edit and complete tasks.
"todo watch" keeps running and prints reminders for tasks that are due soon.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(cmd) },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	// Global flags
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&a.serverURL, "server", "", "Item store URL (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newDoneCmd(a),
		newRemoveCmd(a),
		newEditCmd(a),
		newWatchCmd(a),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version

	if err := root.Execute(); err != nil {
		if errors.Is(err, store.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "session expired, run `todo login`")
			return err
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command) error {
	_ = godotenv.Load()

	cfg, err := config.LoadClient(a.configPath)
	if err != nil {
		return err
	}
	if a.serverURL != "" {
		cfg.ServerURL = a.serverURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.api, err = client.New(cfg.ServerURL, client.WithLogger(a.logger.Named("client")))
	if err != nil {
		return err
	}

	a.sessions, err = openSessionFile(cfg.SessionFile)
	if err != nil {
		return err
	}
	if token, ok := a.sessions.Load(cfg.ServerURL); ok {
		a.api.SetSession(token)
	}

	a.tasks = store.New(a.api,
		store.WithLogger(a.logger.Named("store")),
		store.WithSessionExpired(func() {
			if err := a.sessions.Clear(); err != nil {
				a.logger.Warn("remove session file", zap.Error(err))
			}
		}),
	)
	return nil
}

// userError prefers the message the store recorded for the last failure.
func (a *app) userError(err error) error {
	if errors.Is(err, store.ErrSessionExpired) {
		return err
	}
	if msg := a.tasks.Message(); msg != "" {
		return errors.New(msg)
	}
	return err
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
