package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/spf13/cobra"
)

// annotDaemon marks long-running commands, which log to stdout. The others keep
// stdout for their output (or the MCP protocol) and log to stderr.
const annotDaemon = "daemon"

// main delegates to runMain so that deferred calls (closing log files and
// the database) run before os.Exit.
func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &cli{}
	defer c.close()

	if err := c.rootCmd().ExecuteContext(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}
	return config.ExitCodeSuccess
}

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	debug      bool

	settings  *config.Settings
	logCloser io.Closer
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   config.CommandName,
		Short: "Care reminders for a baby's first years",
		Long: `Baby Bloom keeps feeding, diaper, sleep, vaccination, medication and
appointment reminders in sync with the care journal, and notifies on time.

Examples:
  # Run the tray app
  baby-bloom tray

  # Run headless with Telegram notifications and the calendar feed
  baby-bloom serve

  # Log a bottle and see what comes next
  baby-bloom log feeding --type bottle --amount 120
  baby-bloom reminders list`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logOut := io.Writer(os.Stderr)
			if cmd.Annotations[annotDaemon] != "" {
				logOut = os.Stdout
			}
			c.logCloser = setupLogging(c.debug, logOut)
			logStartupInfo()

			s, err := config.LoadSettings(c.configPath)
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}
			c.settings = s
			return nil
		},
	}
	root.SetVersionTemplate(fmt.Sprintf(config.MsgVersionOutput, config.AppName, config.Version, runtime.GOOS, runtime.GOARCH))

	root.PersistentFlags().StringVar(&c.configPath, config.FlagConfig, config.DefaultConfigPath, config.FlagDescConfig)
	root.PersistentFlags().BoolVar(&c.debug, config.FlagDebug, false, config.FlagDescDebug)

	root.AddCommand(
		c.serveCmd(),
		c.trayCmd(),
		c.mcpCmd(),
		c.logCmd(),
		c.remindersCmd(),
		c.profileCmd(),
		c.careCmd(),
		c.telegramCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Skips settings and logging.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), config.MsgVersionOutput,
				config.AppName,
				config.Version,
				runtime.GOOS,
				runtime.GOARCH,
			)
		},
	}
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Debug(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyBuilt, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger to write JSON to out and to
// a log file in the user's cache directory.
func setupLogging(debugMode bool, out io.Writer) io.Closer {
	writers := []io.Writer{out}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts)))

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
