package cmd

import (
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var logLevel string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cvforge",
	Short: "Generate versioned, tailored resumes",
	Long: `cvforge turns your source documents (PDF, Word, Markdown, text) into a structured
resume tailored to a job description, and renders it to Markdown, Word and HTML.

Every run creates a new immutable version of the profile:

  profiles/<profile>/v<YYYYMMDDhhmm>[-N]/<profile>.<version>.<ext>

Older versions are pruned automatically according to keep_versions.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.cvforge/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")
}

// setup loads .env before any command reads its configuration.
func setup(cmd *cobra.Command, args []string) (err error) {
	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		err = errors.Wrap(err, "failed to load .env")
		return err
	}
	err = nil

	return err
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

// newLogger builds the stderr logger. --verbose forces debug; --log-level beats the config.
func newLogger(configured string) (logger *slog.Logger) {
	name := configured
	if logLevel != "" {
		name = logLevel
	}
	if getVerbose() {
		name = "debug"
	}

	level := slog.LevelInfo
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
