// Package session wires configuration, logging and the answer service into a
// chat.Controller for the chatbox commands.
package session

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/papercomputeco/chatbox/pkg/chat"
	"github.com/papercomputeco/chatbox/pkg/config"
	"github.com/papercomputeco/chatbox/pkg/gemini"
	"github.com/papercomputeco/chatbox/pkg/logger"
)

// Flags are the persistent flags shared by every chatbox command.
type Flags struct {
	ConfigPath string
	EnvFile    string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	Debug      bool
	LogFile    string
}

// Register adds the flags to cmd as persistent flags.
func (f *Flags) Register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default $XDG_CONFIG_HOME/chatbox/config.toml)")
	pf.StringVar(&f.EnvFile, "env-file", "", "Path to a dotenv file (default .env)")
	pf.StringVar(&f.APIKey, "api-key", "", "API key (prefer "+config.EnvAPIKey+")")
	pf.StringVarP(&f.Model, "model", "m", "", "Model name")
	pf.StringVar(&f.BaseURL, "base-url", "", "API base URL")
	pf.DurationVar(&f.Timeout, "timeout", 0, "Timeout for a single answer")
	pf.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&f.LogFile, "log-file", "", "Write logs to this file")
}

// Session is an open chat session.
type Session struct {
	Config     *config.Config
	Logger     *zap.Logger
	Client     *gemini.Client
	Controller *chat.Controller

	closers []io.Closer
}

// Open loads configuration for cmd, applies any flags that were set, and
// builds the controller. Logs go to the configured log file; without one they
// go to stderr, or nowhere when quietStderr is set because a full-screen UI
// owns the terminal.
func Open(cmd *cobra.Command, f *Flags, quietStderr bool) (*Session, error) {
	cfg, err := config.Load(config.LoadOptions{Path: f.ConfigPath, EnvFile: f.EnvFile})
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Session{Config: cfg}

	switch {
	case cfg.LogFile != "":
		log, closer, err := logger.NewFileLogger(cfg.Debug, cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("could not open log file %s: %w", cfg.LogFile, err)
		}
		s.Logger = log
		s.closers = append(s.closers, closer)
	case quietStderr:
		s.Logger = zap.NewNop()
	default:
		s.Logger = logger.New(cfg.Debug, zapcore.Lock(os.Stderr), term.IsTerminal(int(os.Stderr.Fd())))
	}

	client, err := gemini.New(cfg.Gemini(), s.Logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("could not create answer service client: %w", err)
	}
	s.Client = client

	s.Controller = chat.NewController(client,
		chat.WithLogger(s.Logger),
		chat.WithTimeout(cfg.Timeout.Duration),
	)

	s.Logger.Debug("chat session opened",
		zap.String("endpoint", client.Endpoint()),
		zap.String("model", client.Model()),
		zap.Duration("timeout", cfg.Timeout.Duration),
	)

	return s, nil
}

// Close tears the controller down and flushes logs.
func (s *Session) Close() {
	if s.Controller != nil {
		s.Controller.Close()
	}
	if s.Logger != nil {
		_ = s.Logger.Sync()
	}
	for _, c := range s.closers {
		_ = c.Close()
	}
}

func (f *Flags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("api-key") {
		cfg.APIKey = f.APIKey
	}
	if flags.Changed("model") {
		cfg.Model = f.Model
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = f.BaseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: f.Timeout}
	}
	if flags.Changed("debug") {
		cfg.Debug = f.Debug
	}
	if flags.Changed("log-file") {
		cfg.LogFile = f.LogFile
	}
}
