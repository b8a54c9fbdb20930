// Command contactdir looks up phone numbers in the macOS Contacts app.
//
// Usage:
//
//	contactdir list
//	contactdir find <name>
//	contactdir phone <number>
//	contactdir unread [limit]
//	contactdir serve
//
// Results are printed as JSON. serve runs an MCP server over stdio.
//
// Environment:
//
//	CONTACTDIR_MAX_CONTACTS  people walked per query (default 100)
//	CONTACTDIR_TIMEOUT       per-lookup deadline (default 5s)
//	CONTACTDIR_LOG_LEVEL     debug, info, warn, error (default warn)
//	CONTACTDIR_MESSAGES_DB   chat.db path (default ~/Library/Messages/chat.db)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spachava753/contactdir/macos/contacts"
	"github.com/spachava753/contactdir/macos/messages"
	"github.com/spachava753/contactdir/mcptools"
)

var version = "dev"

const usage = `usage: contactdir <command> [args]

commands:
  list             list contacts with phone numbers
  find <name>      phone numbers for contacts matching name
  phone <number>   contact name owning number
  unread [limit]   unread Messages conversations with contact names
  serve            run the MCP tool server on stdio`

var (
	errUsage    = errors.New(usage)
	errNotFound = errors.New("not found")
)

type config struct {
	MaxContacts int
	Timeout     time.Duration
	LogLevel    zapcore.Level
	MessagesDB  string
}

func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		MaxContacts: contacts.DefaultMaxContacts,
		Timeout:     contacts.DefaultTimeout,
		LogLevel:    zapcore.WarnLevel,
		MessagesDB:  getenv("CONTACTDIR_MESSAGES_DB"),
	}
	if v := env(getenv, "CONTACTDIR_MAX_CONTACTS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return config{}, fmt.Errorf("CONTACTDIR_MAX_CONTACTS: invalid value %q", v)
		}
		cfg.MaxContacts = n
	}
	if v := env(getenv, "CONTACTDIR_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return config{}, fmt.Errorf("CONTACTDIR_TIMEOUT: invalid value %q", v)
		}
		cfg.Timeout = d
	}
	if err := cfg.LogLevel.Set(env(getenv, "CONTACTDIR_LOG_LEVEL", "warn")); err != nil {
		return config{}, fmt.Errorf("CONTACTDIR_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func env(getenv func(string) string, key, def string) string {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	return v
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

type app struct {
	cfg    config
	dir    *contacts.Directory
	store  *messages.Store
	logger *zap.Logger
	stdout io.Writer
}

func newApp(cfg config, logger *zap.Logger, stdout io.Writer) *app {
	dir := contacts.New(contacts.Config{MaxContacts: cfg.MaxContacts, Logger: logger})
	return &app{
		cfg:    cfg,
		dir:    dir,
		store:  &messages.Store{Path: cfg.MessagesDB, Contacts: dir, Logger: logger.Named("messages")},
		logger: logger,
		stdout: stdout,
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	if cmd == "serve" {
		server := mcptools.NewServer(mcptools.Config{
			Directory: a.dir,
			Version:   version,
			Timeout:   a.cfg.Timeout,
			Logger:    a.logger,
		})
		a.logger.Info("serving MCP on stdio", zap.String("version", version))
		return server.Run(ctx, &mcp.StdioTransport{})
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	switch cmd {
	case "list":
		return a.print(a.dir.GetAllNumbers(ctx))
	case "find":
		if len(rest) == 0 {
			return errUsage
		}
		return a.print(a.dir.FindNumber(ctx, strings.Join(rest, " ")))
	case "phone":
		if len(rest) == 0 {
			return errUsage
		}
		name, ok := a.dir.FindContactByPhone(ctx, strings.Join(rest, " "))
		if err := a.print(mcptools.FindByPhoneOutput{Found: ok, Name: name}); err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		return nil
	case "unread":
		limit := 0
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("unread: invalid limit %q", rest[0])
			}
			limit = n
		}
		unread, err := a.store.ListUnreadConversations(ctx, limit)
		if err != nil {
			return err
		}
		return a.print(unread)
	default:
		return errUsage
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = newApp(cfg, logger, os.Stdout).run(ctx, os.Args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNotFound):
		return 1
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, usage)
		return 2
	default:
		logger.Error("command failed", zap.Error(err))
		return 1
	}
}
