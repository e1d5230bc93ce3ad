package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/epharmacy/locator-web/config"
	"github.com/epharmacy/locator-web/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type storeOpener func(ctx context.Context, deps bootstrap.StoreDeps) (*bootstrap.StoreBundle, error)

type commandContext struct {
	Ctx       context.Context
	Logger    *slog.Logger
	Config    config.AppConfig
	Out       io.Writer
	In        io.Reader
	OpenStore storeOpener
	Now       func() time.Time
}

func main() {
	logger := bootstrap.InitLogger(config.LogConfig{Format: "text"})

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:       context.Background(),
		Logger:    logger,
		Config:    cfg,
		Out:       os.Stdout,
		In:        os.Stdin,
		OpenStore: bootstrap.BuildClientStore,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run Postgres client state migrations",
			run:         runMigrations,
		},
		"show-state": {
			name:        "show-state",
			description: "Print the session record and last visited path for a client",
			run:         runShowState,
		},
		"clear-state": {
			name:        "clear-state",
			description: "Sign a client out by removing its session record and last visited path",
			run:         runClearState,
		},
		"purge-state": {
			name:        "purge-state",
			description: "Remove expired client state from backends without native expiry",
			run:         runPurgeState,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: epharmacy-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-14s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// openStore connects the configured backend and returns it with a release func.
func (c *commandContext) openStore() (*bootstrap.StoreBundle, func(), error) {
	open := c.OpenStore
	if open == nil {
		open = bootstrap.BuildClientStore
	}
	bundle, err := open(c.Ctx, bootstrap.StoreDeps{Config: &c.Config, Logger: c.Logger})
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if closeErr := bundle.Close(); closeErr != nil {
			c.Logger.Warn("client store close failed", "error", closeErr)
		}
	}
	return bundle, release, nil
}

func (c *commandContext) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// confirm asks on Out and reads the answer from In.
func (c *commandContext) confirm(action string) error {
	if err := writef(c.Out, "About to %s.\nContinue? [y/N]: ", action); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
