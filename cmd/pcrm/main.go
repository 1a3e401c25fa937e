// Command pcrm is a personal CRM: it tracks contacts and the meetings held
// with them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/maruel/pcrm/internal/config"
	"github.com/maruel/pcrm/internal/crm"
	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/history"
	"github.com/maruel/pcrm/internal/view"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, view.Error(err))
		os.Exit(crmerrors.ExitCode(err))
	}
}

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()),
	}
	defer a.close()
	return newRootCmd(a).ExecuteContext(ctx)
}

// app holds the state shared by the commands of one invocation.
type app struct {
	cfgPath     string
	logLevel    string
	in          io.Reader
	out         io.Writer
	interactive bool

	cfg      *config.Config
	svc      *crm.Service
	closeLog func()
}

// open loads the settings and the database. With history enabled every
// mutation is committed.
func (a *app) open() error {
	if a.svc != nil {
		return nil
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	svc, err := crm.Open(cfg, a.cfgPath)
	if err != nil {
		return err
	}
	if cfg.History {
		rec, err := history.Open(cfg.Database)
		if err != nil {
			return err
		}
		svc.Observe(rec)
	}
	a.cfg = cfg
	a.svc = svc
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func version() string {
	v := "dev"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	revision, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if revision != "" {
		v += " (" + revision
		if dirty {
			v += "-dirty"
		}
		v += ")"
	}
	return v + " " + info.GoVersion
}
