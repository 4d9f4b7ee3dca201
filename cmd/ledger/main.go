package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"groupledger/internal/backend"
	"groupledger/internal/cli"
	"groupledger/internal/ledger"
	applog "groupledger/internal/log"
)

const usage = `usage: ledger <command> [flags]

commands:
  add      record a new expense or income
  edit     change fields of an unpaid record
  pay      mark a record as paid
  rm       delete a record
  list     show records in display order
  summary  show totals and per-payer amounts
  vocab    show known payers and categories
  export   write the export table to a CSV file or Google Sheet
`

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "ledger:", err)
		}
		os.Exit(1)
	}
}

var (
	errUsage = errors.New("usage")

	// Each command is its own process, so records in memory are lost on exit.
	errMemoryBackend = errors.New("memory backend does not persist between commands: set DATA_BACKEND to sqlite or mongo")
)

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if cfg.DataBackend == string(backend.MemoryBackend) {
		return errMemoryBackend
	}
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentCLI, stderr)

	svc, res, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	env := &cmdEnv{
		ctx:    ctx,
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}
	if err := cmd(env, args[1:]); err != nil {
		logger.Debug("Command failed", applog.NewFields().
			WithOperation(args[0]).
			WithError(err, errorType(err)).
			ToSlice()...)
		return err
	}
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ledger.ErrRecordNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, ledger.ErrRecordSettled):
		return applog.ErrorTypeConflict
	default:
		return applog.ErrorTypeValidation
	}
}
