package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"groupledger/internal/config"
	"groupledger/internal/core"
	"groupledger/internal/ledger"
	applog "groupledger/internal/log"
	"groupledger/internal/sheets"
	"groupledger/internal/sheets/csvfile"
	gsheet "groupledger/internal/sheets/google"
)

type cmdEnv struct {
	ctx    context.Context
	svc    *ledger.Service
	cfg    *config.Config
	logger *applog.Logger
	stdout io.Writer
	stderr io.Writer
}

var commands = map[string]func(*cmdEnv, []string) error{
	"add":     cmdAdd,
	"edit":    cmdEdit,
	"pay":     cmdPay,
	"rm":      cmdRemove,
	"list":    cmdList,
	"summary": cmdSummary,
	"vocab":   cmdVocab,
	"export":  cmdExport,
}

func newFlagSet(e *cmdEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func cmdAdd(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "add")
	var f core.Form
	fs.StringVar(&f.Item, "item", "", "item description")
	fs.StringVar(&f.Unit, "unit", "", "quantity or unit")
	fs.StringVar(&f.Category, "category", "", "category")
	fs.StringVar(&f.Amount, "amount", "", "amount, e.g. 12.50")
	fs.StringVar(&f.Payer, "payer", "", "who handled the money")
	fs.StringVar(&f.Note, "note", "", "free-form note")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rec, err := e.svc.Submit(e.ctx, f)
	if err != nil {
		return err
	}
	e.logger.Debug("Record added", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithRecordID(rec.ID).
		WithRecord(rec.Item, rec.Category.String(), rec.Payer.String(), rec.Amount.Cents).
		ToSlice()...)
	fmt.Fprintln(e.stdout, rec.ID)
	return nil
}

// cmdEdit builds a patch from the flags that were set explicitly.
func cmdEdit(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "edit")
	item := fs.String("item", "", "item description")
	unit := fs.String("unit", "", "quantity or unit")
	category := fs.String("category", "", "category")
	amount := fs.String("amount", "", "amount")
	payer := fs.String("payer", "", "payer")
	note := fs.String("note", "", "note")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := recordID(fs)
	if err != nil {
		return err
	}

	var p core.Patch
	var parseErr error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "item":
			v := strings.TrimSpace(*item)
			p.Item = &v
		case "unit":
			v := strings.TrimSpace(*unit)
			p.Unit = &v
		case "category":
			v := core.Category(strings.TrimSpace(*category))
			p.Category = &v
		case "amount":
			cents, err := core.ParseAmount(*amount)
			if err != nil {
				parseErr = err
				return
			}
			v := core.Money{Cents: cents}
			p.Amount = &v
		case "payer":
			v := core.Payer(strings.TrimSpace(*payer))
			p.Payer = &v
		case "note":
			v := strings.TrimSpace(*note)
			p.Note = &v
		}
	})
	if parseErr != nil {
		return parseErr
	}

	if err := e.svc.Refresh(e.ctx); err != nil {
		return err
	}
	return e.svc.Update(e.ctx, id, p)
}

func cmdPay(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "pay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := recordID(fs)
	if err != nil {
		return err
	}
	if err := e.svc.Refresh(e.ctx); err != nil {
		return err
	}
	issued, err := e.svc.MarkPaid(e.ctx, id)
	if err != nil {
		return err
	}
	e.logger.Debug("Settlement handled", applog.NewFields().
		WithOperation(applog.OpSettle).
		WithRecordID(id).
		ToSlice()...)
	if !issued {
		fmt.Fprintln(e.stdout, "already paid")
		return nil
	}
	fmt.Fprintln(e.stdout, "paid")
	return nil
}

func cmdRemove(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := recordID(fs)
	if err != nil {
		return err
	}
	return e.svc.Delete(e.ctx, id)
}

func cmdList(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.svc.Refresh(e.ctx); err != nil {
		return err
	}

	view := e.svc.View()
	rows := core.Export(view.Ordered, e.svc.Config().Classifier(), e.cfg.ExportOptions())
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t"+strings.Join(core.ExportHeader, "\t"))
	for i, r := range rows {
		fmt.Fprintln(tw, view.Ordered[i].ID+"\t"+strings.Join(r.Strings(), "\t"))
	}
	return tw.Flush()
}

func cmdSummary(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.svc.Refresh(e.ctx); err != nil {
		return err
	}
	writeSummary(e.stdout, e.svc.View().Summary)
	return nil
}

func writeSummary(w io.Writer, s core.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", s.TotalIncome)
	fmt.Fprintf(tw, "Expense\t%s\n", s.TotalExpense)
	fmt.Fprintf(tw, "Net balance\t%s\n", s.NetBalance)
	if len(s.PayerTotals) > 0 {
		fmt.Fprintln(tw, "\t")
		for _, pt := range s.PayerTotals {
			fmt.Fprintf(tw, "%s\t%s\n", pt.Payer, pt.Handled)
		}
		fmt.Fprintf(tw, "Total handled\t%s\n", s.GrandHandled)
	}
	tw.Flush()
}

func cmdVocab(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "vocab")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.svc.Refresh(e.ctx); err != nil {
		return err
	}
	v := e.svc.View().Vocabulary
	fmt.Fprintln(e.stdout, "Payers:", joinNames(v.Payers))
	fmt.Fprintln(e.stdout, "Categories:", joinNames(v.Categories))
	return nil
}

func joinNames[T ~string](names []T) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

func cmdExport(e *cmdEnv, args []string) error {
	fs := newFlagSet(e, "export")
	csvPath := fs.String("csv", "", "write to this CSV file, - for stdout")
	toSheet := fs.Bool("sheet", false, "write to the configured Google Sheet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var w sheets.RowWriter
	switch {
	case *toSheet && *csvPath != "":
		return errors.New("choose one of -csv and -sheet")
	case *toSheet:
		client, err := gsheet.NewFromEnv(e.ctx, e.cfg.GoogleSpreadsheetID, e.cfg.GoogleSheetName)
		if err != nil {
			return err
		}
		w = client
	default:
		f := csvfile.New(*csvPath)
		f.Out = e.stdout
		w = f
	}

	if err := e.svc.Refresh(e.ctx); err != nil {
		return err
	}
	ref, err := e.svc.Export(e.ctx, w, e.cfg.ExportOptions())
	if err != nil {
		return err
	}
	if ref != "-" {
		fmt.Fprintln(e.stderr, "exported to", ref)
	}
	return nil
}

func recordID(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", fmt.Errorf("%s: expected exactly one record id", fs.Name())
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}
