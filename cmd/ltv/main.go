// Command ltv reads sales spreadsheets and writes the buyer LTV workbook
// with the "Compradores Recorrentes" and "Métricas Gerais" sheets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"ltv-dashboard/internal/config"
	"ltv-dashboard/internal/models"
	"ltv-dashboard/internal/observability"
	"ltv-dashboard/internal/services"
	"ltv-dashboard/internal/spreadsheet"
)

type options struct {
	inputs       []string
	output       string
	spendAverage string
	filter       models.Filter
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "ltv:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}

	logger := observability.NewLoggerTo(stderr, cfg.Logger)

	mode, err := services.ParseSpendAverage(opts.spendAverage)
	if err != nil {
		return err
	}

	analytics := services.NewAnalytics(
		services.WithSpendAverage(mode),
		services.WithCacheDir(cfg.CacheDir()),
		services.WithLogger(logger),
	)
	if err := analytics.LoadFiles(ctx, opts.inputs...); err != nil {
		return err
	}

	report := analytics.LTV(opts.filter)
	rows := services.MetricRows(report.Metrics)

	if err := spreadsheet.SaveReport(opts.output, report, rows); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	logger.Info("report written",
		"output", opts.output,
		"buyers", report.Metrics.BuyerCount,
		"transactions", report.Metrics.TransactionCount,
	)

	fmt.Fprintf(stdout, "%s: %d compradores\n", opts.output, len(report.Buyers))
	for _, row := range rows {
		fmt.Fprintf(stdout, "%s: %s\n", row.Name, row.Value)
	}
	return nil
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("ltv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		in          = fs.String("in", strings.Join(cfg.Data.SalesFiles, ","), "comma-separated sales spreadsheets (.xlsx or .csv)")
		out         = fs.String("out", "", "output workbook (default LTV-<input suffix>.xlsx)")
		spend       = fs.String("spend-average", cfg.Data.SpendAverage, "average spend basis: per_buyer or per_tax_id")
		months      = fs.String("months", "", "comma-separated month names to keep")
		years       = fs.String("years", "", "comma-separated years to keep")
		platforms   = fs.String("platforms", "", "comma-separated sales platforms to keep")
		salespeople = fs.String("salespeople", "", "comma-separated salespeople to keep")
	)

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{
		inputs:       splitList(*in),
		output:       *out,
		spendAverage: *spend,
		filter: models.Filter{
			Months:      splitList(*months),
			Platforms:   splitList(*platforms),
			Salespeople: splitList(*salespeople),
		},
	}
	if len(opts.inputs) == 0 {
		return options{}, errors.New("no input files given")
	}

	for _, raw := range splitList(*years) {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return options{}, fmt.Errorf("invalid year %q", raw)
		}
		opts.filter.Years = append(opts.filter.Years, y)
	}

	if opts.output == "" {
		opts.output = defaultOutput(opts.inputs[0])
	}
	return opts, nil
}

// splitList returns nil for an empty flag so the filter stays open.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// defaultOutput names the report after the input's last dash-separated
// segment, so "Vendas-totais-jan25.xlsx" becomes "LTV-jan25.xlsx".
func defaultOutput(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if i := strings.LastIndex(base, "-"); i >= 0 && i < len(base)-1 {
		base = base[i+1:]
	}
	return "LTV-" + base + ".xlsx"
}
