// Command dtquery answers dashboard queries from the command line.
//
// With -stock it prints the lookup report of one stock as JSON. With -export
// it writes the explorer records of a selection to a CSV or XLSX file; the
// format follows the file extension and a directory gets a timestamped file
// name. Without either it prints the dataset overview. Explorer stocks
// match the stock column as read, so a CSV code 000002 is selected as 2.
//
//	dtquery -file data.xlsx -stock 000001 -year 2020
//	dtquery -file data.xlsx -stocks 平安银行,万科A -years 2019,2020 -export out.csv
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dtindex/internal/analytics"
	"dtindex/internal/config"
	"dtindex/internal/dataprocessing"
	"dtindex/internal/exporter"
	"dtindex/internal/infrastructure"
	"dtindex/internal/services"
)

var errUsage = errors.New("usage")

type options struct {
	file       string
	stock      string
	year       int
	export     string
	stocks     string
	years      string
	industries string
	allColumns bool
	verbose    bool
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "dtquery: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("dtquery", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", "", "dataset file (.xlsx or .csv); defaults to the configured dataset")
	fs.StringVar(&opts.stock, "stock", "", "stock code for the lookup report")
	fs.IntVar(&opts.year, "year", 0, "report year; 0 uses the configured default")
	fs.StringVar(&opts.export, "export", "", "write the explorer records to this .csv/.xlsx file or directory")
	fs.StringVar(&opts.stocks, "stocks", "", "comma separated stocks for -export")
	fs.StringVar(&opts.years, "years", "", "comma separated years for -export")
	fs.StringVar(&opts.industries, "industries", "", "comma separated industries for -export")
	fs.BoolVar(&opts.allColumns, "all-columns", false, "export every column instead of the key columns")
	fs.BoolVar(&opts.verbose, "v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return opts, errUsage
	}
	if opts.stock != "" && opts.export != "" {
		fmt.Fprintln(stderr, "-stock and -export are mutually exclusive")
		return opts, errUsage
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "using default configuration: %v\n", err)
		cfg = config.Default()
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := infrastructure.NewJSONLogger(stderr, &slog.HandlerOptions{Level: level})

	newSource := func() (dataprocessing.Source, []string, error) {
		return services.BuildSource(cfg.Dataset, logger)
	}
	if opts.file != "" {
		src, err := dataprocessing.FileSource(opts.file, cfg.Dataset.Sheet, logger)
		if err != nil {
			return err
		}
		newSource = services.StaticSource(src)
	}

	dataset := services.NewDatasetService(newSource, services.DatasetOptions{
		Schema:      services.SchemaFrom(cfg.Explorer),
		Limits:      services.LimitsFrom(cfg.Explorer),
		LoadTimeout: cfg.Dataset.LoadTimeout,
		Logger:      logger,
	})

	switch {
	case opts.stock != "":
		lookup := services.NewLookupService(dataset, cfg.Lookup, nil, nil, logger)
		report, err := lookup.Report(ctx, opts.stock, opts.year)
		if err != nil {
			return err
		}
		return printJSON(stdout, report)

	case opts.export != "":
		filter, err := parseFilter(opts)
		if err != nil {
			return err
		}
		explorer := services.NewExplorerService(dataset, nil, nil, logger)
		table, err := explorer.ExportTable(ctx, filter, opts.allColumns)
		if err != nil {
			return err
		}
		path, err := writeExport(opts.export, table, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %d rows to %s\n", table.Len(), path)
		return nil

	default:
		overview, err := dataset.Overview(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, overview)
	}
}

func parseFilter(opts options) (analytics.Filter, error) {
	f := analytics.Filter{
		Stocks:     splitList(opts.stocks),
		Industries: splitList(opts.industries),
	}
	for _, item := range splitList(opts.years) {
		y, err := strconv.Atoi(item)
		if err != nil {
			return f, fmt.Errorf("invalid year %q", item)
		}
		f.Years = append(f.Years, y)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// writeExport writes table to path. The format follows the extension; a
// directory receives a timestamped CSV.
func writeExport(path string, table *dataprocessing.Table, logger *slog.Logger) (string, error) {
	exp := exporter.New(config.ExportFilePrefix, logger)

	format := exporter.FormatCSV
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, exp.FileName(format))
	} else {
		format, err = exporter.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := exp.WriteFile(path, format, table); err != nil {
		return "", err
	}
	return path, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
