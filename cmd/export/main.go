// Command export fetches one data source with a query state and writes it
// as JSON, CSV, a chart page or a text table.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"xelis-stats/internal/chart"
	"xelis-stats/internal/config"
	"xelis-stats/internal/controls"
	"xelis-stats/internal/i18n"
	"xelis-stats/internal/logging"
	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/table"
	"xelis-stats/internal/view"
	"xelis-stats/internal/viewapi"
	"xelis-stats/internal/viewapi/stub"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatHTML  = "html"
	FormatTable = "table"
)

var errUsage = errors.New("usage")

type exportFlags struct {
	source string
	query  string
	format string
	out    string
	theme  string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "export:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	var ef exportFlags
	fs.StringVar(&ef.source, "source", "", "data source key, e.g. blocks_by_time")
	fs.StringVar(&ef.query, "query", "", "view query string, e.g. period=3600&view=chart&chart_key=block_count")
	fs.StringVar(&ef.format, "format", FormatJSON, "json, csv, html or table")
	fs.StringVar(&ef.out, "out", "", "output file, stdout when empty")
	fs.StringVar(&ef.theme, "theme", string(chart.ThemeLight), "chart theme for html: light or dark")
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if ef.source == "" {
		fmt.Fprintln(os.Stderr, "--source is required")
		fs.PrintDefaults()
		return errUsage
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	var f viewapi.Fetcher
	if cfg.UseFixtures {
		f = stub.Fixtures(time.Now())
	} else {
		f = viewapi.NewHTTPClient(cfg.Endpoint,
			viewapi.WithTimeout(cfg.FetchTimeout),
			viewapi.WithMaxRetries(cfg.FetchRetries),
			viewapi.WithLogger(logger),
		)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := stdout
	if ef.out != "" {
		file, err := os.Create(ef.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := export(ctx, w, f, i18n.Match(cfg.Locale), ef, logger); err != nil {
		return err
	}
	if ef.out != "" {
		logger.Info("export written", "source", ef.source, "format", ef.format, "file", ef.out)
	}
	return nil
}

func export(ctx context.Context, w io.Writer, f viewapi.Fetcher, lang language.Tag, ef exportFlags, logger *slog.Logger) error {
	state, err := query.ParseQuery(ef.query)
	if err != nil {
		return err
	}
	if ef.format == FormatHTML {
		state.View = query.ViewChart
	}

	registry := source.NewRegistry(func(p *message.Printer) []*source.Source {
		return source.Catalog(f, p)
	})
	theme := chart.Theme(ef.theme)
	res := view.NewPage(registry, view.Options{Theme: theme, Logger: logger}).Open(ctx, lang, ef.source, state)
	if res.Source.IsEmpty() {
		return fmt.Errorf("unknown source %q", ef.source)
	}
	if res.Err != nil {
		return res.Err
	}

	switch ef.format {
	case FormatJSON:
		return controls.ExportJSON(w, res.Rows)
	case FormatCSV:
		return controls.ExportCSV(w, res.Source, res.Rows)
	case FormatTable:
		return table.WriteText(w, res.Table)
	case FormatHTML:
		if res.Series == nil {
			return fmt.Errorf("html export needs chart_key in --query")
		}
		return view.RenderChart(w, res, theme)
	}
	return fmt.Errorf("unknown format %q", ef.format)
}
