// Command recurdates prints the dates of a recurring series.
//
//	recurdates -start 2024-01-31 -type monthly -count 5
//	recurdates -start 2024-02-29 -type yearly -until 2040-12-31 -format ics
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/cyp0633/recurdate/daterange"
	"github.com/cyp0633/recurdate/internal/i18n"
	"github.com/cyp0633/recurdate/internal/render"
	"github.com/cyp0633/recurdate/recurrence"
	"github.com/cyp0633/recurdate/series"
)

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

const (
	appName = "recurdates"

	exitCodeSuccess = 0
	exitCodeError   = 1
)

// main delegates to runMain so deferred calls run before os.Exit.
func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	start    string
	repeat   string
	interval int
	count    int
	until    string
	rrule    string
	ics      string
	title    string
	format   string
	lang     string
	strict   bool
	cache    bool
	debug    bool
	version  bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.start, "start", "", "Anchor date (YYYY-MM-DD)")
	fs.StringVar(&opts.repeat, "type", string(recurrence.Daily),
		"Repeat type: none, "+strings.Join(repeatTypeNames(), ", "))
	fs.IntVar(&opts.interval, "interval", 1, "Repeat every N periods")
	fs.IntVar(&opts.count, "count", 0, "Number of occurrences (default 999 without -until)")
	fs.StringVar(&opts.until, "until", "", "Inclusive end date or datetime")
	fs.StringVar(&opts.rrule, "rrule", "", "RFC 5545 RRULE value, replaces -type, -interval, -count and -until")
	fs.StringVar(&opts.ics, "ics", "", "iCalendar file whose first VEVENT supplies DTSTART, RRULE and SUMMARY")
	fs.StringVar(&opts.title, "title", "", "Event title used by ics output")
	fs.StringVar(&opts.format, "format", string(render.FormatText), "Output format: "+strings.Join(formatNames(), ", "))
	fs.StringVar(&opts.lang, "lang", i18n.DefaultLanguage, "Message language: "+strings.Join(i18n.Languages(), ", "))
	fs.BoolVar(&opts.strict, "strict", false, "Use the strict engine ceilings")
	fs.BoolVar(&opts.cache, "cache", false, "Memoize expansions")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging to stderr")
	fs.BoolVar(&opts.version, "version", false, "Show version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	switch {
	case opts.rrule != "" && opts.ics != "":
		return options{}, errors.New("-rrule and -ics are mutually exclusive")
	case opts.rrule != "" && (set["type"] || set["interval"] || set["count"] || set["until"]):
		return options{}, errors.New("-rrule cannot be combined with -type, -interval, -count or -until")
	case opts.ics != "" && (set["start"] || set["type"] || set["interval"] || set["count"] || set["until"]):
		return options{}, errors.New("-ics cannot be combined with -start, -type, -interval, -count or -until")
	}
	return opts, nil
}

// runMain parses args, plans the series and writes it to stdout. Diagnostics
// go to stderr.
func runMain(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCodeSuccess
		}
		fmt.Fprintln(stderr, err)
		return exitCodeError
	}

	if opts.version {
		fmt.Fprintf(stdout, "%s version %s (%s) %s/%s\n", appName, Version, Commit, runtime.GOOS, runtime.GOARCH)
		return exitCodeSuccess
	}

	logger := setupLogging(stderr, opts.debug)
	tr := i18n.New(opts.lang, logger)

	if err := run(opts, stdout, stderr, logger, tr); err != nil {
		logger.Debug("run failed", "error", err)
		fmt.Fprintln(stderr, tr.Error(err))
		return exitCodeError
	}
	return exitCodeSuccess
}

func run(opts options, stdout, stderr io.Writer, logger *slog.Logger, tr *i18n.Translator) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	config := recurrence.DefaultEngineConfig
	if opts.strict {
		config = recurrence.StrictEngineConfig
	}
	if opts.cache {
		config.CacheEnabled = true
		config.CacheConfig = recurrence.CachedEngineConfig.CacheConfig
	}
	engine := recurrence.NewEngineWithConfig(config, logger)
	defer engine.Close()

	plan, err := planSeries(opts, series.NewPlanner(engine, logger))
	if err != nil {
		return err
	}

	if plan.Warning != daterange.NoWarning {
		fmt.Fprintln(stderr, tr.Translate(string(plan.Warning)))
	}
	if plan.Truncated {
		fmt.Fprintln(stderr, tr.Translate("truncated"))
	}
	logger.Debug("series ready",
		"events", len(plan.Events),
		"format", string(format))

	return render.Write(stdout, format, plan)
}

// planSeries builds the plan from whichever input the flags name.
func planSeries(opts options, planner *series.Planner) (series.Plan, error) {
	switch {
	case opts.ics != "":
		f, err := os.Open(opts.ics)
		if err != nil {
			return series.Plan{}, fmt.Errorf("failed to open %s: %w", opts.ics, err)
		}
		defer f.Close()
		return planner.PlanICS(f)
	case opts.rrule != "":
		rule, target, err := recurrence.ParseRRule(opts.rrule)
		if err != nil {
			return series.Plan{}, err
		}
		return planner.PlanRule(series.Form{Title: opts.title, Date: opts.start}, rule, target)
	default:
		return planner.Plan(series.Form{
			Title: opts.title,
			Date:  opts.start,
			Repeat: series.Repeat{
				Type:     opts.repeat,
				Interval: opts.interval,
				EndDate:  opts.until,
				Count:    opts.count,
			},
		})
	}
}

// setupLogging builds a text logger on w. Only warnings are shown unless
// debug is set.
func setupLogging(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
}

func repeatTypeNames() []string {
	names := make([]string, len(recurrence.RepeatTypes))
	for i, t := range recurrence.RepeatTypes {
		names[i] = string(t)
	}
	return names
}

func formatNames() []string {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return names
}
