// Command footprint consolidates macOS activity databases into unified.db.
//
// Usage:
//
//	footprint extract [all|messages|chrome|knowledgeC|podcasts ...]
//	footprint scan                     # where each source database is
//	footprint stats [-dir <output>]    # record counts and time range
//	footprint runs [-source s] [-limit n] [-id run_...]
//	footprint activity [-days n] [-limit n] [-dir <output>]
//	footprint mcp                      # serve MCP tools over stdio
//
// Global flags come before the command:
//
//	footprint -config footprint.yaml -output ~/footprint extract chrome
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
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/quantself/footprint"
)

const version = "0.3.0"

type globals struct {
	configPath string
	outputDir  string
	home       string
	verbose    bool
	quiet      bool
	jsonOut    bool
	logJSON    bool
	traceSQL   bool
}

func main() {
	var g globals
	flag.StringVar(&g.configPath, "config", "", "path to footprint.yaml config file")
	flag.StringVar(&g.outputDir, "output", "", "directory holding unified.db (overrides config)")
	flag.StringVar(&g.home, "home", "", "home directory used to expand ~ in source paths")
	flag.BoolVar(&g.verbose, "v", false, "debug logging")
	flag.BoolVar(&g.quiet, "q", false, "only log warnings and errors")
	flag.BoolVar(&g.jsonOut, "json", false, "print results as JSON")
	flag.BoolVar(&g.logJSON, "log-json", false, "log as JSON instead of text")
	flag.BoolVar(&g.traceSQL, "trace-sql", false, "log every SQL statement at debug level")
	flag.Usage = usage
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := resolveConfig(g)
	if err != nil {
		fmt.Fprintln(os.Stderr, "footprint:", err)
		os.Exit(2)
	}
	logger := newLogger(g, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ok, err := run(ctx, logger, cfg, g, flag.Args())
	if err != nil {
		logger.Error("footprint: fatal", "error", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: footprint [flags] <command> [args]

commands:
  extract [all|source ...]  extract sources into unified.db (default: all enabled)
  scan                      report where each source database is
  stats [-dir path]         record counts and time range of unified.db
  runs [-source s] [-limit n] [-id run]
                            list extraction runs, newest first
  activity [-days n] [-limit n] [-dir path]
                            screen time, browsing, messages, podcasts, devices
  mcp                       serve MCP tools over stdio

flags:
`)
	flag.PrintDefaults()
}

// resolveConfig layers defaults, the config file, FOOTPRINT_* variables
// and command-line flags, in that order.
func resolveConfig(g globals) (*footprint.Config, error) {
	cfg := footprint.DefaultConfig()
	if g.configPath != "" {
		var err error
		if cfg, err = footprint.LoadConfig(g.configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.outputDir != "" {
		cfg.OutputDir = g.outputDir
	}
	if g.home != "" {
		cfg.Home = g.home
	}
	if g.verbose {
		cfg.Verbose = true
	}
	if g.quiet {
		cfg.Verbose = false
	}
	if g.traceSQL {
		cfg.TraceSQL = true
	}
	return cfg, cfg.Validate()
}

func newLogger(g globals, cfg *footprint.Config) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case g.verbose || cfg.TraceSQL:
		level = slog.LevelDebug
	case !cfg.Verbose:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if g.logJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// run executes one command. ok is false when the command ran but reported
// a failure, such as a source that did not extract.
func run(ctx context.Context, logger *slog.Logger, cfg *footprint.Config, g globals, args []string) (ok bool, err error) {
	if len(args) == 0 {
		usage()
		return false, nil
	}
	svc, err := footprint.New(cfg, logger)
	if err != nil {
		return false, fmt.Errorf("init: %w", err)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "extract":
		return extract(ctx, svc, g, rest)
	case "scan":
		return true, scan(ctx, svc, g)
	case "stats":
		return stats(ctx, svc, g, rest)
	case "runs":
		return true, runs(ctx, svc, g, rest)
	case "activity":
		return activity(ctx, svc, g, rest)
	case "mcp":
		return true, serveMCP(ctx, svc, logger)
	default:
		usage()
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

func extract(ctx context.Context, svc *footprint.Service, g globals, args []string) (bool, error) {
	var rep *footprint.Report
	var err error
	if len(args) == 0 || (len(args) == 1 && args[0] == "all") {
		rep, err = svc.ExtractAll(ctx)
	} else {
		kinds := make([]footprint.Kind, 0, len(args))
		for _, a := range args {
			k, perr := footprint.ParseKind(a)
			if perr != nil {
				return false, perr
			}
			kinds = append(kinds, k)
		}
		rep, err = svc.ExtractSources(ctx, kinds...)
	}
	if err != nil {
		return false, err
	}

	if g.jsonOut {
		return rep.Success, writeJSON(os.Stdout, rep)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tADDED\tSKIPPED\tDETAIL")
	for _, r := range rep.Results {
		detail := r.Message
		if r.Success() {
			detail = r.SourcePath
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Source, r.Status,
			humanize.Comma(r.RecordsAdded), humanize.Comma(r.RecordsSkipped), detail)
	}
	tw.Flush()
	fmt.Printf("\n%s added, %s skipped in %s\n",
		humanize.Comma(rep.TotalAdded), humanize.Comma(rep.TotalSkipped), rep.Duration.Round(time.Millisecond))
	if !rep.Success {
		fmt.Println(rep.Message)
	}
	return rep.Success, nil
}

func scan(ctx context.Context, svc *footprint.Service, g globals) error {
	infos := svc.ScanSources(ctx)
	if g.jsonOut {
		return writeJSON(os.Stdout, map[string]any{"sources": infos})
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tNAME\tSTATE\tSIZE\tMODIFIED\tEXTRACTED\tPATH")
	for _, i := range infos {
		state := "missing"
		switch {
		case i.Accessible:
			state = "ok"
		case i.PermissionDenied:
			state = "no access"
		case i.Found:
			state = "unreadable"
		}
		modified := ""
		if i.LastModified != nil {
			modified = humanize.Time(*i.LastModified)
		}
		extracted := "never"
		if i.LastExtracted != nil {
			extracted = humanize.Time(*i.LastExtracted)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", i.Source, i.Name, state, i.Size, modified, extracted, i.Path)
	}
	return tw.Flush()
}

func stats(ctx context.Context, svc *footprint.Service, g globals, args []string) (bool, error) {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory holding unified.db (default: output dir)")
	if err := fs.Parse(args); err != nil {
		return false, err
	}

	st, err := svc.StoreStats(ctx, *dir)
	if errors.Is(err, footprint.ErrStoreNotFound) {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "run `footprint extract` first")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if g.jsonOut {
		return true, writeJSON(os.Stdout, st)
	}

	fmt.Printf("%s (%s)\n\n", st.Path, st.Size)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, tc := range st.Tables {
		fmt.Fprintf(tw, "%s\t%s\t\n", tc.Table, humanize.Comma(tc.Rows))
	}
	fmt.Fprintf(tw, "total\t%s\t\n", humanize.Comma(st.Total))
	tw.Flush()
	if st.Earliest != nil && st.Latest != nil {
		fmt.Printf("\n%s to %s\n", st.Earliest.Format(time.DateOnly), st.Latest.Format(time.DateOnly))
	}
	fmt.Printf("%s extraction runs\n", humanize.Comma(st.Runs))
	return true, nil
}

func runs(ctx context.Context, svc *footprint.Service, g globals, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	source := fs.String("source", "", "only runs of this source")
	limit := fs.Int("limit", 20, "max rows")
	id := fs.String("id", "", "show only this run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var list []*footprint.Run
	if *id != "" {
		r, err := svc.GetRun(ctx, *id)
		if err != nil {
			return err
		}
		list = append(list, r)
	} else {
		var err error
		if list, err = svc.ListRuns(ctx, *source, *limit); err != nil {
			return err
		}
	}
	if g.jsonOut {
		return writeJSON(os.Stdout, map[string]any{"runs": list})
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tSTARTED\tSTATUS\tADDED\tSKIPPED\tERROR")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Source,
			humanize.Time(time.Unix(r.StartedAt, 0)), r.Status,
			humanize.Comma(r.RecordsAdded), humanize.Comma(r.RecordsSkipped), r.ErrorMessage)
	}
	return tw.Flush()
}

func activity(ctx context.Context, svc *footprint.Service, g globals, args []string) (bool, error) {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	days := fs.Int("days", 7, "only the last n days (0: all time)")
	limit := fs.Int("limit", 10, "entries per ranked list")
	dir := fs.String("dir", "", "directory holding unified.db (default: output dir)")
	if err := fs.Parse(args); err != nil {
		return false, err
	}

	q := footprint.ActivityQuery{Limit: *limit, Dir: *dir}
	if *days > 0 {
		q.Since = time.Now().AddDate(0, 0, -*days)
	}
	a, err := svc.Activity(ctx, q)
	if errors.Is(err, footprint.ErrStoreNotFound) {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "run `footprint extract` first")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if g.jsonOut {
		return true, writeJSON(os.Stdout, a)
	}

	period := "all time"
	if a.Since != nil {
		period = "since " + a.Since.Local().Format(time.DateOnly)
	}
	fmt.Printf("Activity, %s

Screen time: %s
", period, hoursMinutes(a.ScreenTimeSeconds))

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	section := func(title string) {
		tw.Flush()
		fmt.Printf("\n%s\n", title)
	}
	section("Top apps")
	for _, app := range a.Apps {
		fmt.Fprintf(tw, "  %s\t%s\t%d sessions\n", app.BundleID, hoursMinutes(app.Seconds), app.Sessions)
	}
	section("Daily screen time")
	for _, d := range a.Days {
		fmt.Fprintf(tw, "  %s\t%s\t%d apps\n", d.Day, hoursMinutes(d.Seconds), d.Apps)
	}
	section(fmt.Sprintf("Web: %s visits", humanize.Comma(a.WebVisits)))
	for _, d := range a.Domains {
		fmt.Fprintf(tw, "  %s\t%s visits\t%s\n", d.Domain, humanize.Comma(d.Visits), hoursMinutes(d.Seconds))
	}
	for _, b := range a.Transitions {
		fmt.Fprintf(tw, "  %s\t%s\t\n", b.Key, humanize.Comma(b.Count))
	}
	section(fmt.Sprintf("Messages: %s sent, %s received",
		humanize.Comma(a.Messages.Sent), humanize.Comma(a.Messages.Received)))
	for _, b := range a.Messages.ByService {
		fmt.Fprintf(tw, "  %s\t%s\n", b.Key, humanize.Comma(b.Count))
	}
	for _, c := range a.Chats {
		fmt.Fprintf(tw, "  %s\t%s msgs\n", c.Chat, humanize.Comma(c.Messages))
	}
	section("Podcasts")
	for _, sh := range a.Shows {
		fmt.Fprintf(tw, "  %s\t%d episodes\t%s\n", sh.Show, sh.Episodes, hoursMinutes(sh.Seconds))
	}
	section("Bluetooth devices")
	for _, d := range a.Devices {
		fmt.Fprintf(tw, "  %s\t%s\t%d connections\n", d.Device, hoursMinutes(d.Seconds), d.Connections)
	}
	return true, tw.Flush()
}

// hoursMinutes renders seconds as "3h 05m" or "12m".
func hoursMinutes(secs float64) string {
	d := time.Duration(secs * float64(time.Second)).Truncate(time.Minute)
	if d < 0 {
		d = 0
	}
	h, m := int(d.Hours()), int(d.Minutes())%60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func serveMCP(ctx context.Context, svc *footprint.Service, logger *slog.Logger) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "footprint",
		Version: version,
	}, nil)
	svc.RegisterMCP(srv)

	logger.Info("footprint: serving MCP over stdio", "output_dir", svc.OutputDir())
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
