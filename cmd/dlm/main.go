package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/handiism/dlm/internal/config"
	"github.com/handiism/dlm/internal/dlerror"
	"github.com/handiism/dlm/internal/download"
	dlhttp "github.com/handiism/dlm/internal/http"
	"github.com/handiism/dlm/internal/metrics"
	"github.com/handiism/dlm/internal/model"
	"github.com/handiism/dlm/internal/progress"
	"github.com/handiism/dlm/internal/storage"
	"github.com/handiism/dlm/internal/tui"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Command line flags
	var (
		inputFlag       = flag.String("input", "", "File with one URL per line, or - for stdin")
		outputFlag      = flag.String("output", "", "Output directory or bucket URL (overrides config)")
		concurrencyFlag = flag.Int("concurrency", 0, "Maximum number of concurrent downloads (overrides config)")
		configFlag      = flag.String("config", "", "Path to config file (.json, .yaml)")
		userAgentFlag   = flag.String("user-agent", "", "User-Agent header (overrides config)")
		overwriteFlag   = flag.Bool("overwrite", false, "Replace files that already exist")
		rateLimitFlag   = flag.Int64("rate-limit", -1, "Combined download rate in bytes per second, 0 for unlimited (overrides config)")
		plainFlag       = flag.Bool("plain", false, "Print log lines instead of progress bars")
		verboseFlag     = flag.Bool("verbose", false, "Show verbose output")
		metricsFlag     = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
		logFileFlag     = flag.String("log-file", "", "Write structured logs to this file")
		dryRunFlag      = flag.Bool("dry-run", false, "Parse URLs without downloading")
	)

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, "dlm - download many files at once")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Usage:")
		fmt.Fprintln(out, "  dlm -input urls.txt -output ./downloads [options]")
		fmt.Fprintln(out, "  dlm [options] <URL>...")
		fmt.Fprintln(out)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *inputFlag == "" && flag.NArg() == 0 {
		flag.Usage()
		return 1
	}

	// Load config
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		return 1
	}
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if err := settings.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Apply flags
	if *outputFlag != "" {
		settings.Output = *outputFlag
	}
	if *concurrencyFlag != 0 {
		settings.MaxConcurrentDownloads = *concurrencyFlag
	}
	if *userAgentFlag != "" {
		settings.UserAgent = *userAgentFlag
	}
	if *overwriteFlag {
		settings.Overwrite = true
	}
	if *rateLimitFlag >= 0 {
		settings.RateLimit = *rateLimitFlag
	}
	if *metricsFlag != "" {
		settings.MetricsAddr = *metricsFlag
	}
	if *logFileFlag != "" {
		settings.LogFile = *logFileFlag
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	plain := *plainFlag || !isatty.IsTerminal(os.Stdout.Fd())

	logOut, closeLog, err := logWriter(settings.LogFile, plain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		return 1
	}
	defer closeLog()
	logger := settings.SetupLogger(logOut)

	// Get URLs
	tasks, err := readTasks(*inputFlag, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading URLs: %v\n", err)
		if len(tasks) == 0 {
			return 1
		}
		fmt.Fprintf(os.Stderr, "Continuing with %d valid URL(s)\n", len(tasks))
	}
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No URLs to download")
		return 1
	}

	if *dryRunFlag {
		for _, task := range tasks {
			fmt.Printf("%s -> %s\n", task.URL, task.FileName)
		}
		fmt.Println("\n[Dry run - not downloading]")
		return 0
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, settings.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening output: %v\n", err)
		return 1
	}
	defer store.Close()

	worker := &download.Worker{
		Fetcher: dlhttp.NewClient(dlhttp.Options{
			UserAgent:      settings.UserAgent,
			ConnectTimeout: settings.ConnectTimeout.Std(),
			HeaderTimeout:  settings.HeaderTimeout.Std(),
			RateLimit:      settings.RateLimit,
		}),
		Store:      store,
		Classifier: dlerror.Default,
		Logger:     logger,
		Overwrite:  settings.Overwrite,
	}

	if settings.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		worker.Recorder = metrics.NewCollector(reg)

		srv := &http.Server{
			Addr:              settings.MetricsAddr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics server starting", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var report *download.Report
	work := func(sink progress.Sink) error {
		manager := download.NewManager(worker, download.Options{
			Concurrency:  settings.MaxConcurrentDownloads,
			DrainTimeout: settings.DrainTimeout.Std(),
			Sink:         sink,
			Logger:       logger,
		})
		var err error
		report, err = manager.Run(ctx, tasks)
		return err
	}

	if plain {
		err = work(tui.NewPlain(os.Stdout, *verboseFlag))
	} else {
		err = tui.Run(tui.Options{
			Title:   fmt.Sprintf("dlm: %d file(s) into %s", len(tasks), settings.Output),
			Lanes:   settings.MaxConcurrentDownloads,
			Verbose: *verboseFlag,
			Cancel:  cancel,
		}, work)
	}

	if report != nil {
		printSummary(os.Stdout, report)
	}
	if err != nil {
		if errors.Is(err, tui.ErrInterrupted) || ctx.Err() != nil {
			fmt.Println("\nDownload cancelled.")
			return 130
		}
		fmt.Fprintf(os.Stderr, "Error during download: %v\n", err)
		return 1
	}
	if ctx.Err() != nil {
		fmt.Println("\nDownload cancelled.")
		return 130
	}
	return report.ExitCode()
}

// readTasks collects tasks from the input file (or stdin) and the command
// line arguments. Invalid lines are reported but do not drop valid ones.
func readTasks(input string, args []string) ([]model.Task, error) {
	var (
		tasks []model.Task
		errs  []error
	)

	if input != "" {
		var r io.Reader
		if input == "-" {
			r = os.Stdin
		} else {
			f, err := os.Open(input)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}

		parsed, err := model.ParseTasks(r)
		tasks = append(tasks, parsed...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(args) > 0 {
		parsed, err := model.TasksFromURLs(args)
		if err != nil {
			errs = append(errs, err)
		}
		seen := make(map[string]bool, len(tasks))
		for _, t := range tasks {
			seen[t.URL] = true
		}
		for _, t := range parsed {
			if !seen[t.URL] {
				seen[t.URL] = true
				tasks = append(tasks, t)
			}
		}
	}

	return model.UniqueFileNames(tasks), errors.Join(errs...)
}

// logWriter picks where structured logs go. The progress bars own stdout,
// so without a log file logs are only kept in plain mode.
func logWriter(path string, plain bool) (io.Writer, func(), error) {
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	if plain {
		return os.Stderr, func() {}, nil
	}
	return io.Discard, func() {}, nil
}

func printSummary(w io.Writer, report *download.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("━", 40))
	fmt.Fprintf(w, "Downloaded %d/%d files (%.2f MB) in %s\n",
		report.Succeeded(), report.Total(),
		float64(report.Bytes())/1024/1024,
		report.Elapsed.Round(time.Millisecond),
	)
	if n := report.Skipped(); n > 0 {
		fmt.Fprintf(w, "Skipped %d existing file(s)\n", n)
	}
	if failures := report.Failures(); len(failures) > 0 {
		fmt.Fprintf(w, "Failed %d:\n", len(failures))
		for _, out := range failures {
			fmt.Fprintf(w, "  %s: %v\n", out.Task.URL, out.Err)
		}
	}
}
