package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/raine/outfit-finder/internal/config"
	"github.com/raine/outfit-finder/internal/imagesource"
	"github.com/raine/outfit-finder/internal/storage"
	"github.com/raine/outfit-finder/internal/workflow"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Cached results older than this are pruned at startup.
const resultCacheTTL = 7 * 24 * time.Hour

// Images are analyzed with at most this many flows in flight.
const maxConcurrentFlows = 4

func usage() {
	fmt.Fprint(os.Stderr, formatText(`
		Usage:
		  outfit-finder [flags] <image path or URL>...
		  outfit-finder -resume <job id>
		  outfit-finder -history [-limit N]
		  outfit-finder -setup

		Flags:
	`)+"\n")
	flag.PrintDefaults()
}

func main() {
	setup := flag.Bool("setup", false, "Run the interactive setup wizard")
	resumeID := flag.String("resume", "", "Resume polling an existing job id")
	history := flag.Bool("history", false, "List previously submitted jobs")
	limit := flag.Int("limit", 20, "Number of jobs shown by -history")
	rawJSON := flag.Bool("json", false, "Output JSON reports")
	attempts := flag.Int("attempts", 0, "Override the poll attempt budget")
	interval := flag.Duration("interval", -1, "Override the poll interval")
	flag.Usage = usage
	flag.Parse()

	config.LoadEnvFile()

	if *setup {
		if !isInteractiveTerminal() {
			fmt.Fprintf(os.Stderr, "Error: -setup needs an interactive terminal; write %s by hand instead\n", config.ConfigPath())
			os.Exit(2)
		}
		if !runSetupWizard() {
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *attempts > 0 {
		cfg.MaxAttempts = *attempts
	}
	if *interval >= 0 {
		cfg.PollInterval = *interval
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var store *storage.SQLiteStore
	if cfg.DBPath != "" {
		store, err = storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open job database")
		}
		defer store.Close()
		if n, err := store.PruneResults(resultCacheTTL); err != nil {
			log.Warn().Err(err).Msg("failed to prune result cache")
		} else if n > 0 {
			log.Debug().Int64("pruned", n).Msg("pruned cached results")
		}
	}

	if *history {
		if store == nil {
			fmt.Fprintln(os.Stderr, "Error: job history is disabled (OUTFIT_DB_PATH is empty)")
			os.Exit(2)
		}
		if err := printHistory(store, *limit); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	refs := flag.Args()
	if *resumeID == "" && len(refs) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpClient := analysis.NewHTTPClient(analysis.ClientOpts{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
	})
	log.Debug().Str("apiURL", httpClient.BaseURL()).Msg("using analysis API")

	var client analysis.Client = httpClient
	if store != nil {
		client = analysis.NewCachedClient(client, store)
	}

	var jobLog *workflow.JobLog
	if cfg.JobLogDir != "" {
		jobLog, err = workflow.NewJobLog(cfg.JobLogDir)
		if err != nil {
			log.Warn().Err(err).Msg("job trace logs disabled")
			jobLog = nil
		}
	}

	newWorkflow := func() *workflow.Workflow {
		w := workflow.New(client).
			WithPolling(cfg.MaxAttempts, cfg.PollInterval).
			WithJobLog(jobLog).
			OnStateChange(func(jobID string, from, to workflow.State) {
				log.Debug().Str("jobID", jobID).Str("from", string(from)).Str("to", string(to)).Msg("state changed")
			})
		if store != nil {
			w.WithRecorder(store)
		}
		return w
	}

	if *resumeID != "" {
		if store != nil {
			if rec, err := store.GetJob(*resumeID); err != nil {
				log.Warn().Err(err).Str("jobID", *resumeID).Msg("failed to look up job")
			} else if rec != nil {
				fmt.Fprintln(os.Stderr, describeJob(rec))
			}
		}
		result, err := newWorkflow().ResumeJob(ctx, *resumeID, progressPrinter(*resumeID))
		out := outcome{Ref: *resumeID, Result: result, Err: err}
		if !printOutcomes([]outcome{out}, *rawJSON) {
			os.Exit(1)
		}
		return
	}

	loader := imagesource.NewLoader().
		WithTimeout(cfg.RequestTimeout).
		WithMaxSize(cfg.MaxImageSize)

	outcomes := make([]outcome, len(refs))
	var failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(maxConcurrentFlows)
	for i, ref := range refs {
		g.Go(func() error {
			outcomes[i] = analyze(ctx, loader, newWorkflow(), ref)
			if outcomes[i].Err != nil {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if !printOutcomes(outcomes, *rawJSON) || failed.Load() > 0 {
		os.Exit(1)
	}
}

type outcome struct {
	Ref    string
	Result *analysis.AnalysisResult
	Err    error
}

func analyze(ctx context.Context, loader *imagesource.Loader, w *workflow.Workflow, ref string) outcome {
	file, err := loader.Load(ctx, ref)
	if err != nil {
		return outcome{Ref: ref, Err: err}
	}
	result, err := w.RunUploadFlow(ctx, file, progressPrinter(ref))
	return outcome{Ref: ref, Result: result, Err: err}
}

func progressPrinter(ref string) func(analysis.JobStatus) {
	polls := 0
	return func(status analysis.JobStatus) {
		polls++
		fmt.Fprintf(os.Stderr, "%s: analyzing your outfit... (%s, check %d)\n", ref, status, polls)
	}
}
