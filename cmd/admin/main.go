// Command admin is the operator CLI. Exit codes: 0 success, 2 validation
// failure, 3 external-analyzer failure, 1 anything else.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fairwaylabs/swingsense-backend/internal/data/db"
	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/feedback"
	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/envutil"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gemini"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/rubric"
	"github.com/fairwaylabs/swingsense-backend/internal/services"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitAnalyzer   = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitValidation
	}

	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return exitFailure
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("postgres init failed", "error", err)
		return exitFailure
	}
	theDB := pg.DB()
	if err := db.Migrate(theDB); err != nil {
		log.Error("postgres automigrate failed", "error", err)
		return exitFailure
	}

	ctx := context.Background()

	switch args[0] {
	case "initialize-metrics":
		metricSvc := services.NewMetricService(repos.NewMetricRepo(theDB, log), log)
		count, err := metricSvc.Initialize(ctx)
		if err != nil {
			log.Error("initialize-metrics failed", "error", err)
			return exitFailure
		}
		fmt.Printf("initialized %d metric descriptors\n", count)
		return exitOK

	case "process-feedback":
		feedbackRepo := repos.NewFeedbackRepo(theDB, log)
		systemRepo := repos.NewSystemRepo(theDB, log)
		agg := feedback.NewAggregator(feedbackRepo, systemRepo, log, feedback.Config{
			Window: envutil.Seconds("FEEDBACK_WINDOW_SECONDS", feedback.DefaultConfig().Window),
		})
		scheduler := feedback.NewScheduler(agg, systemRepo,
			envutil.Seconds("FEEDBACK_COOLDOWN_SECONDS", feedback.DefaultCooldown), log)
		res, err := scheduler.MaybeRun(ctx)
		if err != nil {
			log.Error("process-feedback failed", "error", err)
			return exitFailure
		}
		fmt.Printf("ran=%t skipped=%t\n", res.Ran, res.Skipped)
		return exitOK

	case "extract-rubric":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: admin extract-rubric <metric> <example-url>")
			return exitValidation
		}
		analyzer, err := gemini.NewClient(log)
		if err != nil {
			log.Error("analyzer client init failed", "error", err)
			return exitValidation
		}
		pipeline := rubric.NewPipeline(analyzer,
			repos.NewMetricRepo(theDB, log),
			repos.NewRubricRepo(theDB, log),
			log,
			envutil.Seconds("RUBRIC_EXTRACT_TIMEOUT_SECONDS", rubric.DefaultTimeout),
		)
		row, err := pipeline.Extract(ctx, args[1], args[2])
		if err != nil {
			log.Error("extract-rubric failed", "error", err)
			return codeExit(err)
		}
		fmt.Printf("extracted rubric for %s from video %s\n", row.MetricKey, row.SourceVideoID)
		return exitOK

	default:
		usage()
		return exitValidation
	}
}

// codeExit maps coded pipeline errors onto CLI exit codes.
func codeExit(err error) int {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeInvalidReference, pkgerrors.CodeInvalidRubric:
		return exitValidation
	case pkgerrors.CodeTimeout, pkgerrors.CodeMalformedResponse:
		return exitAnalyzer
	default:
		return exitFailure
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: admin <command>

commands:
  initialize-metrics                     seed the metric descriptor table
  process-feedback                       run feedback aggregation (cooldown-gated)
  extract-rubric <metric> <example-url>  extract one reference rubric`)
}
