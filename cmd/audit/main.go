// Command audit runs the claim pipeline over a single local file and
// prints the rendered report, without starting the HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlevkov/claimaudit/internal/bootstrap"
	"github.com/mlevkov/claimaudit/internal/config"
	"github.com/mlevkov/claimaudit/internal/observability/logging"
)

func main() {
	filePath := flag.String("file", "", "path to the claim document to audit")
	language := flag.String("lang", "", "report language (en or zh), defaults to DEFAULT_LANGUAGE")
	caseID := flag.String("case", "cli", "case identifier used as the storage prefix")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: audit -file <document> [-lang en|zh] [-case id]")
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.NewJSONLogger("claimaudit-cli", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	lang := *language
	if lang == "" {
		lang = cfg.DefaultLanguage
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("open document: %v", err)
	}
	key, err := app.UploadUC.Upload(ctx, *caseID, *filePath, f)
	f.Close()
	if err != nil {
		log.Fatalf("upload document: %v", err)
	}

	result, err := app.AuditUC.Audit(ctx, key, lang)
	if err != nil {
		log.Fatalf("audit failed: %v", err)
	}

	fmt.Println("Stages:")
	for _, stage := range result.Stages {
		status := "ok"
		if !stage.Success {
			status = "degraded"
		}
		fmt.Printf("  %-20s %-8s %8.1fms\n", stage.Name, status, stage.DurationMS)
	}
	fmt.Printf("\nRisk score: %d (%s)\n", result.Assessment.Score, result.Assessment.Level)
	fmt.Printf("Recommendation: %s\n", result.Report.Recommendation)
	if result.ReportKey != "" {
		fmt.Printf("Report saved to: %s\n", result.ReportKey)
	}
	fmt.Println("\n" + result.Report.Content)
}
