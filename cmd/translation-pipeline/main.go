// main package for the translation-pipeline service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/translation-pipeline/internal/config"
	"github.com/book-expert/translation-pipeline/internal/filter"
	"github.com/book-expert/translation-pipeline/internal/objectstore"
	"github.com/book-expert/translation-pipeline/internal/pipeline"
	"github.com/book-expert/translation-pipeline/internal/poller"
	"github.com/book-expert/translation-pipeline/internal/runid"
	"github.com/book-expert/translation-pipeline/internal/synthesize"
	"github.com/book-expert/translation-pipeline/internal/transcribe"
	"github.com/book-expert/translation-pipeline/internal/translate"
	"github.com/book-expert/translation-pipeline/internal/worker"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "translation-pipeline.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// A temporary logger carries the bootstrap until config names the real one.
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

func serve(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	orchestrator := buildOrchestrator(cfg, jetstreamContext, log)

	pipelineWorker, err := worker.NewNATSWorker(
		natsConnection,
		cfg.NATS.ObjectCreatedSubject,
		cfg.NATS.PipelineCompletedSubject,
		orchestrator,
		time.Duration(cfg.Pipeline.RunTimeoutSeconds)*time.Second,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.System(
		"Translation pipeline initialized. Listening for arrivals on subject: %s",
		cfg.NATS.ObjectCreatedSubject,
	)

	err = pipelineWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker stopped with error: %w", err)
	}

	return nil
}

func buildOrchestrator(
	cfg *config.Config,
	jetstreamContext nats.JetStreamContext,
	log *logger.Logger,
) *pipeline.Orchestrator {
	engineTimeout := time.Duration(cfg.Engines.TimeoutSeconds) * time.Second

	speechToText := transcribe.NewClient(cfg.Engines.TranscribeURL, engineTimeout)

	policy := poller.Policy{
		Timeout:          time.Duration(cfg.Poller.TimeoutSeconds) * time.Second,
		InitialInterval:  time.Duration(cfg.Poller.InitialIntervalMS) * time.Millisecond,
		MaxInterval:      time.Duration(cfg.Poller.MaxIntervalMS) * time.Millisecond,
		Multiplier:       cfg.Poller.Multiplier,
		JitterFraction:   cfg.Poller.JitterFraction,
		MaxQueryFailures: cfg.Poller.MaxQueryFailures,
	}

	pipelineCfg := pipeline.Config{
		OutputPrefix:   cfg.Pipeline.OutputPrefix,
		SourceLanguage: cfg.Pipeline.SourceLanguage,
		TargetLanguage: cfg.Pipeline.TargetLanguage,
		Voice:          cfg.Pipeline.Voice,
		OutputFormat:   cfg.Pipeline.OutputFormat,
	}

	return pipeline.New(
		objectstore.New(jetstreamContext),
		speechToText,
		translate.NewClient(cfg.Engines.TranslateURL, engineTimeout),
		synthesize.NewClient(cfg.Engines.SynthesizeURL, cfg.Pipeline.OutputFormat, engineTimeout),
		runid.New(),
		filter.New(cfg.Pipeline.OutputPrefix),
		poller.New(speechToText, policy, log),
		pipelineCfg,
		log,
	)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
