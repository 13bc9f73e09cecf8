// adminsum-seed generates mock records for a topic with Gemini and inserts
// them into the configured backend. Useful for demos and local development.
package main

import (
	"context"
	"flag"
	"os"

	"adminsum/internal/cli"
	"adminsum/internal/genmock"
	"adminsum/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	topic := flag.String("topic", "administrasi kantor", "topic to generate entries for")
	flag.Parse()

	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	generator, err := genmock.New(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Error("Failed to initialize generator", "error", err)
		os.Exit(1)
	}
	if generator == nil {
		logger.Error("GEMINI_API_KEY is required to seed data")
		os.Exit(1)
	}

	result := cli.InitBackend(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	drafts, err := generator.Generate(ctx, *topic)
	if err != nil {
		logger.Error("Generation failed", "error", err, "topic", *topic)
		os.Exit(1)
	}
	if len(drafts) == 0 {
		logger.Info("Generator returned no drafts", "topic", *topic)
		return
	}

	service := store.NewService(result.Store, result.Notifier)
	records, err := service.AddMany(ctx, drafts)
	if err != nil {
		logger.Error("Insert failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Seeded records", "count", len(records), "topic", *topic, "backend", cfg.DataBackend)
}
