package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"article-shorts-pipeline/config"
	"article-shorts-pipeline/logger"
	"article-shorts-pipeline/pipeline"
	"article-shorts-pipeline/types"
)

func main() {
	// Load .env (local dev only — CI uses real env vars)
	_ = godotenv.Load()

	var (
		urlFlag    = flag.String("url", "", "article URL to fetch")
		jsonFlag   = flag.String("json", "", "path to a saved article JSON file")
		scriptFlag = flag.String("script", "", "path to a saved script JSON file (skips extraction)")
		outputFlag = flag.String("output", "output", "output directory")
		langFlag   = flag.String("language", "", "narration language code (overrides config)")
		configFlag = flag.String("config", "config.yaml", "config file path")
		forceFlag  = flag.Bool("force", false, "overwrite an existing final artifact")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	gen, err := pipeline.New(cfg)
	if err != nil {
		logger.S.Fatalf("Failed to build pipeline: %v", err)
	}
	gen.Force = *forceFlag

	ctx := context.Background()

	var artifact *types.FinalArtifact
	switch {
	case *scriptFlag != "":
		logger.S.Infof("🎬 Article shorts pipeline starting from script %s", *scriptFlag)
		artifact, err = gen.GenerateFromScript(ctx, *scriptFlag, *outputFlag)
	default:
		logger.S.Infof("🎬 Article shorts pipeline starting")
		artifact, err = gen.Generate(ctx, pipeline.Source{URL: *urlFlag, JSONPath: *jsonFlag}, *outputFlag, *langFlag)
	}
	if err != nil {
		logger.S.Errorf("Pipeline failed: %v", err)
		os.Exit(1)
	}

	switch artifact.Kind {
	case types.ArtifactMerged:
		logger.S.Infof("✅ Final video ready: %s", artifact.VideoFile)
	default:
		logger.S.Infof("⚠️ Merge tools unavailable — bundle written, see %s", artifact.InstructionsFile)
	}
}
