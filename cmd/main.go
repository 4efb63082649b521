package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/internal/types"
	"github.com/lexgate/doccheck/pkg/analyzer"
	"github.com/lexgate/doccheck/pkg/augment"
	"github.com/lexgate/doccheck/pkg/classifier"
	cfgPkg "github.com/lexgate/doccheck/pkg/config"
	"github.com/lexgate/doccheck/pkg/extract"
	"github.com/lexgate/doccheck/pkg/index"
	"github.com/lexgate/doccheck/pkg/llm"
	"github.com/lexgate/doccheck/pkg/report"
	"github.com/lexgate/doccheck/pkg/rules"
)

type Flags struct {
	ConfigPath  string
	RefsDir     string
	OutputDir   string
	Backend     string
	DBUrl       string
	BaseURL     string
	Model       string
	EmbedModel  string
	TopK        int
	ChunkSize   int
	Timeout     time.Duration
	Concurrency int
}

func main() {
	// A missing .env file is fine; the environment may carry the keys.
	_ = godotenv.Load()

	flags := parseFlags()

	if err := run(flags, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Flags {
	var flags Flags

	flag.StringVar(&flags.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&flags.RefsDir, "refs", "", "Directory of reference corpus files (txt, md, html)")
	flag.StringVar(&flags.OutputDir, "out", "", "Output directory for report and annotations")
	flag.StringVar(&flags.Backend, "backend", "", "Index backend: memory or pgvector")
	flag.StringVar(&flags.DBUrl, "db-url", "", "PostgreSQL connection string for the pgvector backend")
	flag.StringVar(&flags.BaseURL, "ollama-url", "", "Ollama server URL")
	flag.StringVar(&flags.Model, "model", "", "Generation model")
	flag.StringVar(&flags.EmbedModel, "embed-model", "", "Embedding model")
	flag.IntVar(&flags.TopK, "top-k", 0, "Reference chunks retrieved per document")
	flag.IntVar(&flags.ChunkSize, "chunk-size", 0, "Reference chunk size in characters")
	flag.DurationVar(&flags.Timeout, "timeout", 0, "Timeout per generation call")
	flag.IntVar(&flags.Concurrency, "concurrency", 0, "Documents analyzed in parallel")
	flag.Parse()

	return flags
}

func mergeFlags(cfg *cfgPkg.Config, flags Flags) {
	if flags.Backend != "" {
		cfg.Index.Backend = flags.Backend
	}
	if flags.DBUrl != "" {
		cfg.Index.URL = flags.DBUrl
	}
	if flags.BaseURL != "" {
		cfg.LLM.BaseURL = flags.BaseURL
	}
	if flags.Model != "" {
		cfg.LLM.Model = flags.Model
	}
	if flags.EmbedModel != "" {
		cfg.LLM.EmbedModel = flags.EmbedModel
	}
	if flags.TopK > 0 {
		cfg.Index.TopK = flags.TopK
	}
	if flags.ChunkSize > 0 {
		cfg.Index.ChunkSize = flags.ChunkSize
	}
	if flags.Timeout > 0 {
		cfg.LLM.Timeout = flags.Timeout
	}
	if flags.OutputDir != "" {
		cfg.Report.OutputDir = flags.OutputDir
	}
}

func run(flags Flags, docPaths []string) error {
	if len(docPaths) == 0 {
		return fmt.Errorf("no documents to analyze; pass document paths as arguments")
	}

	cfg, err := cfgPkg.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	mergeFlags(cfg, flags)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	ctx := context.Background()
	extractor := extract.New()

	// The augmentation path is optional end to end: any setup failure here
	// means the run proceeds rule-only.
	orchestrator := buildOrchestrator(ctx, cfg, flags, extractor)

	docs, uploaded := extractDocuments(extractor, docPaths)
	if len(docs) == 0 {
		return fmt.Errorf("none of the %d documents could be extracted", uploaded)
	}

	pipeline := analyzer.New(
		classifier.DefaultCatalog(),
		rules.NewEngine(rules.EngineConfig{Jurisdiction: cfg.Rules.Jurisdiction}),
		orchestrator,
		analyzer.Config{
			Concurrency: flags.Concurrency,
			Marker:      report.MarkerConfig{Prefix: cfg.Report.MarkerPrefix},
		},
	)

	result := pipeline.Run(ctx, docs)

	if err := writeOutputs(cfg.Report.OutputDir, result); err != nil {
		return err
	}

	printSummary(result)
	return nil
}

func buildOrchestrator(ctx context.Context, cfg *cfgPkg.Config, flags Flags, extractor types.Extractor) *augment.Orchestrator {
	if flags.RefsDir == "" {
		return nil
	}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.EmbedModel,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		RateLimit: cfg.Index.RateLimit,
		Timeout:   cfg.LLM.Timeout,
	})
	if err != nil {
		color.Red("Embedding client unavailable, continuing rule-only: %v", err)
		return nil
	}

	var idx types.Index
	switch cfg.Index.Backend {
	case "pgvector":
		pg, err := index.NewPGVector(index.PGVectorConfig{
			ConnString: cfg.Index.URL,
			TableName:  cfg.Index.TableName,
			VectorDim:  cfg.Index.VectorDim,
		}, embedder)
		if err != nil {
			color.Red("Index backend unavailable, continuing rule-only: %v", err)
			return nil
		}
		idx = pg
	default:
		idx = index.NewMemory(embedder)
	}

	chunks, err := loadReferenceChunks(extractor, flags.RefsDir, cfg.Index.ChunkSize)
	if err != nil {
		color.Red("Reference corpus unavailable, continuing rule-only: %v", err)
		return nil
	}
	if len(chunks) == 0 {
		color.Yellow("Reference corpus is empty, continuing rule-only")
		return nil
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.BlueString("Building reference index (%d chunks)...", len(chunks))),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
	err = idx.Build(ctx, chunks)
	bar.Finish()
	fmt.Println()
	if err != nil {
		color.Red("Index build failed, continuing rule-only: %v", err)
		return nil
	}
	color.Green("✓ Indexed %d reference chunks", len(chunks))

	generator, err := llm.NewGenerator(llm.GeneratorConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		color.Red("Generation client unavailable, continuing rule-only: %v", err)
		return nil
	}

	return augment.New(idx, generator, augment.Config{TopK: cfg.Index.TopK})
}

func loadReferenceChunks(extractor types.Extractor, dir string, chunkSize int) ([]models.ReferenceChunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	chunker := extract.NewChunker(chunkSize)
	var chunks []models.ReferenceChunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md", ".html", ".htm":
		default:
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		paragraphs, err := extractor.Paragraphs(entry.Name(), data)
		if err != nil {
			color.Yellow("Skipping reference file %s: %v", entry.Name(), err)
			continue
		}
		chunks = append(chunks, chunker.Chunk(entry.Name(), paragraphs)...)
	}
	return chunks, nil
}

func extractDocuments(extractor types.Extractor, paths []string) ([]models.Document, int) {
	var docs []models.Document
	for _, path := range paths {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			color.Red("Cannot read %s: %v", name, err)
			continue
		}
		paragraphs, err := extractor.Paragraphs(name, data)
		if err != nil {
			color.Red("Cannot extract %s: %v", name, err)
			continue
		}
		docs = append(docs, models.Document{ID: name, Paragraphs: paragraphs})
	}
	return docs, len(paths)
}

func writeOutputs(outDir string, result analyzer.RunResult) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	reportPath := filepath.Join(outDir, "report.json")
	f, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := report.WriteJSON(f, result.Report); err != nil {
		return err
	}

	for _, docResult := range result.Documents {
		if len(docResult.Annotations) == 0 {
			continue
		}
		data, err := json.MarshalIndent(docResult.Annotations, "", "  ")
		if err != nil {
			return err
		}
		sidecar := filepath.Join(outDir, docResult.Document.ID+".annotations.json")
		if err := os.WriteFile(sidecar, data, 0o644); err != nil {
			return err
		}
	}

	return nil
}

func printSummary(result analyzer.RunResult) {
	check := result.Checklist

	if check.Recognized {
		color.Cyan("\nProcess: %s (%d of %d required documents present)",
			check.Process, check.RequiredCount-len(check.Missing), check.RequiredCount)
		if len(check.Missing) > 0 {
			color.Yellow("Missing: %s", strings.Join(check.Missing, ", "))
		}
	} else {
		color.Yellow("\nProcess not recognized; checklist skipped")
	}

	for _, docResult := range result.Documents {
		line := fmt.Sprintf("%s: %d issue(s)", docResult.Document.ID, len(docResult.Issues))
		if docResult.Degraded {
			line += " (rule-based only: " + docResult.Reason + ")"
		}
		fmt.Println(line)
	}

	color.Green("\n✓ Analysis complete: %d issue(s) across %d document(s)",
		len(result.Report.IssuesFound), check.DocumentsUploaded)
}
