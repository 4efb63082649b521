package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/lexgate/doccheck/internal/common"
	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/pkg/augment"
	"github.com/lexgate/doccheck/pkg/checklist"
	"github.com/lexgate/doccheck/pkg/classifier"
	"github.com/lexgate/doccheck/pkg/report"
	"github.com/lexgate/doccheck/pkg/rules"
)

// Config tunes the pipeline.
type Config struct {
	// Concurrency bounds how many documents are analyzed at once.
	Concurrency int
	// Marker controls inline annotation text.
	Marker report.MarkerConfig
}

// Analyzer runs the full compliance pipeline over an extracted bundle:
// kind detection, process classification, checklist diffing, red-flag
// scanning and optional augmentation, then report and annotation assembly.
type Analyzer struct {
	catalog      *classifier.Catalog
	engine       *rules.Engine
	orchestrator *augment.Orchestrator
	config       Config
}

// DocumentResult carries the per-document outcome. Degraded marks a
// document whose augmentation failed and fell back to rule-only findings.
type DocumentResult struct {
	Document    models.Document
	Issues      []models.Issue
	Annotations []models.Annotation
	Degraded    bool
	Reason      string
}

// RunResult is the outcome of one bundle analysis.
type RunResult struct {
	Report    models.AnalysisReport
	Checklist models.ChecklistResult
	Documents []DocumentResult
}

// New wires a pipeline. The orchestrator may be nil, in which case every
// document gets its rule-based result only.
func New(catalog *classifier.Catalog, engine *rules.Engine, orchestrator *augment.Orchestrator, config Config) *Analyzer {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	return &Analyzer{
		catalog:      catalog,
		engine:       engine,
		orchestrator: orchestrator,
		config:       config,
	}
}

// Run analyzes one extracted bundle. Documents are processed with bounded
// concurrency; a failure in one document's augmentation never affects the
// others. The merged issue sequence preserves document order, so repeated
// runs over the same bundle produce identical reports apart from the
// timestamp.
func (a *Analyzer) Run(ctx context.Context, docs []models.Document) RunResult {
	logger := common.Logger()

	for i := range docs {
		docs[i].Kind = a.catalog.DetectKind(docs[i].Text())
		logger.Debug("analyzer: detected kind", "document", docs[i].ID, "kind", docs[i].Kind)
	}

	var check models.ChecklistResult
	processName := a.catalog.ClassifyProcess(docs)
	if process, ok := a.catalog.Process(processName); ok {
		check = checklist.Evaluate(process, docs)
	} else {
		logger.Info("analyzer: process not recognized, skipping checklist")
		check = checklist.NotRecognized(docs)
	}

	results := make([]DocumentResult, len(docs))
	sem := make(chan struct{}, a.config.Concurrency)
	var wg sync.WaitGroup

	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.analyzeDocument(ctx, docs[i])
		}(i)
	}
	wg.Wait()

	var issues []models.Issue
	for _, res := range results {
		issues = append(issues, res.Issues...)
	}

	return RunResult{
		Report:    report.Build(check, issues, time.Now()),
		Checklist: check,
		Documents: results,
	}
}

func (a *Analyzer) analyzeDocument(ctx context.Context, doc models.Document) DocumentResult {
	logger := common.Logger()

	ruleIssues := a.engine.Scan(doc)
	logger.Debug("analyzer: rule scan complete", "document", doc.ID, "issues", len(ruleIssues))

	issues := ruleIssues
	degradedFlag := false
	reason := ""
	if a.orchestrator != nil {
		result := a.orchestrator.Augment(ctx, doc, ruleIssues)
		issues = result.Issues
		degradedFlag = result.Degraded
		reason = result.Reason
		if result.Degraded {
			logger.Warn("analyzer: augmentation degraded", "document", doc.ID, "reason", result.Reason)
		}
	}

	return DocumentResult{
		Document:    doc,
		Issues:      issues,
		Annotations: report.Annotations(doc, issues, a.config.Marker),
		Degraded:    degradedFlag,
		Reason:      reason,
	}
}
