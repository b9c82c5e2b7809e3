package pipeline

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mlsync/internal"
	"mlsync/internal/storage"
)

// SyncService runs the full reconciliation flow: parse both workbooks, pick
// the right sheets, snapshot the reference tables, run the engine and log the
// run. Reference tables are read once per run; a run never re-fetches them.
type SyncService struct {
	db *storage.DB
}

func NewSyncService(db *storage.DB) *SyncService {
	return &SyncService{db: db}
}

type RunResult struct {
	TraceID    string
	Rows       []internal.ReconciledRow
	Summary    internal.Summary
	OutputPath string
}

// RunFiles reconciles two workbook files and, when outputPath is non-empty,
// exports the annotated result.
func (s *SyncService) RunFiles(mlPath, odooPath, outputPath string, cfg internal.CalcConfig) (RunResult, error) {
	start := time.Now()

	mlSheets, err := ParseWorkbookFile(mlPath)
	if err != nil {
		return RunResult{}, err
	}
	odooSheets, err := ParseWorkbookFile(odooPath)
	if err != nil {
		return RunResult{}, err
	}

	result, err := s.runSheets(mlSheets, odooSheets, cfg)
	if err != nil {
		return RunResult{}, err
	}

	if outputPath != "" {
		if err := ExportResults(result.Rows, outputPath); err != nil {
			return RunResult{}, err
		}
		result.OutputPath = outputPath
	}

	s.recordRun(result, filepath.Base(mlPath), filepath.Base(odooPath), start)
	return result, nil
}

// RunSheets reconciles already-parsed workbooks, used by the HTTP upload path.
func (s *SyncService) RunSheets(mlSheets, odooSheets []internal.Sheet, cfg internal.CalcConfig) (RunResult, error) {
	start := time.Now()
	result, err := s.runSheets(mlSheets, odooSheets, cfg)
	if err != nil {
		return RunResult{}, err
	}
	s.recordRun(result, "upload", "upload", start)
	return result, nil
}

func (s *SyncService) runSheets(mlSheets, odooSheets []internal.Sheet, cfg internal.CalcConfig) (RunResult, error) {
	mlSheet, err := FindMarketplaceSheet(mlSheets)
	if err != nil {
		return RunResult{}, err
	}
	odooSheet, err := FindInventorySheet(odooSheets)
	if err != nil {
		return RunResult{}, err
	}

	weights, err := s.db.ListWeights()
	if err != nil {
		return RunResult{}, err
	}
	rates, err := s.db.ListRates()
	if err != nil {
		return RunResult{}, err
	}

	rows, err := Reconcile(mlSheet, odooSheet, cfg, weights, rates)
	if err != nil {
		return RunResult{}, err
	}

	return RunResult{
		TraceID: uuid.NewString(),
		Rows:    rows,
		Summary: Summarize(rows),
	}, nil
}

func (s *SyncService) recordRun(result RunResult, mlFile, odooFile string, start time.Time) {
	counts := map[string]int{
		"total":        result.Summary.Total,
		"synced":       result.Summary.Synced,
		"notSynced":    result.Summary.NotSynced,
		"priceChanged": result.Summary.PriceChanged,
		"stockChanged": result.Summary.StockChanged,
		"warnings":     result.Summary.Warnings,
	}
	timings := map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
	_ = s.db.InsertRun(result.TraceID, mlFile, odooFile, counts, timings)
}
