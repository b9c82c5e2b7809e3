package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mlsync/internal"
	"mlsync/internal/config"
	"mlsync/internal/pipeline"
	"mlsync/internal/storage"
)

// Service polls an inbox directory for report pairs. Drop one Mercado Libre
// export and one Odoo export into the inbox; once both are present they are
// reconciled, the result lands in the output directory and the inputs move to
// inbox/processed.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(); err != nil {
			fmt.Printf("watcher cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle() error {
	if err := os.MkdirAll(s.cfg.InboxDir, 0o755); err != nil {
		return err
	}

	mlPath, odooPath, err := s.classifyInbox()
	if err != nil {
		return err
	}
	if mlPath == "" || odooPath == "" {
		return nil
	}

	svc := pipeline.NewSyncService(s.db)
	outputPath := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("sync_%s.xlsx", time.Now().Format("20060102_150405")))
	result, err := svc.RunFiles(mlPath, odooPath, outputPath, s.cfg.CalcConfig())
	if err != nil {
		return err
	}

	if err := s.archive(mlPath); err != nil {
		return err
	}
	if err := s.archive(odooPath); err != nil {
		return err
	}

	fmt.Printf("watcher cycle done rows=%d synced=%d warnings=%d output=%s\n",
		result.Summary.Total, result.Summary.Synced, result.Summary.Warnings, outputPath)
	return nil
}

// classifyInbox identifies the newest marketplace and inventory workbook in
// the inbox by their identifying columns, not by filename.
func (s *Service) classifyInbox() (mlPath, odooPath string, err error) {
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return "", "", err
	}

	var mlTime, odooTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".xlsx") {
			continue
		}
		path := filepath.Join(s.cfg.InboxDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		sheets, err := pipeline.ParseWorkbookFile(path)
		if err != nil {
			continue
		}
		if isMarketplace(sheets) && info.ModTime().After(mlTime) {
			mlPath, mlTime = path, info.ModTime()
		} else if isInventory(sheets) && info.ModTime().After(odooTime) {
			odooPath, odooTime = path, info.ModTime()
		}
	}
	return mlPath, odooPath, nil
}

func (s *Service) archive(path string) error {
	processedDir := filepath.Join(s.cfg.InboxDir, "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(processedDir, filepath.Base(path)))
}

func isMarketplace(sheets []internal.Sheet) bool {
	_, err := pipeline.FindMarketplaceSheet(sheets)
	return err == nil
}

func isInventory(sheets []internal.Sheet) bool {
	_, err := pipeline.FindInventorySheet(sheets)
	return err == nil
}
