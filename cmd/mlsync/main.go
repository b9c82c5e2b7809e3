package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"mlsync/internal/config"
	"mlsync/internal/pipeline"
	"mlsync/internal/storage"
	"mlsync/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "reconcile":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		mlPath := fs.String("ml", "", "Mercado Libre report xlsx")
		odooPath := fs.String("odoo", "", "Odoo inventory report xlsx")
		out := fs.String("out", "", "output xlsx path (default: OUTPUT_DIR/sync_<ts>.xlsx)")
		stockPercent := fs.Float64("stock", cfg.StockPercent, "percent of real stock to publish")
		retention := fs.Float64("retention", cfg.RetentionPercent, "retention percent")
		includeTaxes := fs.Bool("taxes", cfg.IncludeTaxes, "include taxes in base cost")
		useWeights := fs.Bool("weights", cfg.UseWeightTable, "use weight table for shipping surcharge")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*mlPath) == "" || strings.TrimSpace(*odooPath) == "" {
			must(fmt.Errorf("--ml and --odoo are required"))
		}

		calcCfg := cfg.CalcConfig()
		calcCfg.StockPercent = *stockPercent
		calcCfg.RetentionPercent = *retention
		calcCfg.IncludeTaxes = *includeTaxes
		calcCfg.UseWeightTable = *useWeights

		outputPath := strings.TrimSpace(*out)
		if outputPath == "" {
			outputPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("sync_%s.xlsx", time.Now().Format("20060102_150405")))
		}

		svc := pipeline.NewSyncService(db)
		result, err := svc.RunFiles(*mlPath, *odooPath, outputPath, calcCfg)
		must(err)
		fmt.Printf("reconcile done trace=%s total=%d synced=%d notSynced=%d priceChanged=%d stockChanged=%d warnings=%d\n",
			result.TraceID, result.Summary.Total, result.Summary.Synced, result.Summary.NotSynced,
			result.Summary.PriceChanged, result.Summary.StockChanged, result.Summary.Warnings)
		fmt.Printf("output: %s\n", result.OutputPath)

	case "weights:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "xlsx with SKU/PRODUCTO/PESO columns")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		sheets, err := pipeline.ParseWorkbookFile(*file)
		must(err)
		incoming, err := pipeline.ParseWeightsSheet(sheets)
		must(err)
		existing, err := db.ListWeights()
		must(err)
		merged := pipeline.MergeWeights(existing, incoming)
		must(db.ReplaceWeights(merged))
		fmt.Printf("weights import done imported=%d total=%d\n", len(incoming), len(merged))

	case "weights:list":
		weights, err := db.ListWeights()
		must(err)
		for _, w := range weights {
			fmt.Printf("%s\t%s\t%gkg\t%s\n", w.SKU, w.Product, w.WeightKg, w.UpdatedAt)
		}
		fmt.Printf("total: %d\n", len(weights))

	case "rates:list":
		rates, err := db.ListRates()
		must(err)
		for _, r := range rates {
			fmt.Printf("hasta %gkg\t$%g\n", r.MaxWeightKg, r.Cost)
		}
		fmt.Printf("total: %d\n", len(rates))

	case "backup:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		outputPath := strings.TrimSpace(*out)
		if outputPath == "" {
			outputPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("BACKUP_LOGISTICA_%s.xlsx", time.Now().Format("2006-01-02")))
		}

		weights, err := db.ListWeights()
		must(err)
		rates, err := db.ListRates()
		must(err)
		must(pipeline.ExportBackup(weights, rates, outputPath))
		fmt.Printf("backup exported weights=%d rates=%d output=%s\n", len(weights), len(rates), outputPath)

	case "backup:restore":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "backup xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		sheets, err := pipeline.ParseWorkbookFile(*file)
		must(err)
		weights, rates, err := pipeline.ParseBackup(sheets)
		must(err)
		must(db.ReplaceWeights(weights))
		must(db.ReplaceRates(rates))
		fmt.Printf("backup restored weights=%d rates=%d\n", len(weights), len(rates))

	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 10, "max runs to show")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s\t%s\tml=%s odoo=%s\ttotal=%d synced=%d warnings=%d\n",
				r.CreatedAt, r.TraceID, r.MLFile, r.OdooFile,
				r.Counts["total"], r.Counts["synced"], r.Counts["warnings"])
		}

	case "watch":
		svc := watcher.NewService(db, cfg)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(svc.Run(ctx))

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: mlsync <command>")
	fmt.Println("commands:")
	fmt.Println("  reconcile --ml=report.xlsx --odoo=inventory.xlsx [--out=...] [--stock=100] [--retention=0] [--taxes] [--weights]")
	fmt.Println("  weights:import --file=pesos.xlsx")
	fmt.Println("  weights:list")
	fmt.Println("  rates:list")
	fmt.Println("  backup:export [--out=...]")
	fmt.Println("  backup:restore --file=BACKUP_LOGISTICA_....xlsx")
	fmt.Println("  runs [--limit=10]")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
