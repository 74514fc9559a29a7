package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"sdi/internal"
	"sdi/internal/config"
	"sdi/internal/dataset"
	"sdi/internal/logger"
	"sdi/internal/pipeline"
	"sdi/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = log.Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := pipeline.NewService(db, cfg, log)

	cmd := os.Args[1]
	switch cmd {
	case "buildings":
		buildings, err := svc.Buildings()
		must(err)
		for _, b := range buildings {
			fmt.Printf("%s\t%s\n", b.Code, b.Name)
		}
	case "views:unpackaged":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		building := fs.String("building", "", "building code filter")
		_ = fs.Parse(os.Args[2:])
		ds, flashes := svc.Unpackaged(*building)
		printFlashes(flashes)
		printDataset(ds)
	case "views:packaged":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		building := fs.String("building", "", "building code filter")
		pkg := fs.String("package", "", "package id filter")
		_ = fs.Parse(os.Args[2:])
		ds, flashes := svc.Packaged(*building, *pkg)
		printFlashes(flashes)
		printDataset(ds)
	case "package":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		building := fs.String("building", "", "building code")
		force := fs.Bool("force", false, "replace QR codes already packaged")
		_ = fs.Parse(os.Args[2:])
		result, err := svc.Package(*building, *force, time.Now())
		must(err)
		printFlashes(result.Flashes)
	case "export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		building := fs.String("building", "", "building code filter")
		pkg := fs.String("package", "", "package id filter")
		force := fs.Bool("force", false, "re-send rows already exported")
		_ = fs.Parse(os.Args[2:])
		result, err := svc.Export(*building, *pkg, *force, time.Now())
		must(err)
		printFlashes(result.Flashes)
		if result.File != nil {
			path, err := svc.WriteOutput(result.File)
			must(err)
			fmt.Printf("saved %d rows to %s\n", result.Rows, path)
		}
	case "exclude":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pkg := fs.String("package", "", "package id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*pkg) == "" {
			must(fmt.Errorf("--package is required"))
		}
		deleted, err := svc.Exclude(*pkg)
		must(err)
		fmt.Printf("excluded package %s: %d rows returned to the unpackaged pool\n", *pkg, deleted)
	case "batch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		perProperty := fs.Bool("per-property", false, "one workbook per property")
		_ = fs.Parse(os.Args[2:])
		paths, rows, err := svc.RunBatch(*perProperty, time.Now())
		must(err)
		if rows == 0 {
			fmt.Println("[OK] No new assets to process.")
			return
		}
		fmt.Printf("[OK] rows=%d\n", rows)
		fmt.Println("Saved files:")
		for _, p := range paths {
			fmt.Println(" -", p)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func printFlashes(flashes []internal.Flash) {
	for _, f := range flashes {
		fmt.Printf("[%s] %s\n", f.Level, f.Message)
	}
}

func printDataset(ds dataset.Dataset) {
	fmt.Println(strings.Join(ds.Columns, "\t"))
	for _, row := range ds.Rows {
		values := make([]string, len(ds.Columns))
		for i, c := range ds.Columns {
			values[i] = row[c]
		}
		fmt.Println(strings.Join(values, "\t"))
	}
}

func usage() {
	fmt.Println("usage: sdi <command>")
	fmt.Println("commands:")
	fmt.Println("  buildings")
	fmt.Println("  views:unpackaged [--building=CODE]")
	fmt.Println("  views:packaged [--building=CODE] [--package=SDI-00001]")
	fmt.Println("  package --building=CODE [--force]")
	fmt.Println("  export [--building=CODE] [--package=SDI-00001] [--force]")
	fmt.Println("  exclude --package=SDI-00001")
	fmt.Println("  batch [--per-property]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
