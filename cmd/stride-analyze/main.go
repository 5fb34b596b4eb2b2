package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	stride "stride-engine"
	"stride-engine/config"
	"stride-engine/pipeline"
)

func main() {
	var (
		fitPath       = flag.String("fit", "", "Path to input .fit file")
		outDir        = flag.String("out", "", "Output directory")
		watchDir      = flag.String("watch", "", "Watch a directory for dropped .fit files instead of analyzing one")
		format        = flag.String("format", "", "Series format: parquet|csv (default from config)")
		compress      = flag.Bool("compress", false, "zstd-compress analysis.json")
		overwrite     = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
		thresholdHR   = flag.Float64("threshold-hr", 0, "Athlete threshold heart rate override")
		restingHR     = flag.Float64("resting-hr", 0, "Athlete resting heart rate override")
		maxHR         = flag.Float64("max-hr", 0, "Athlete max heart rate override")
		thresholdPace = flag.Float64("threshold-pace", 0, "Athlete threshold pace override, seconds per km")
		budgetMS      = flag.Int("budget-ms", 0, "Analysis computation budget in milliseconds")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit run.fit --out outdir [--format parquet|csv] [--threshold-hr 170]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "       %s --watch indir --out outroot\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	// Only an explicitly passed --compress overrides the config value, so
	// --compress=false can switch compression off.
	compressSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "compress" {
			compressSet = true
		}
	})

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stride-analyze: config: %v\n", err)
		os.Exit(1)
	}

	opts := pipeline.Options{
		OutDir:     *outDir,
		Physiology: cfg.Physiology(),
		Format:     cfg.Pipeline.Format,
		Compress:   effectiveCompress(cfg.Pipeline.Compress, compressSet, *compress),
		Overwrite:  *overwrite,
	}
	if *format != "" {
		opts.Format = *format
	}
	if *budgetMS > 0 {
		opts.Budget = time.Duration(*budgetMS) * time.Millisecond
	} else if cfg.Pipeline.BudgetMillis > 0 {
		opts.Budget = time.Duration(cfg.Pipeline.BudgetMillis) * time.Millisecond
	}
	if phys := flagPhysiology(*thresholdHR, *restingHR, *maxHR, *thresholdPace); phys != nil {
		opts.Physiology = phys
	}

	switch {
	case strings.TrimSpace(*watchDir) != "" && strings.TrimSpace(*outDir) != "":
		runWatch(*watchDir, *outDir, opts)
	case strings.TrimSpace(*fitPath) != "" && strings.TrimSpace(*outDir) != "":
		opts.FitPath = *fitPath
		runOnce(opts)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runOnce(opts pipeline.Options) {
	result, err := pipeline.Run(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stride-analyze failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("stride-analyze complete\n")
	fmt.Printf("Output dir:     %s\n", result.OutputDir)
	fmt.Printf("analysis:       %s\n", result.AnalysisPath)
	fmt.Printf("series:         %s\n", result.SeriesPath)
	fmt.Printf("manifest:       %s\n", result.ManifestPath)
	fmt.Printf("points:         %d\n", result.PointCount)
	fmt.Printf("segments:       %d\n", result.SegmentCount)
	fmt.Printf("moments:        %d\n", result.MomentCount)
}

func runWatch(inDir, outRoot string, opts pipeline.Options) {
	watcher, err := pipeline.NewWatcher(inDir, outRoot, opts, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stride-analyze watch failed: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	watcher.OnResult = func(path string, res *pipeline.Result) {
		log.Printf("analyzed %s -> %s (%d points, %d segments)", path, res.OutputDir, res.PointCount, res.SegmentCount)
	}
	watcher.OnError = func(path string, err error) {
		log.Printf("watch error on %q: %v", path, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("watching %s, writing bundles under %s", inDir, outRoot)
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "stride-analyze watch failed: %v\n", err)
		os.Exit(1)
	}
}

// effectiveCompress resolves the compression setting: an explicitly passed
// flag wins over the config value in either direction.
func effectiveCompress(configValue, flagSet, flagValue bool) bool {
	if flagSet {
		return flagValue
	}
	return configValue
}

func flagPhysiology(thresholdHR, restingHR, maxHR, thresholdPace float64) *stride.PhysiologyContext {
	phys := &stride.PhysiologyContext{}
	set := false
	if thresholdHR > 0 {
		phys.ThresholdHR = &thresholdHR
		set = true
	}
	if restingHR > 0 {
		phys.RestingHR = &restingHR
		set = true
	}
	if maxHR > 0 {
		phys.MaxHR = &maxHR
		set = true
	}
	if thresholdPace > 0 {
		phys.ThresholdPaceSKm = &thresholdPace
		set = true
	}
	if !set {
		return nil
	}
	return phys
}
