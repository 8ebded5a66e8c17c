// Command inspect walks a change-detection dataset the way a training loop
// would, reports how often the crop search ends on an empty label and plots
// the distribution of changed pixels per crop.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/satBowl/datasets"
)

func main() {
	klog.InitFlags(nil)
	beforeFlag := flag.String("before", "assets/s2looking/train/Image1/*.png", "glob pattern for before images")
	afterFlag := flag.String("after", "assets/s2looking/train/Image2/*.png", "glob pattern for after images")
	labelsFlag := flag.String("labels", "assets/s2looking/train/label/*.png", "glob pattern for change labels")
	n := flag.Int("n", 200, "number of examples to inspect (0 = all)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	cropSize := flag.Int("crop", datasets.DefaultCropSize, "side of the random crop")
	attempts := flag.Int("attempts", datasets.DefaultMaxCropAttempts, "maximum crops drawn looking for a change")
	workers := flag.Int("workers", 0, "number of workers reading examples (0 = NumCPU)")
	outDir := flag.String("out", "plots", "output directory for generated plots")
	flag.Parse()

	lists, err := datasets.PairedPaths(*beforeFlag, *afterFlag, *labelsFlag)
	if err != nil {
		klog.Fatalf("failed to find triplets: %v", err)
	}
	klog.Infof("Found %d triplets", len(lists[0]))

	ds, err := datasets.NewChangeDetectionDataset(lists[0], lists[1], lists[2], nil, datasets.Config{
		Seed:            *seed,
		CropSize:        *cropSize,
		MaxCropAttempts: *attempts,
	})
	if err != nil {
		klog.Fatalf("failed to open change-detection dataset: %v", err)
	}

	count := ds.Len()
	if *n > 0 {
		count = min(*n, count)
	}
	numWorkers := *workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Inspecting"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("triplets"),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
	)
	stats, err := collectStats(ds, count, numWorkers, *seed, func() { _ = bar.Add(1) })
	_ = bar.Close()
	if err != nil {
		klog.Fatalf("failed to inspect dataset: %v", err)
	}

	klog.Infof("Inspected %d triplets: %d ended with an empty label, mean crop attempts %.2f",
		len(stats.Fractions), stats.Empty, stats.MeanAttempts())

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		klog.Fatalf("failed to create %s: %v", *outDir, err)
	}
	outPath := filepath.Join(*outDir, "change_fraction.png")
	if err := plotFractions(outPath, stats.Fractions); err != nil {
		klog.Fatalf("failed to generate plot: %v", err)
	}
	klog.Infof("Histogram written to %s", outPath)
}
