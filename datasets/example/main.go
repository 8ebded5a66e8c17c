package main

// Example command that demonstrates loading a change-detection dataset and a
// single-image dataset from sibling directories, and converting small batches
// into gomlx tensors using the helpers provided in the package.
//
// The datasets use lazy loading - they store file paths and only decode the
// rasters when an example is requested.
//
// Usage:
//   go run ./example
//
// Note: this example expects rasters under ../assets/s2looking/... and
// ../assets/pleiades/... If nothing is found it prints an error and exits.

import (
	"fmt"
	"log"

	"github.com/Noofbiz/satBowl/augment"
	"github.com/Noofbiz/satBowl/datasets"
)

func main() {
	// Change detection: before/after/label images share their file names.
	lists, err := datasets.PairedPaths(
		"../assets/s2looking/train/Image1/*.png",
		"../assets/s2looking/train/Image2/*.png",
		"../assets/s2looking/train/label/*.png",
	)
	if err != nil {
		log.Fatalf("failed to find change-detection triplets: %v", err)
	}

	pipeline := augment.Compose(
		augment.HorizontalFlip(0.5),
		augment.VerticalFlip(0.5),
		augment.RandomRotate90(0.5),
		augment.ToChannelFirst(),
	)
	cdDS, err := datasets.NewChangeDetectionDataset(lists[0], lists[1], lists[2], pipeline,
		datasets.Config{BatchSize: 4})
	if err != nil {
		log.Fatalf("failed to create change-detection dataset: %v", err)
	}
	fmt.Printf("Total change-detection triplets available: %d\n", cdDS.Len())

	n := min(4, cdDS.Len())
	if n > 0 {
		indices := make([]int, n)
		for i := range n {
			indices[i] = i
		}

		fmt.Printf("Loading batch of %d triplets...\n", n)
		examples, err := cdDS.Batch(indices)
		if err != nil {
			log.Fatalf("failed to build change-detection batch: %v", err)
		}

		flat, err := datasets.MakeBatchFlat(examples)
		if err != nil {
			log.Fatalf("failed to make batch flat: %v", err)
		}
		inT, laT := flat.ToGomlxTensors()
		fmt.Printf("Created tensors: input=%s label=%s\n", inT.Shape(), laT.Shape())
		for i, ex := range examples {
			fmt.Printf("  Triplet %d: %s (crop attempts %d)\n", i,
				ex.Metadata[datasets.MetaPathLabel], ex.CropAttempts)
		}
	}

	fmt.Println()

	// Single images with .npy labels are optional for some workflows.
	pairs, err := datasets.PairedPaths("../assets/pleiades/images/*.tif", "../assets/pleiades/labels/*.npy")
	if err != nil {
		fmt.Printf("Note: Could not find single-image dataset: %v\n", err)
		fmt.Println("Continuing without it...")
	} else {
		sDS, err := datasets.NewSingleImageDataset(pairs[0], pairs[1], nil, datasets.Config{})
		if err != nil {
			log.Fatalf("failed to create single-image dataset: %v", err)
		}
		fmt.Printf("Total single-image examples available: %d\n", sDS.Len())
		if sDS.Len() > 0 {
			ex, err := sDS.Example(0)
			if err != nil {
				log.Fatalf("failed to read example 0: %v", err)
			}
			img, label := ex.Tensors()
			fmt.Printf("  Example 0: image=%s label=%s\n", img.Shape(), label.Shape())
		}
	}

	fmt.Println("\nExample completed successfully!")
	fmt.Println("Note: Data was loaded lazily - rasters were only decoded when needed for the batch.")
}
