package main

import (
	"math/rand"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/satBowl/datasets"
)

// exampleReader is the part of datasets.Loader the inspection needs.
type exampleReader interface {
	ExampleWithRand(i int, rng *rand.Rand) (*datasets.Example, error)
}

// Stats summarizes the labels of the inspected examples.
type Stats struct {
	// Fractions holds the changed-pixel fraction of each example, by index.
	Fractions []float64
	// Attempts holds the number of crops drawn per example.
	Attempts []int
	// Empty counts examples whose label has no change at all.
	Empty int
}

// MeanAttempts returns the average number of crops drawn per example.
func (s *Stats) MeanAttempts() float64 {
	if len(s.Attempts) == 0 {
		return 0
	}
	total := 0
	for _, a := range s.Attempts {
		total += a
	}
	return float64(total) / float64(len(s.Attempts))
}

// collectStats reads examples [0, count) with numWorkers goroutines. Each
// worker owns a generator seeded from seed and its worker number. progress
// is called once per example read.
func collectStats(ds exampleReader, count, numWorkers int, seed int64, progress func()) (*Stats, error) {
	stats := &Stats{
		Fractions: make([]float64, count),
		Attempts:  make([]int, count),
	}

	indices := make(chan int)
	errChan := make(chan error, numWorkers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(worker)))
			for i := range indices {
				ex, err := ds.ExampleWithRand(i, rng)
				if err != nil {
					errChan <- err
					return
				}
				changed := 0
				for _, v := range ex.Label {
					if v != 0 {
						changed++
					}
				}

				mu.Lock()
				if len(ex.Label) > 0 {
					stats.Fractions[i] = float64(changed) / float64(len(ex.Label))
				}
				stats.Attempts[i] = ex.CropAttempts
				if changed == 0 {
					stats.Empty++
				}
				if progress != nil {
					progress()
				}
				mu.Unlock()
			}
		}(w)
	}

	var sendErr error
feed:
	for i := 0; i < count; i++ {
		select {
		case indices <- i:
		case sendErr = <-errChan:
			break feed
		}
	}
	close(indices)
	wg.Wait()
	close(errChan)

	if sendErr != nil {
		return nil, sendErr
	}
	if err, ok := <-errChan; ok {
		return nil, err
	}
	return stats, nil
}

// plotFractions writes a histogram of changed-pixel fractions to outPath.
func plotFractions(outPath string, fractions []float64) error {
	p := plot.New()
	p.Title.Text = "Changed pixels per crop"
	p.X.Label.Text = "fraction of changed pixels"
	p.Y.Label.Text = "crops"

	h, err := plotter.NewHist(plotter.Values(fractions), 20)
	if err != nil {
		return err
	}
	p.Add(h)
	p.Add(plotter.NewGrid())
	return p.Save(8*vg.Inch, 6*vg.Inch, outPath)
}
