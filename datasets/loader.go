package datasets

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Defaults used when the matching Config field is zero.
const (
	DefaultBatchSize       = 8
	DefaultCropSize        = 256
	DefaultMaxCropAttempts = 15
	DefaultRasterBands     = 3
)

// Config holds the knobs shared by the dataset constructors.
type Config struct {
	// Name reported by Name(). Defaults to the variant name.
	Name string

	// Seed for the dataset generator. If zero, a time-based seed is used.
	Seed int64

	// BatchSize is the number of examples returned by each Yield call.
	BatchSize int

	// CropSize is the side of the square random crop of change-detection
	// triplets.
	CropSize int

	// MaxCropAttempts bounds how many crops are drawn looking for a non-empty
	// change label. The last crop is kept even if its label is empty.
	MaxCropAttempts int

	// RasterBands is the number of bands read from single-image rasters.
	RasterBands int
}

func (c Config) withDefaults(name string) (Config, error) {
	if c.BatchSize < 0 || c.CropSize < 0 || c.MaxCropAttempts < 0 || c.RasterBands < 0 {
		return c, errors.Wrapf(ErrConfig, "negative values in %+v", c)
	}
	if c.Name == "" {
		c.Name = name
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.CropSize == 0 {
		c.CropSize = DefaultCropSize
	}
	if c.MaxCropAttempts == 0 {
		c.MaxCropAttempts = DefaultMaxCropAttempts
	}
	if c.RasterBands == 0 {
		c.RasterBands = DefaultRasterBands
	}
	return c, nil
}

// validator is implemented by sources that can check their inputs eagerly.
type validator interface {
	Validate() error
}

// Loader turns a SampleSource into a Dataset. It owns the seeded generator
// examples draw their randomness from and the epoch order used by Yield.
type Loader struct {
	source SampleSource
	cfg    Config

	// muRand protects rng.
	muRand sync.Mutex
	rng    *rand.Rand

	// muOrder protects order and next.
	muOrder sync.Mutex
	order   []int
	next    int
}

var (
	_ Dataset       = (*Loader)(nil)
	_ train.Dataset = (*Loader)(nil)
)

// NewLoader validates source and wraps it. Sources built by hand should go
// through here so their parallel inputs get checked before first use.
func NewLoader(source SampleSource, cfg Config) (*Loader, error) {
	if source == nil {
		return nil, errors.Wrap(ErrConfig, "nil sample source")
	}
	cfg, err := cfg.withDefaults(fmt.Sprintf("%T", source))
	if err != nil {
		return nil, err
	}
	if v, ok := source.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	l := &Loader{
		source: source,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		order:  make([]int, source.Len()),
	}
	for i := range l.order {
		l.order[i] = i
	}
	klog.V(2).Infof("dataset %q: %d examples, seed %d", cfg.Name, source.Len(), cfg.Seed)
	return l, nil
}

// Name implements train.Dataset.
func (l *Loader) Name() string { return l.cfg.Name }

// Config returns the effective configuration, defaults included.
func (l *Loader) Config() Config { return l.cfg }

// Len returns the number of examples.
func (l *Loader) Len() int { return l.source.Len() }

// Example returns the example at index i. The randomness it uses is seeded
// from the loader generator, so a fixed Config.Seed and call order give the
// same examples.
func (l *Loader) Example(i int) (*Example, error) {
	l.muRand.Lock()
	seed := l.rng.Int63()
	l.muRand.Unlock()
	return l.ExampleWithRand(i, rand.New(rand.NewSource(seed)))
}

// ExampleWithRand is like Example but draws randomness from rng, typically a
// generator owned by one worker.
func (l *Loader) ExampleWithRand(i int, rng *rand.Rand) (*Example, error) {
	if i < 0 || i >= l.source.Len() {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d not in [0, %d)", i, l.source.Len())
	}
	return l.source.Load(i, rng)
}

// Batch reads the examples at the given indices.
func (l *Loader) Batch(indices []int) ([]*Example, error) {
	examples := make([]*Example, len(indices))
	for i, idx := range indices {
		ex, err := l.Example(idx)
		if err != nil {
			return nil, err
		}
		examples[i] = ex
	}
	return examples, nil
}

// Shuffle permutes the order in which Yield visits the examples and restarts
// the epoch.
func (l *Loader) Shuffle(seed int64) {
	l.muOrder.Lock()
	defer l.muOrder.Unlock()
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(l.order), func(i, j int) {
		l.order[i], l.order[j] = l.order[j], l.order[i]
	})
	l.next = 0
}

// Reset implements train.Dataset: the next Yield starts a new epoch.
func (l *Loader) Reset() {
	l.muOrder.Lock()
	defer l.muOrder.Unlock()
	l.next = 0
}

// Yield implements train.Dataset. It returns up to BatchSize examples stacked
// into one image tensor and one label tensor, and io.EOF at the end of the
// epoch. All examples of a batch must share their shapes.
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	l.muOrder.Lock()
	if l.next >= len(l.order) {
		l.muOrder.Unlock()
		return nil, nil, nil, io.EOF
	}
	end := min(l.next+l.cfg.BatchSize, len(l.order))
	indices := append([]int(nil), l.order[l.next:end]...)
	l.next = end
	l.muOrder.Unlock()

	examples, err := l.Batch(indices)
	if err != nil {
		return nil, nil, nil, err
	}
	flat, err := MakeBatchFlat(examples)
	if err != nil {
		return nil, nil, nil, err
	}
	in, la := flat.ToGomlxTensors()
	return l, []*tensors.Tensor{in}, []*tensors.Tensor{la}, nil
}
