package datasets

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/sbinet/npyio/npy"
	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/satBowl/augment"
	"github.com/Noofbiz/satBowl/ndarray"
	"github.com/Noofbiz/satBowl/raster"
)

// writePNG writes an opaque w x h RGB PNG with pixel (x,y) = (x, y, seed).
func writePNG(t *testing.T, path string, w, h int, seed uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: seed, A: 255})
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write png %s: %v", path, err)
	}
}

// writeLabelPNG writes a w x h gray PNG that is v inside rect and 0 elsewhere.
func writeLabelPNG(t *testing.T, path string, w, h int, rect image.Rectangle, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write label png %s: %v", path, err)
	}
}

// writeNPY writes m as a .npy file at path.
func writeNPY(t *testing.T, path string, m *mat.Dense) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create npy %s: %v", path, err)
	}
	defer f.Close()
	if err := npy.Write(f, m); err != nil {
		t.Fatalf("failed to write npy %s: %v", path, err)
	}
}

func seqArray(shape ...int) *ndarray.Array {
	a := ndarray.Zeros(shape...)
	for i := range a.Data {
		a.Data[i] = float32(i)
	}
	return a
}

func TestLabeledImageDataset_BandSelection(t *testing.T) {
	images := []LabeledImage{{
		Image: &raster.Image{Array: seqArray(4, 5, 6), Path: "a.tif"},
		Label: ndarray.Full(2, 5, 6),
	}}

	ds, err := NewLabeledImageDataset(images, []int{0, 1, 2}, nil, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}
	if ds.Len() != 1 {
		t.Fatalf("expected len 1, got %d", ds.Len())
	}
	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if !reflect.DeepEqual(ex.ImageShape, []int{3, 5, 6}) {
		t.Fatalf("expected image shape [3 5 6], got %v", ex.ImageShape)
	}
	if !reflect.DeepEqual(ex.LabelShape, []int{5, 6}) || ex.Label[0] != 2 {
		t.Fatalf("unexpected label: shape=%v first=%v", ex.LabelShape, ex.Label[0])
	}
	if ex.Metadata[MetaPathImage] != "a.tif" {
		t.Fatalf("unexpected metadata %v", ex.Metadata)
	}

	single, err := NewLabeledImageDataset(images, []int{3}, nil, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}
	ex, err = single.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if !reflect.DeepEqual(ex.ImageShape, []int{5, 6}) {
		t.Fatalf("expected a single band to be squeezed to [5 6], got %v", ex.ImageShape)
	}
	if ex.Image[0] != 90 {
		t.Fatalf("expected band 3 values, got first value %v", ex.Image[0])
	}

	last, err := NewLabeledImageDataset(images, []int{-1}, nil, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}
	ex, err = last.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if !reflect.DeepEqual(ex.ImageShape, []int{5, 6}) || ex.Image[0] != 90 {
		t.Fatalf("expected band -1 to select band 3, got shape %v first %v", ex.ImageShape, ex.Image[0])
	}

	bad, err := NewLabeledImageDataset(images, []int{0, 7}, nil, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}
	if _, err := bad.Example(0); !errors.Is(err, ndarray.ErrShape) {
		t.Fatalf("expected ErrShape for band 7 of 4, got %v", err)
	}
}

func TestLabeledImageDataset_TransformGetsChannelsLast(t *testing.T) {
	images := []LabeledImage{{
		Image: &raster.Image{Array: seqArray(3, 4, 4)},
		Label: ndarray.Zeros(4, 4),
	}}
	var seen []int
	record := augment.TransformFunc(func(s augment.Sample, _ *rand.Rand) (augment.Sample, error) {
		seen = append([]int(nil), s.Image.Shape...)
		return s, nil
	})
	ds, err := NewLabeledImageDataset(images, nil, augment.Compose(record, augment.ToChannelFirst()), Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}
	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if !reflect.DeepEqual(seen, []int{4, 4, 3}) {
		t.Fatalf("transform saw shape %v, expected channel-last [4 4 3]", seen)
	}
	if !reflect.DeepEqual(ex.ImageShape, []int{3, 4, 4}) {
		t.Fatalf("expected transform output used verbatim, got %v", ex.ImageShape)
	}
	if ex.Metadata != nil {
		t.Fatalf("expected no metadata for an image without path, got %v", ex.Metadata)
	}
}

func TestLabeledImageDataset_Validation(t *testing.T) {
	_, err := NewLabeledImageDataset([]LabeledImage{{Label: ndarray.Zeros(2, 2)}}, nil, nil, Config{})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for a missing image, got %v", err)
	}
}

func TestLoader_IndexOutOfRange(t *testing.T) {
	ds, err := NewLabeledImageDataset([]LabeledImage{{
		Image: &raster.Image{Array: seqArray(1, 2, 2)},
		Label: ndarray.Zeros(2, 2),
	}}, nil, nil, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}
	for _, idx := range []int{-1, 1} {
		if _, err := ds.Example(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Example(%d): expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
}

// fakeTriplets returns a TripletLoader whose labels are empty for the first
// zeroCalls calls and hold the values 0, 2 and 5 afterwards. calls counts the
// invocations.
func fakeTriplets(zeroCalls int, calls *int) TripletLoader {
	return func(_, _, _ string) (*raster.Triplet, error) {
		*calls++
		label := ndarray.Zeros(4, 4)
		if *calls > zeroCalls {
			label.Data[1] = 2
			label.Data[5] = 5
		}
		return &raster.Triplet{
			Image1: ndarray.Full(1, 4, 4, 3),
			Image2: ndarray.Full(2, 4, 4, 3),
			Label:  label,
		}, nil
	}
}

func newFakeChangeDataset(t *testing.T, zeroCalls int, calls *int, maxAttempts int) *Loader {
	t.Helper()
	src := &ChangeDetectionSource{
		Image1Paths: []string{"before.png"},
		Image2Paths: []string{"after.png"},
		LabelPaths:  []string{"label.png"},
		MaxAttempts: maxAttempts,
		LoadTriplet: fakeTriplets(zeroCalls, calls),
	}
	ds, err := NewLoader(src, Config{Seed: 7})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	return ds
}

func TestChangeDetection_RetryFindsChangeOnLastAttempt(t *testing.T) {
	calls := 0
	ds := newFakeChangeDataset(t, 14, &calls, 0)

	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if calls != 15 {
		t.Fatalf("expected 15 triplet loads, got %d", calls)
	}
	want := make([]int64, 16)
	want[1], want[5] = 1, 1
	if !reflect.DeepEqual(ex.Label, want) {
		t.Fatalf("expected the 15th crop's binarized label, got %v", ex.Label)
	}
	if ex.CropAttempts != 15 || ex.Metadata[MetaCropAttempts] != "15" {
		t.Fatalf("unexpected attempts %d, metadata %v", ex.CropAttempts, ex.Metadata)
	}
}

func TestChangeDetection_RetryExhausted(t *testing.T) {
	calls := 0
	ds := newFakeChangeDataset(t, 100, &calls, 0)

	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("expected an empty label without error, got %v", err)
	}
	if calls != DefaultMaxCropAttempts {
		t.Fatalf("expected %d triplet loads, got %d", DefaultMaxCropAttempts, calls)
	}
	for _, v := range ex.Label {
		if v != 0 {
			t.Fatalf("expected an all-zero label, got %v", ex.Label)
		}
	}
}

func TestChangeDetection_ConfigurableAttempts(t *testing.T) {
	calls := 0
	ds := newFakeChangeDataset(t, 100, &calls, 3)
	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if calls != 3 || ex.CropAttempts != 3 {
		t.Fatalf("expected 3 triplet loads, got %d loads and %d attempts", calls, ex.CropAttempts)
	}
}

func TestChangeDetection_StacksAndBinarizes(t *testing.T) {
	calls := 0
	ds := newFakeChangeDataset(t, 0, &calls, 0)

	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single load when the first crop has changes, got %d", calls)
	}
	if !reflect.DeepEqual(ex.ImageShape, []int{6, 4, 4}) {
		t.Fatalf("expected stacked shape [6 4 4], got %v", ex.ImageShape)
	}
	// The first three channels come from the before image, the rest from after.
	if ex.Image[0] != 1 || ex.Image[3*16] != 2 {
		t.Fatalf("channels stacked in the wrong order")
	}
	for _, v := range ex.Label {
		if v != 0 && v != 1 {
			t.Fatalf("label not binarized: %v", ex.Label)
		}
	}
	want := map[string]string{
		MetaPathImage1:   "before.png",
		MetaPathImage2:   "after.png",
		MetaPathLabel:    "label.png",
		MetaCropAttempts: "1",
	}
	if !reflect.DeepEqual(ex.Metadata, want) {
		t.Fatalf("unexpected metadata %v", ex.Metadata)
	}
}

func TestChangeDetection_LoadErrorNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	src := &ChangeDetectionSource{
		Image1Paths: []string{"a"},
		Image2Paths: []string{"b"},
		LabelPaths:  []string{"c"},
		LoadTriplet: func(_, _, _ string) (*raster.Triplet, error) {
			calls++
			return nil, boom
		},
	}
	ds, err := NewLoader(src, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	if _, err := ds.Example(0); !errors.Is(err, boom) {
		t.Fatalf("expected the load error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("load failures must not be retried, got %d calls", calls)
	}
}

func TestChangeDetection_LengthMismatch(t *testing.T) {
	_, err := NewChangeDetectionDataset([]string{"a", "b"}, []string{"c", "d"}, []string{"e"}, nil, Config{})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestChangeDetection_FromFilesDeterministic(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "before.png")
	p2 := filepath.Join(dir, "after.png")
	pl := filepath.Join(dir, "label.png")
	writePNG(t, p1, 40, 30, 10)
	writePNG(t, p2, 40, 30, 20)
	writeLabelPNG(t, pl, 40, 30, image.Rect(10, 10, 30, 20), 255)

	newDS := func() *Loader {
		ds, err := NewChangeDetectionDataset([]string{p1}, []string{p2}, []string{pl}, nil,
			Config{Seed: 42, CropSize: 16})
		if err != nil {
			t.Fatalf("NewChangeDetectionDataset failed: %v", err)
		}
		return ds
	}
	a, err := newDS().Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	b, err := newDS().Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different examples")
	}
	if !reflect.DeepEqual(a.ImageShape, []int{6, 16, 16}) || !reflect.DeepEqual(a.LabelShape, []int{16, 16}) {
		t.Fatalf("unexpected shapes %v %v", a.ImageShape, a.LabelShape)
	}
	// Blue of the before image is 10 and of the after image 20.
	if a.Image[2*256] != 10 || a.Image[5*256] != 20 {
		t.Fatalf("unexpected blue channels %v %v", a.Image[2*256], a.Image[5*256])
	}
}

func TestChangeDetection_JointTransform(t *testing.T) {
	calls := 0
	src := &ChangeDetectionSource{
		Image1Paths: []string{"a"},
		Image2Paths: []string{"b"},
		LabelPaths:  []string{"c"},
		LoadTriplet: fakeTriplets(0, &calls),
		Transform:   augment.Compose(augment.HorizontalFlip(1), augment.ToChannelFirst()),
	}
	ds, err := NewLoader(src, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if !reflect.DeepEqual(ex.ImageShape, []int{6, 4, 4}) {
		t.Fatalf("unexpected shape %v", ex.ImageShape)
	}
	// Label positions 1 and 5 are (0,1) and (1,1); flipped on a width of 4
	// they land on (0,2) and (1,2).
	want := make([]int64, 16)
	want[2], want[6] = 1, 1
	if !reflect.DeepEqual(ex.Label, want) {
		t.Fatalf("label not flipped with the images: %v", ex.Label)
	}
}

func TestSingleImageDataset_Scenario(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "img.png")
	labelPath := filepath.Join(dir, "label.npy")
	writePNG(t, imgPath, 64, 64, 3)
	writeNPY(t, labelPath, mat.NewDense(64, 64, nil))

	ds, err := NewSingleImageDataset([]string{imgPath}, []string{labelPath}, nil, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewSingleImageDataset failed: %v", err)
	}
	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if !reflect.DeepEqual(ex.ImageShape, []int{3, 64, 64}) {
		t.Fatalf("expected image shape [3 64 64], got %v", ex.ImageShape)
	}
	if !reflect.DeepEqual(ex.LabelShape, []int{64, 64}) {
		t.Fatalf("expected label shape [64 64], got %v", ex.LabelShape)
	}
	want := map[string]string{MetaPathImage: imgPath, MetaPathLabel: labelPath}
	if !reflect.DeepEqual(ex.Metadata, want) {
		t.Fatalf("unexpected metadata %v", ex.Metadata)
	}

	img, label := ex.Tensors()
	if img.DType() != dtypes.Float32 || label.DType() != dtypes.Int64 {
		t.Fatalf("unexpected dtypes: image=%s label=%s", img.DType(), label.DType())
	}
	if !reflect.DeepEqual(img.Shape().Dimensions, []int{3, 64, 64}) {
		t.Fatalf("unexpected tensor shape %v", img.Shape())
	}
}

func TestSingleImageDataset_Transform(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "img.png")
	labelPath := filepath.Join(dir, "label.npy")
	writePNG(t, imgPath, 8, 8, 3)
	writeNPY(t, labelPath, mat.NewDense(8, 8, nil))

	double := augment.TransformFunc(func(s augment.Sample, _ *rand.Rand) (augment.Sample, error) {
		out := s.Image.Clone()
		for i := range out.Data {
			out.Data[i] *= 2
		}
		s.Image = out
		return s, nil
	})
	ds, err := NewSingleImageDataset([]string{imgPath}, []string{labelPath}, double, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewSingleImageDataset failed: %v", err)
	}
	ex, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	// Blue is 3 everywhere, so the third channel must now be 6.
	if ex.Image[2*64] != 6 {
		t.Fatalf("transform output not used: %v", ex.Image[2*64])
	}
}

func TestSingleImageDataset_Errors(t *testing.T) {
	if _, err := NewSingleImageDataset([]string{"a"}, nil, nil, Config{}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}

	dir := t.TempDir()
	ds, err := NewSingleImageDataset([]string{filepath.Join(dir, "missing.png")},
		[]string{filepath.Join(dir, "missing.npy")}, nil, Config{Seed: 1})
	if err != nil {
		t.Fatalf("NewSingleImageDataset failed: %v", err)
	}
	if _, err := ds.Example(0); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestLoader_YieldBatches(t *testing.T) {
	images := make([]LabeledImage, 5)
	for i := range images {
		images[i] = LabeledImage{
			Image: &raster.Image{Array: ndarray.Full(float32(i), 2, 3, 3)},
			Label: ndarray.Full(float32(i), 3, 3),
		}
	}
	ds, err := NewLabeledImageDataset(images, nil, nil, Config{Seed: 1, BatchSize: 2})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}

	var sizes []int
	for {
		_, inputs, labels, err := ds.Yield()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Yield error: %v", err)
		}
		if len(inputs) != 1 || len(labels) != 1 {
			t.Fatalf("expected one input and one label tensor")
		}
		dims := inputs[0].Shape().Dimensions
		if !reflect.DeepEqual(dims[1:], []int{2, 3, 3}) {
			t.Fatalf("unexpected batch dims %v", dims)
		}
		if labels[0].DType() != dtypes.Int64 {
			t.Fatalf("labels must be int64, got %s", labels[0].DType())
		}
		sizes = append(sizes, dims[0])
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Fatalf("expected batches of 2,2,1, got %v", sizes)
	}

	ds.Reset()
	if _, _, _, err := ds.Yield(); err != nil {
		t.Fatalf("Yield after Reset: %v", err)
	}
}

func TestLoader_ConcurrentExample(t *testing.T) {
	dir := t.TempDir()
	var before, after, labels []string
	for i := 0; i < 3; i++ {
		p1 := filepath.Join(dir, "before", string(rune('a'+i))+".png")
		p2 := filepath.Join(dir, "after", string(rune('a'+i))+".png")
		pl := filepath.Join(dir, "label", string(rune('a'+i))+".png")
		for _, p := range []string{p1, p2, pl} {
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
		}
		writePNG(t, p1, 24, 24, uint8(10+i))
		writePNG(t, p2, 24, 24, uint8(20+i))
		writeLabelPNG(t, pl, 24, 24, image.Rect(4, 4, 20, 20), 255)
		before, after, labels = append(before, p1), append(after, p2), append(labels, pl)
	}
	ds, err := NewChangeDetectionDataset(before, after, labels, nil,
		Config{Seed: 7, CropSize: 8, BatchSize: 2})
	if err != nil {
		t.Fatalf("NewChangeDetectionDataset failed: %v", err)
	}

	const numWorkers = 8
	errs := make(chan error, numWorkers+1)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for k := 0; k < 5; k++ {
				i := (worker + k) % ds.Len()
				ex, err := ds.Example(i)
				if err != nil {
					errs <- err
					return
				}
				if !reflect.DeepEqual(ex.ImageShape, []int{6, 8, 8}) || !reflect.DeepEqual(ex.LabelShape, []int{8, 8}) {
					t.Errorf("worker %d: unexpected shapes %v %v", worker, ex.ImageShape, ex.LabelShape)
					return
				}
				if ex.CropAttempts < 1 || ex.CropAttempts > DefaultMaxCropAttempts {
					t.Errorf("worker %d: crop attempts %d out of range", worker, ex.CropAttempts)
					return
				}
			}
		}(w)
	}

	wg.Add(1)
	yielded := 0
	go func() {
		defer wg.Done()
		for {
			_, inputs, _, err := ds.Yield()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- err
				return
			}
			yielded += inputs[0].Shape().Dimensions[0]
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent read failed: %v", err)
	}
	if yielded != ds.Len() {
		t.Fatalf("expected one epoch of %d examples, got %d", ds.Len(), yielded)
	}
}

func TestLoader_ShuffleIsPermutation(t *testing.T) {
	images := make([]LabeledImage, 6)
	for i := range images {
		images[i] = LabeledImage{
			Image: &raster.Image{Array: ndarray.Full(float32(i), 1, 1, 1)},
			Label: ndarray.Full(float32(i), 1, 1),
		}
	}
	ds, err := NewLabeledImageDataset(images, nil, nil, Config{Seed: 1, BatchSize: 6})
	if err != nil {
		t.Fatalf("NewLabeledImageDataset failed: %v", err)
	}
	ds.Shuffle(99)

	seen := make(map[int]bool)
	for _, idx := range ds.order {
		seen[idx] = true
	}
	if len(seen) != 6 {
		t.Fatalf("shuffle lost indices: %v", ds.order)
	}
}

func TestMakeBatchFlat_InconsistentShapes(t *testing.T) {
	examples := []*Example{
		{Image: make([]float32, 4), ImageShape: []int{2, 2}, Label: make([]int64, 4), LabelShape: []int{2, 2}},
		{Image: make([]float32, 6), ImageShape: []int{2, 3}, Label: make([]int64, 4), LabelShape: []int{2, 2}},
	}
	if _, err := MakeBatchFlat(examples); !errors.Is(err, ndarray.ErrShape) {
		t.Fatalf("expected ErrShape for inconsistent image shapes, got %v", err)
	}
	examples[1].ImageShape, examples[1].Image = []int{2, 2}, make([]float32, 4)
	examples[1].LabelShape = []int{4}
	if _, err := MakeBatchFlat(examples); !errors.Is(err, ndarray.ErrShape) {
		t.Fatalf("expected ErrShape for inconsistent label shapes, got %v", err)
	}

	flat, err := MakeBatchFlat(examples[:1])
	if err != nil {
		t.Fatalf("MakeBatchFlat failed: %v", err)
	}
	if flat.BatchSize != 1 || len(flat.Images) != 4 {
		t.Fatalf("unexpected flat batch %+v", flat)
	}
}

func TestPairedPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A/2.png", "A/1.png", "B/1.png", "B/2.png", "C/1.png"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	lists, err := PairedPaths(filepath.Join(dir, "A", "*.png"), filepath.Join(dir, "B", "*.png"))
	if err != nil {
		t.Fatalf("PairedPaths failed: %v", err)
	}
	if filepath.Base(lists[0][0]) != "1.png" || filepath.Base(lists[1][1]) != "2.png" {
		t.Fatalf("lists not sorted: %v", lists)
	}

	_, err = PairedPaths(filepath.Join(dir, "A", "*.png"), filepath.Join(dir, "C", "*.png"))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for unequal lists, got %v", err)
	}

	if _, err := GlobSorted(filepath.Join(dir, "D", "*.png")); err == nil {
		t.Fatalf("expected an error when nothing matches")
	}
	if _, err := GlobSorted("[" + dir); !errors.Is(err, filepath.ErrBadPattern) {
		t.Fatalf("expected ErrBadPattern to be wrapped, got %v", err)
	}
}
