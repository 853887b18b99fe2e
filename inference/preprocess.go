package inference

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-mlbench/models"
)

const (
	// sineSteps is the number of evenly spaced points per period of the
	// synthesized sine input.
	sineSteps = 100
	// patternGrid is the logical grid the CNN patterns are drawn on.
	patternGrid = 8
	// patternScale is the pixel size of one grid cell before resizing.
	patternScale = 4
	// personCanvas is the edge length of the person detection canvas before
	// resizing to the model input.
	personCanvas = 48
)

// Synthesize builds the input tensor for one benchmark iteration. Inputs are
// deterministic per iteration so repeated runs exercise identical data.
//
// Arguments:
//   - spec: The model variant to synthesize input for.
//   - iteration: The zero based iteration index.
//
// Returns:
//   - *tensor.Dense: A float32 tensor shaped like spec.InputShape.
//   - error: An error if the family has no synthesizer or the shape is unusable.
func Synthesize(spec models.Spec, iteration int) (*tensor.Dense, error) {
	var (
		data []float32
		err  error
	)

	switch spec.Family {
	case models.FamilySine:
		data = sineInput(iteration)
	case models.FamilyCNN:
		data, err = imageInput(spec.InputShape, patternImage(iteration))
	case models.FamilyPersonDetection:
		data, err = imageInput(spec.InputShape, personImage(iteration))
	case models.FamilyRNN:
		data = sequenceInput(spec.InputSize(), iteration)
	default:
		return nil, errors.Errorf("no input synthesizer for family %q", spec.Family)
	}
	if err != nil {
		return nil, err
	}

	if len(data) != spec.InputSize() {
		return nil, errors.Errorf("synthesized %d values for %s, model expects %d",
			len(data), spec.Name, spec.InputSize())
	}

	return tensor.New(tensor.WithShape(spec.InputShape...), tensor.WithBacking(data)), nil
}

// QuantizeInt8 maps float values onto the affine int8 grid described by
// scale and zeroPoint, saturating at the int8 range.
func QuantizeInt8(values []float32, scale float32, zeroPoint int8) []int8 {
	if scale <= 0 {
		scale = 1
	}
	out := make([]int8, len(values))
	for i, v := range values {
		q := math32.Round(v/scale) + float32(zeroPoint)
		switch {
		case q > 127:
			q = 127
		case q < -128:
			q = -128
		}
		out[i] = int8(q)
	}
	return out
}

func sineInput(iteration int) []float32 {
	step := float32(iteration%sineSteps) / sineSteps
	return []float32{2 * math32.Pi * step}
}

// imageInput resizes img to the NHWC single channel shape and normalizes
// pixels to [0, 1].
func imageInput(shape []int, img image.Image) ([]float32, error) {
	if len(shape) != 4 || shape[3] != 1 {
		return nil, errors.Errorf("expected NHWC single channel shape, got %v", shape)
	}
	h, w := shape[1], shape[2]

	resized := resize.Resize(uint(w), uint(h), img, resize.Bilinear)
	b := resized.Bounds()

	data := make([]float32, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(resized.At(x, y)).(color.Gray)
			data = append(data, float32(g.Y)/255.0)
		}
	}
	return data, nil
}

// patternImage draws one of the four line patterns the CNN classifies,
// cycling horizontal, vertical, diagonal and cross by iteration.
func patternImage(iteration int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, patternGrid*patternScale, patternGrid*patternScale))
	offset := 2 + (iteration/4)%4

	cell := func(row, col int) {
		for y := row * patternScale; y < (row+1)*patternScale; y++ {
			for x := col * patternScale; x < (col+1)*patternScale; x++ {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	switch iteration % 4 {
	case 0:
		for c := 2; c < 6; c++ {
			cell(offset, c)
		}
	case 1:
		for r := 2; r < 6; r++ {
			cell(r, offset)
		}
	case 2:
		for i := 2; i < 6; i++ {
			cell(i, i)
		}
	default:
		for i := 2; i < 6; i++ {
			cell(4, i)
			cell(i, 4)
		}
	}
	return img
}

// personImage renders a diagonal gradient and, on odd iterations, a bright
// head-and-torso silhouette.
func personImage(iteration int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, personCanvas, personCanvas))
	for y := 0; y < personCanvas; y++ {
		for x := 0; x < personCanvas; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) * 255 / (2 * (personCanvas - 1)))})
		}
	}
	if iteration%2 == 1 {
		fill := func(r image.Rectangle) {
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					img.SetGray(x, y, color.Gray{Y: 240})
				}
			}
		}
		fill(image.Rect(20, 8, 28, 16))
		fill(image.Rect(16, 16, 32, 40))
	}
	return img
}

// sequenceInput produces increasing, decreasing and random sequences in turn.
func sequenceInput(n, iteration int) []float32 {
	r := rand.New(rand.NewSource(int64(iteration)))
	seq := make([]float32, n)
	span := float32(n - 1)
	if span == 0 {
		span = 1
	}

	switch iteration % 3 {
	case 0:
		start := r.Float32() * 5
		for i := range seq {
			seq[i] = start + 5*float32(i)/span + 0.2*float32(r.NormFloat64())
		}
	case 1:
		start := 5 + r.Float32()*5
		for i := range seq {
			seq[i] = start - 5*float32(i)/span + 0.2*float32(r.NormFloat64())
		}
	default:
		for i := range seq {
			seq[i] = r.Float32() * 10
		}
	}
	return seq
}

// Values returns the float32 backing of an input tensor.
func Values(input *tensor.Dense) ([]float32, error) {
	switch v := input.Data().(type) {
	case []float32:
		return v, nil
	case float32:
		return []float32{v}, nil
	default:
		return nil, errors.Errorf("expected float32 tensor, got %T", v)
	}
}
