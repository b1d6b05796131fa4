// Package wrappers provides transformations of environment observations
package wrappers

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/utils/floatutils"
)

// Dimensions of frames produced by AtariFrame
const (
	FrameSize     = 84
	FrameChannels = 4 // Red, green, blue, luma
)

// Preprocessor transforms a raw observation into the state given to an
// agent
type Preprocessor func(obs tensor.Tensor) (tensor.Tensor, error)

// Atari is a Preprocessor wrapping AtariFrame
func Atari(obs tensor.Tensor) (tensor.Tensor, error) {
	return AtariFrame(obs)
}

// AtariFrameSpec returns the observation Spec of frames produced by
// AtariFrame
func AtariFrameSpec() environment.Spec {
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{1})

	return environment.NewSpec(
		[]int{FrameChannels, FrameSize, FrameSize},
		environment.Observation,
		low,
		high,
		environment.Continuous,
	)
}

// AtariFrame converts a (height, width, 3) RGB frame with values in
// [0, 255] to a (4, 84, 84) channel-first tensor with values in [0, 1].
//
// The frame is resized to 84x84 with bilinear interpolation. The first
// three output channels hold the resized colour channels and the fourth
// holds the ITU-R 601 luma of the resized frame. Values outside of
// [0, 255] are clipped before resizing.
//
// AtariFrame is deterministic and does not modify obs.
func AtariFrame(obs tensor.Tensor) (*tensor.Dense, error) {
	shape := obs.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("atariFrame: observation must have shape "+
			"(height, width, channels), have shape %v", shape)
	}
	if shape[2] != 3 {
		return nil, fmt.Errorf("atariFrame: observation must have 3 "+
			"channels (RGB), have %v channels", shape[2])
	}

	src, err := toRGBA(obs, shape[0], shape[1])
	if err != nil {
		return nil, fmt.Errorf("atariFrame: %w", err)
	}

	// Resize the colour frame, then compute the luma of the resized frame
	resized := image.NewRGBA(image.Rect(0, 0, FrameSize, FrameSize))
	draw.BiLinear.Scale(resized, resized.Bounds(), src, src.Bounds(),
		draw.Src, nil)
	gray := image.NewGray(resized.Bounds())
	draw.Draw(gray, gray.Bounds(), resized, image.Point{}, draw.Src)

	// Stack channels in channel-first order
	plane := FrameSize * FrameSize
	data := make([]float64, FrameChannels*plane)
	for y := 0; y < FrameSize; y++ {
		for x := 0; x < FrameSize; x++ {
			i := y*FrameSize + x
			off := resized.PixOffset(x, y)

			data[i] = float64(resized.Pix[off])
			data[plane+i] = float64(resized.Pix[off+1])
			data[2*plane+i] = float64(resized.Pix[off+2])
			data[3*plane+i] = float64(gray.Pix[gray.PixOffset(x, y)])
		}
	}
	floats.Scale(1/255.0, data)

	return tensor.New(
		tensor.WithShape(FrameChannels, FrameSize, FrameSize),
		tensor.WithBacking(data),
	), nil
}

// toRGBA copies a (height, width, 3) tensor into an opaque RGBA image
func toRGBA(obs tensor.Tensor, height, width int) (*image.RGBA, error) {
	if height < 1 || width < 1 {
		return nil, fmt.Errorf("toRGBA: frame must be non-empty, have "+
			"(%v, %v)", height, width)
	}

	if dense, ok := obs.(*tensor.Dense); ok && dense.IsMaterializable() {
		obs = dense.Materialize()
	}

	pixels := height * width
	var at func(int) float64
	switch data := obs.Data().(type) {
	case []float64:
		if len(data) != pixels*3 {
			return nil, errBacking(len(data), pixels*3)
		}
		at = func(i int) float64 { return data[i] }

	case []float32:
		if len(data) != pixels*3 {
			return nil, errBacking(len(data), pixels*3)
		}
		at = func(i int) float64 { return float64(data[i]) }

	case []uint8:
		if len(data) != pixels*3 {
			return nil, errBacking(len(data), pixels*3)
		}
		at = func(i int) float64 { return float64(data[i]) }

	default:
		return nil, fmt.Errorf("toRGBA: unsupported observation dtype %v",
			obs.Dtype())
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for p := 0; p < pixels; p++ {
		img.Pix[4*p] = toUint8(at(3 * p))
		img.Pix[4*p+1] = toUint8(at(3*p + 1))
		img.Pix[4*p+2] = toUint8(at(3*p + 2))
		img.Pix[4*p+3] = 255
	}
	return img, nil
}

func toUint8(v float64) uint8 {
	return uint8(floatutils.Clip(v, 0, 255) + 0.5)
}

func errBacking(have, want int) error {
	return fmt.Errorf("toRGBA: observation backing has %v elements, "+
		"want %v", have, want)
}
