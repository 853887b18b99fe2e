// Package models - registry for models.
package models

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	sineOps = []string{"FullyConnected", "Quantize", "Dequantize"}
	cnnOps  = []string{"Conv2D", "MaxPool2D", "Reshape", "FullyConnected", "Softmax", "Quantize", "Dequantize"}
	rnnOps  = []string{"UnidirectionalSequenceLSTM", "FullyConnected", "Softmax", "Quantize", "Dequantize"}
	// Operators registered for the person detector, in registration order.
	personOps = []string{"Conv2D", "DepthwiseConv2D", "AveragePool2D", "Reshape", "Softmax", "FullyConnected"}

	cnnClasses    = []string{"horizontal", "vertical", "diagonal", "cross"}
	rnnClasses    = []string{"increasing", "decreasing", "random"}
	personClasses = []string{"no_person", "person"}
)

// catalog is the lookup table of every shipped model variant.
var catalog = map[Kind]Spec{
	KindSineFloat32: {
		Kind:         KindSineFloat32,
		Name:         string(KindSineFloat32),
		Family:       FamilySine,
		Quantization: QuantFloat32,
		InputShape:   []int{1, 1},
		OutputShape:  []int{1, 1},
		Ops:          sineOps,
	},
	KindSineInt8: {
		Kind:           KindSineInt8,
		Name:           string(KindSineInt8),
		Family:         FamilySine,
		Quantization:   QuantInt8,
		InputShape:     []int{1, 1},
		OutputShape:    []int{1, 1},
		Ops:            sineOps,
		InputScale:     0.024637,
		InputZeroPoint: -128,
	},
	KindCNNFloat32: {
		Kind:         KindCNNFloat32,
		Name:         string(KindCNNFloat32),
		Family:       FamilyCNN,
		Quantization: QuantFloat32,
		InputShape:   []int{1, 8, 8, 1},
		OutputShape:  []int{1, 4},
		Ops:          cnnOps,
		Classes:      cnnClasses,
	},
	KindCNNInt8: {
		Kind:           KindCNNInt8,
		Name:           string(KindCNNInt8),
		Family:         FamilyCNN,
		Quantization:   QuantInt8,
		InputShape:     []int{1, 8, 8, 1},
		OutputShape:    []int{1, 4},
		Ops:            cnnOps,
		Classes:        cnnClasses,
		InputScale:     1.0 / 255.0,
		InputZeroPoint: -128,
	},
	KindRNNFloat32: {
		Kind:         KindRNNFloat32,
		Name:         string(KindRNNFloat32),
		Family:       FamilyRNN,
		Quantization: QuantFloat32,
		InputShape:   []int{1, 10, 1},
		OutputShape:  []int{1, 3},
		Ops:          rnnOps,
		Classes:      rnnClasses,
	},
	KindRNNInt8: {
		Kind:           KindRNNInt8,
		Name:           string(KindRNNInt8),
		Family:         FamilyRNN,
		Quantization:   QuantInt8,
		InputShape:     []int{1, 10, 1},
		OutputShape:    []int{1, 3},
		Ops:            rnnOps,
		Classes:        rnnClasses,
		InputScale:     0.05,
		InputZeroPoint: -128,
	},
	KindPersonDetectionInt8: {
		Kind:           KindPersonDetectionInt8,
		Name:           string(KindPersonDetectionInt8),
		Family:         FamilyPersonDetection,
		Quantization:   QuantInt8,
		InputShape:     []int{1, 96, 96, 1},
		OutputShape:    []int{1, 2},
		Ops:            personOps,
		Classes:        personClasses,
		InputScale:     1.0 / 255.0,
		InputZeroPoint: -128,
	},
}

// Lookup returns the catalog entry for kind.
//
// Arguments:
//   - kind: The model variant.
//
// Returns:
//   - Spec: A copy of the catalog entry.
//   - error: ErrUnknownModel if kind is not in the catalog.
func Lookup(kind Kind) (Spec, error) {
	spec, ok := catalog[kind]
	if !ok {
		return Spec{}, errorUnknown(string(kind))
	}
	return spec, nil
}

// ParseKind converts a variant name such as "cnn_int8" into a Kind.
func ParseKind(name string) (Kind, error) {
	kind := Kind(name)
	if _, ok := catalog[kind]; !ok {
		return "", errorUnknown(name)
	}
	return kind, nil
}

// Kinds returns every catalog kind in lexical order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// TopClass returns the label of the highest scoring output, or "" when the
// variant has no class labels (regressors) or output is empty.
func (s Spec) TopClass(output []float32) string {
	if len(s.Classes) == 0 || len(output) == 0 {
		return ""
	}
	best := 0
	for i := 1; i < len(output) && i < len(s.Classes); i++ {
		if output[i] > output[best] {
			best = i
		}
	}
	return s.Classes[best]
}

func errorUnknown(name string) error {
	return errors.Wrapf(ErrUnknownModel, "%q", name)
}
