package models

// Quantization is the numeric representation of a model's weights and
// input/output tensors.
type Quantization string

const (
	// QuantFloat32 represents 32-bit floating point tensors.
	QuantFloat32 Quantization = "float32"
	// QuantInt8 represents affine quantized signed 8-bit tensors.
	QuantInt8 Quantization = "int8"
)

// ElementBytes returns the size in bytes of one tensor element.
func (q Quantization) ElementBytes() int {
	switch q {
	case QuantInt8:
		return 1
	default:
		return 4
	}
}
