// Package buffer implements typed, shaped numeric buffers and ordered
// sets of named buffers. Buffers are backed by gorgonia tensors so that
// they can be bound directly as the input and output tensors of an
// inference session.
//
// The leading dimension of a buffer's shape is its batch size. A batch
// slice, or slot, is the contiguous region of size Size() / Batch().
package buffer

import (
	"fmt"

	"gorgonia.org/tensor"
)

// DType is the element type of a Buffer
type DType int

const (
	Float64 DType = iota
	Uint8
)

// String implements the Stringer interface
func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	default:
		return "float64"
	}
}

// ByteSize returns the number of bytes used to store a single element
// of type d.
func (d DType) ByteSize() int {
	if d == Uint8 {
		return 1
	}
	return 8
}

// Tensor returns the tensor element type of d
func (d DType) Tensor() tensor.Dtype {
	if d == Uint8 {
		return tensor.Uint8
	}
	return tensor.Float64
}

// Buffer is a typed numeric buffer with a fixed shape. A Buffer is
// never resized after creation.
type Buffer struct {
	dtype  DType
	shape  []int
	floats []float64
	bytes  []uint8
	dense  *tensor.Dense
}

// New returns a new zeroed Buffer of the given type and shape. All
// dimensions must be positive.
func New(dtype DType, shape ...int) (*Buffer, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("new: buffer shape must have at least one " +
			"dimension")
	}
	size := 1
	for _, dim := range shape {
		if dim < 1 {
			return nil, fmt.Errorf("new: invalid buffer shape %v", shape)
		}
		size *= dim
	}

	b := &Buffer{dtype: dtype, shape: append([]int(nil), shape...)}
	switch dtype {
	case Uint8:
		b.bytes = make([]uint8, size)
		b.dense = tensor.New(tensor.WithShape(shape...),
			tensor.WithBacking(b.bytes))
	case Float64:
		b.floats = make([]float64, size)
		b.dense = tensor.New(tensor.WithShape(shape...),
			tensor.WithBacking(b.floats))
	default:
		return nil, fmt.Errorf("new: unsupported dtype %v", dtype)
	}
	return b, nil
}

// FromFloats returns a new Float64 Buffer with the given shape, filled
// with a copy of values.
func FromFloats(values []float64, shape ...int) (*Buffer, error) {
	b, err := New(Float64, shape...)
	if err != nil {
		return nil, err
	}
	if len(values) != len(b.floats) {
		return nil, fmt.Errorf("fromfloats: invalid number of values"+
			"\n\twant(%v)\n\thave(%v)", len(b.floats), len(values))
	}
	copy(b.floats, values)
	return b, nil
}

// DType returns the element type of the buffer
func (b *Buffer) DType() DType {
	return b.dtype
}

// Shape returns a copy of the buffer's shape
func (b *Buffer) Shape() []int {
	return append([]int(nil), b.shape...)
}

// Batch returns the leading dimension of the buffer
func (b *Buffer) Batch() int {
	return b.shape[0]
}

// Size returns the total number of elements in the buffer
func (b *Buffer) Size() int {
	if b.dtype == Uint8 {
		return len(b.bytes)
	}
	return len(b.floats)
}

// SlotLen returns the number of elements in a single batch slice
func (b *Buffer) SlotLen() int {
	return b.Size() / b.Batch()
}

// Bytes returns the number of bytes used by the buffer's storage
func (b *Buffer) Bytes() int {
	return b.Size() * b.dtype.ByteSize()
}

// Tensor returns the tensor backing the buffer. The tensor shares its
// storage with the buffer.
func (b *Buffer) Tensor() *tensor.Dense {
	return b.dense
}

// At returns element i of the flat storage as a float64
func (b *Buffer) At(i int) float64 {
	if b.dtype == Uint8 {
		return float64(b.bytes[i])
	}
	return b.floats[i]
}

// Float64s returns a copy of the buffer's contents as float64s
func (b *Buffer) Float64s() []float64 {
	out := make([]float64, b.Size())
	b.copyTo(out, 0, b.Size())
	return out
}

// Zero sets every element of the buffer to zero
func (b *Buffer) Zero() {
	for i := range b.floats {
		b.floats[i] = 0
	}
	for i := range b.bytes {
		b.bytes[i] = 0
	}
}

func (b *Buffer) index(slot, col int) (int, error) {
	width := b.SlotLen()
	if slot < 0 || slot >= b.Batch() {
		return 0, fmt.Errorf("slot %v out of range [0, %v)", slot, b.Batch())
	}
	if col < 0 || col >= width {
		return 0, fmt.Errorf("column %v out of range [0, %v)", col, width)
	}
	return slot*width + col, nil
}

// SetFloat writes v at column col of batch slice slot. For Uint8
// buffers, v is truncated.
func (b *Buffer) SetFloat(slot, col int, v float64) error {
	i, err := b.index(slot, col)
	if err != nil {
		return fmt.Errorf("setfloat: %v", err)
	}
	if b.dtype == Uint8 {
		b.bytes[i] = uint8(v)
	} else {
		b.floats[i] = v
	}
	return nil
}

// SetByte writes v at column col of batch slice slot
func (b *Buffer) SetByte(slot, col int, v uint8) error {
	return b.SetFloat(slot, col, float64(v))
}

// Float returns the value at column col of batch slice slot
func (b *Buffer) Float(slot, col int) (float64, error) {
	i, err := b.index(slot, col)
	if err != nil {
		return 0, fmt.Errorf("float: %v", err)
	}
	return b.At(i), nil
}

// CopySlot copies the whole of src into batch slice slot of b. The
// number of elements in src must equal b.SlotLen().
func (b *Buffer) CopySlot(slot int, src *Buffer) error {
	width := b.SlotLen()
	if src.Size() != width {
		return fmt.Errorf("copyslot: invalid source size\n\twant(%v)"+
			"\n\thave(%v)", width, src.Size())
	}
	if slot < 0 || slot >= b.Batch() {
		return fmt.Errorf("copyslot: slot %v out of range [0, %v)", slot,
			b.Batch())
	}
	offset := slot * width
	for i := 0; i < width; i++ {
		v := src.At(i)
		if b.dtype == Uint8 {
			b.bytes[offset+i] = uint8(v)
		} else {
			b.floats[offset+i] = v
		}
	}
	return nil
}

// copyTo copies n elements starting at element start into dst
func (b *Buffer) copyTo(dst []float64, start, n int) {
	if b.dtype == Uint8 {
		for i, v := range b.bytes[start : start+n] {
			dst[i] = float64(v)
		}
		return
	}
	copy(dst, b.floats[start:start+n])
}

// String implements the Stringer interface
func (b *Buffer) String() string {
	return fmt.Sprintf("%v%v", b.dtype, b.shape)
}
