package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	b, err := New(Float64, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, b.Shape())
	assert.Equal(t, 3, b.Batch())
	assert.Equal(t, 6, b.Size())
	assert.Equal(t, 2, b.SlotLen())
	assert.Equal(t, 48, b.Bytes())
	assert.Equal(t, []int{3, 2}, []int(b.Tensor().Shape()))

	u, err := New(Uint8, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, u.Bytes())

	_, err = New(Float64, 0, 2)
	assert.Error(t, err)

	_, err = New(Float64)
	assert.Error(t, err)
}

func TestSetFloatBounds(t *testing.T) {
	b, err := New(Float64, 2, 2)
	require.NoError(t, err)

	require.NoError(t, b.SetFloat(1, 1, 3.5))
	v, err := b.Float(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
	assert.Equal(t, []float64{0, 0, 0, 3.5}, b.Float64s())

	assert.Error(t, b.SetFloat(2, 0, 1))
	assert.Error(t, b.SetFloat(0, 2, 1))
	assert.Error(t, b.SetFloat(-1, 0, 1))
	_, err = b.Float(0, -1)
	assert.Error(t, err)
}

func TestTensorSharesStorage(t *testing.T) {
	b, err := New(Float64, 1, 2)
	require.NoError(t, err)
	require.NoError(t, b.SetFloat(0, 1, 7))
	assert.Equal(t, []float64{0, 7}, b.Tensor().Data().([]float64))

	u, err := New(Uint8, 2, 1)
	require.NoError(t, err)
	require.NoError(t, u.SetByte(1, 0, 1))
	assert.Equal(t, []uint8{0, 1}, u.Tensor().Data().([]uint8))
}

func TestCopySlot(t *testing.T) {
	dst, err := New(Float64, 3, 2, 2)
	require.NoError(t, err)
	src, err := FromFloats([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	require.NoError(t, dst.CopySlot(1, src))
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 2, 3, 4, 0, 0, 0, 0},
		dst.Float64s())

	small, err := FromFloats([]float64{1, 2}, 1, 2)
	require.NoError(t, err)
	assert.Error(t, dst.CopySlot(0, small))
	assert.Error(t, dst.CopySlot(3, src))
}

func TestSetOrderAndDuplicates(t *testing.T) {
	s := NewSet()
	_, err := s.Add("z", Float64, 2, 2)
	require.NoError(t, err)
	_, err = s.Add("a", Uint8, 2, 1)
	require.NoError(t, err)
	_, err = s.Add("m", Float64, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, s.Names())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 8, s.Size())
	assert.Equal(t, 4, s.SlotSize())
	assert.Equal(t, 4*8+2+2*8, s.Bytes())

	_, err = s.Add("a", Float64, 2, 1)
	assert.Error(t, err)
	assert.Equal(t, 3, s.Len())

	var nilSet *Set
	assert.Equal(t, 0, nilSet.Len())
	assert.Equal(t, 0, nilSet.Size())
}

// fill returns a set of three buffers with distinct, recognisable
// values and the given batch size
func fill(t *testing.T, batch int) *Set {
	s := NewSet()
	widths := []struct {
		name  string
		dtype DType
		width int
	}{
		{"direction", Float64, 2},
		{"valid", Uint8, 1},
		{"speed", Float64, 1},
	}
	for k, w := range widths {
		b, err := s.Add(w.name, w.dtype, batch, w.width)
		require.NoError(t, err)
		for slot := 0; slot < batch; slot++ {
			for col := 0; col < w.width; col++ {
				v := float64(10*k + slot + col)
				if w.dtype == Uint8 {
					v = float64(slot % 2)
				}
				require.NoError(t, b.SetFloat(slot, col, v))
			}
		}
	}
	return s
}

func TestFlattenSliceWholeEquivalence(t *testing.T) {
	for _, batch := range []int{1, 2, 5} {
		s := fill(t, batch)

		// Whole-buffer flattening of every member
		whole := make([]float64, s.Size())
		require.NoError(t, Flatten(NewCursor(whole), s, All))

		// Flattening slot by slot, then concatenating per buffer
		perSlot := make([]float64, s.Size())
		c := NewCursor(perSlot)
		for slot := 0; slot < batch; slot++ {
			require.NoError(t, Flatten(c, s, slot))
		}
		assert.Equal(t, s.Size(), c.Pos())

		// Per-slot rows regrouped by buffer must reproduce the whole
		// flattening
		var regrouped []float64
		offset := 0
		for _, name := range s.Names() {
			b, _ := s.Get(name)
			width := b.SlotLen()
			for slot := 0; slot < batch; slot++ {
				start := slot*s.SlotSize() + offset
				regrouped = append(regrouped, perSlot[start:start+width]...)
			}
			offset += width
		}
		assert.Equal(t, whole, regrouped, "batch %v", batch)
	}
}

func TestFlattenOrder(t *testing.T) {
	s := fill(t, 2)
	out := make([]float64, s.SlotSize())
	c := NewCursor(out)
	require.NoError(t, Flatten(c, s, 1))
	// direction[1] = {1, 2}, valid[1] = {1}, speed[1] = {21}
	assert.Equal(t, []float64{1, 2, 1, 21}, out)
	assert.Equal(t, 4, c.Pos())
}

func TestFlattenOverflow(t *testing.T) {
	s := fill(t, 2)
	out := make([]float64, s.SlotSize()-1)
	assert.Error(t, Flatten(NewCursor(out), s, 0))
	assert.Error(t, Flatten(NewCursor(make([]float64, 100)), s, 2))
}

func TestCursorZero(t *testing.T) {
	out := []float64{1, 1, 1}
	c := NewCursor(out)
	require.NoError(t, c.Zero(2))
	assert.Equal(t, []float64{0, 0, 1}, out)
	assert.Error(t, c.Zero(2))
}

func BenchmarkFlatten(b *testing.B) {
	s := NewSet()
	for _, name := range []string{"a", "b", "c", "d"} {
		if _, err := s.Add(name, Float64, 64, 16); err != nil {
			b.Fatal(err)
		}
	}
	out := make([]float64, s.Size())

	for i := 0; i < b.N; i++ {
		c := NewCursor(out)
		for slot := 0; slot < 64; slot++ {
			if err := Flatten(c, s, slot); err != nil {
				b.Fatal(err)
			}
		}
	}
}
