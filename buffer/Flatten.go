package buffer

import "fmt"

// All selects every batch slice of a buffer when flattening
const All = -1

// Cursor is a write position into a contiguous float64 destination
type Cursor struct {
	dst []float64
	pos int
}

// NewCursor returns a Cursor positioned at the start of dst
func NewCursor(dst []float64) *Cursor {
	return &Cursor{dst: dst}
}

// Pos returns the number of elements written or skipped so far
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of elements left in the destination
func (c *Cursor) Remaining() int {
	return len(c.dst) - c.pos
}

// Zero writes n zeros and advances the cursor by n
func (c *Cursor) Zero(n int) error {
	if n > c.Remaining() {
		return fmt.Errorf("zero: destination overflow\n\twant(%v)\n\thave(%v)",
			n, c.Remaining())
	}
	for i := c.pos; i < c.pos+n; i++ {
		c.dst[i] = 0
	}
	c.pos += n
	return nil
}

// Flatten copies the buffers of set into the cursor's destination in the
// set's canonical order, advancing the cursor by the number of elements
// copied. If slot is All, each buffer is copied whole, otherwise only
// its slot-th batch slice is copied.
func Flatten(c *Cursor, set *Set, slot int) error {
	return set.Each(func(name string, b *Buffer) error {
		start, n := 0, b.Size()
		if slot != All {
			if slot < 0 || slot >= b.Batch() {
				return fmt.Errorf("flatten %v: slot %v out of range [0, %v)",
					name, slot, b.Batch())
			}
			n = b.SlotLen()
			start = slot * n
		}
		if n > c.Remaining() {
			return fmt.Errorf("flatten %v: destination overflow"+
				"\n\twant(%v)\n\thave(%v)", name, n, c.Remaining())
		}
		b.copyTo(c.dst[c.pos:c.pos+n], start, n)
		c.pos += n
		return nil
	})
}
