package buffer

import (
	"fmt"
	"strings"
)

// Set is an ordered mapping of names to buffers. The order in which
// buffers are added is the canonical order of the set: it is the order
// used when iterating and when flattening the set.
type Set struct {
	names   []string
	buffers map[string]*Buffer
}

// NewSet returns a new, empty Set
func NewSet() *Set {
	return &Set{buffers: make(map[string]*Buffer)}
}

// Add allocates a new zeroed buffer and adds it to the set under name.
// Names must be unique within a set.
func (s *Set) Add(name string, dtype DType, shape ...int) (*Buffer, error) {
	b, err := New(dtype, shape...)
	if err != nil {
		return nil, fmt.Errorf("add %v: %v", name, err)
	}
	if err := s.Put(name, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Put adds an existing buffer to the set under name
func (s *Set) Put(name string, b *Buffer) error {
	if _, ok := s.buffers[name]; ok {
		return fmt.Errorf("put: buffer %q already exists", name)
	}
	s.names = append(s.names, name)
	s.buffers[name] = b
	return nil
}

// Get returns the buffer stored under name
func (s *Set) Get(name string) (*Buffer, bool) {
	if s == nil {
		return nil, false
	}
	b, ok := s.buffers[name]
	return b, ok
}

// Len returns the number of buffers in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns the names of the buffers in canonical order
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Each calls f for every buffer in canonical order, stopping at the
// first error.
func (s *Set) Each(f func(name string, b *Buffer) error) error {
	if s == nil {
		return nil
	}
	for _, name := range s.names {
		if err := f(name, s.buffers[name]); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the total number of elements over all buffers
func (s *Set) Size() int {
	size := 0
	s.Each(func(_ string, b *Buffer) error {
		size += b.Size()
		return nil
	})
	return size
}

// SlotSize returns the total number of elements in a single batch
// slice over all buffers
func (s *Set) SlotSize() int {
	size := 0
	s.Each(func(_ string, b *Buffer) error {
		size += b.SlotLen()
		return nil
	})
	return size
}

// Bytes returns the total number of bytes used by the set's buffers
func (s *Set) Bytes() int {
	size := 0
	s.Each(func(_ string, b *Buffer) error {
		size += b.Bytes()
		return nil
	})
	return size
}

// String implements the Stringer interface
func (s *Set) String() string {
	parts := make([]string, 0, s.Len())
	s.Each(func(name string, b *Buffer) error {
		parts = append(parts, fmt.Sprintf("%v: %v", name, b))
		return nil
	})
	return "{" + strings.Join(parts, ", ") + "}"
}
