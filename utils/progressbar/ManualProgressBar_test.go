package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, "run", 10, 4)

	assert.Contains(t, p.String(), "|          |")
	for i := 0; i < 6; i++ {
		p.Increment()
	}
	assert.Equal(t, 4, p.Progress())
	assert.Contains(t, p.String(), "|"+strings.Repeat("█", 10)+"|")
	assert.Contains(t, p.String(), "[4/4")

	p.Finish()
	assert.True(t, strings.HasPrefix(p.String(), "run |"))
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestManualProgressBarPartial(t *testing.T) {
	p := NewManualProgressBar(&bytes.Buffer{}, "", 4, 8)
	p.Increment()
	p.Increment()
	assert.True(t, strings.HasPrefix(p.String(), "|█   |"))
}
