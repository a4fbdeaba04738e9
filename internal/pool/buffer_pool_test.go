package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPool(t *testing.T) {
	bp := NewBufferPool(64)
	assert.Equal(t, 64, bp.Size())

	buf := bp.Get()
	assert.Equal(t, 0, len(*buf))
	assert.GreaterOrEqual(t, cap(*buf), 64)

	*buf = append(*buf, "ZINC1\tZINC2\t0.50\n"...)
	bp.Put(buf)

	again := bp.Get()
	assert.Equal(t, 0, len(*again))
}

func TestBufferPoolDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultBufferSize, NewBufferPool(0).Size())
}

func TestBufferPoolDropsOversized(t *testing.T) {
	bp := NewBufferPool(8)
	big := make([]byte, 0, 1024)
	bp.Put(&big)
	assert.LessOrEqual(t, cap(*bp.Get()), 16*8)
}
