package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMin(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(int32(2), Min(2, 3))
	assert.Equal(int32(2), Min(3, 2))
	assert.Equal(int32(2), Min(2, 2))
}

func TestRoundUp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(int32(4), RoundUp(10, 3))
	assert.Equal(int32(3), RoundUp(9, 3), "exact division")
	assert.Equal(int32(0), RoundUp(0, 3))
	assert.Equal(int32(1), RoundUp(1, 128))
	assert.Equal(int32(2), RoundUp(129, 128), "round up by 1 over")
}
