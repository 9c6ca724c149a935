package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConverter(t *testing.T) {
	cents := NewConverter(1000)

	assert.Equal(t, int64(250000), cents.ToMillicents(250))
	assert.Equal(t, int64(250), cents.FromMillicents(250000))
	assert.Equal(t, int64(2), cents.FromMillicents(2999))
	assert.Equal(t, "$2.50", cents.Format(250))
	assert.Equal(t, "$0.00", cents.Format(0))

	nickels := NewConverter(5000)
	assert.Equal(t, "$1.25", nickels.Format(25))
	assert.Equal(t, int64(125000), nickels.ToMillicents(25))

	var zero Converter
	assert.Zero(t, zero.FromMillicents(1000))
}
