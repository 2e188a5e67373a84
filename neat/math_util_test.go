package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatFunctions(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	assert.InDelta(t, 2.5, Mean(values), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), Stdev(values), 1e-12)
	assert.InDelta(t, 10.0, Sum(values), 1e-12)
	assert.Equal(t, 4.0, MaxFloat(values))
	assert.Equal(t, 1.0, MinFloat(values))
	assert.Equal(t, 2.5, Median(values))
	assert.Equal(t, 3.0, Median([]float64{5, 3, 1}))
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "inputs must not be reordered")
}

func TestStatFunctionsOnEmptyInput(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, Stdev([]float64{7}))
	assert.Zero(t, Sum(nil))
	assert.True(t, math.IsInf(MaxFloat(nil), -1))
	assert.True(t, math.IsInf(MinFloat(nil), 1))
	assert.True(t, math.IsNaN(Median(nil)))
}
