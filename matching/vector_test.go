package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorRoundTrip(t *testing.T) {
	vec := []float64{0.5, 0, 0.25}
	parsed, err := ParseVector(RenderVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, parsed)

	_, err = ParseVector("")
	assert.Error(t, err)
	_, err = ParseVector("[]")
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	sim, ok := CosineSimilarity([]float64{1, 0}, []float64{1, 0})
	require.True(t, ok)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, ok = CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, sim, 1e-9)

	_, ok = CosineSimilarity(nil, []float64{1})
	assert.False(t, ok)
	_, ok = CosineSimilarity([]float64{0, 0}, []float64{1, 0})
	assert.False(t, ok)
}

func TestUpdateCentroid(t *testing.T) {
	t.Run("First member seeds centroid", func(t *testing.T) {
		c, avg := UpdateCentroid(nil, 0, 0, []float64{2, 0})
		assert.Equal(t, []float64{1, 0}, c)
		assert.Equal(t, 1.0, avg)
	})

	t.Run("Incremental update stays normalized", func(t *testing.T) {
		c, avg := UpdateCentroid([]float64{1, 0}, 2, 0.9, []float64{0, 1})
		var sum float64
		for _, x := range c {
			sum += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)
		// o membro divergente puxa a média para baixo
		assert.Less(t, avg, 0.9)
		assert.Greater(t, avg, 0.0)
	})
}
