package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate(t *testing.T) {
	points := Simulate(DefaultYears)
	require.Len(t, points, DefaultYears+1)

	assert.Equal(t, int64(0), points[0].CirculatingSupply)
	assert.Equal(t, MaxSupply, points[0].SupplyLeft)
	assert.Equal(t, 0.0, points[0].MinedPercentage)

	// exp(-2102400 / 2^20) leaves about 13.47% after the first year.
	assert.InDelta(t, 86.53, points[1].MinedPercentage, 0.01)

	for i := 1; i < len(points); i++ {
		p := points[i]
		assert.GreaterOrEqual(t, p.CirculatingSupply, points[i-1].CirculatingSupply)
		assert.Equal(t, MaxSupply, p.CirculatingSupply+p.SupplyLeft)
		assert.InDelta(t, float64(p.CirculatingSupply)/10, float64(p.DevSupply), 1)
	}
}

func TestRows_Descending(t *testing.T) {
	rows := Rows(5)
	require.Len(t, rows, 6)
	assert.Equal(t, 5, rows[0]["year"])
	assert.Equal(t, 0, rows[5]["year"])
}

func TestSimulate_NegativeYears(t *testing.T) {
	assert.Len(t, Simulate(-1), 1)
}
