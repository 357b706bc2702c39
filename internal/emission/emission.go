// Package emission simulates the XELIS supply curve. Every block mines
// (max supply - circulating) >> EmissionSpeedFactor, so the remaining supply
// decays geometrically.
package emission

import (
	"math"

	"github.com/shopspring/decimal"

	"xelis-stats/internal/viewapi"
)

const (
	// MaxSupply in atomic units (18.4M XEL).
	MaxSupply int64 = 18_400_000 * 100_000_000

	// EmissionSpeedFactor is the right shift applied to the remaining supply.
	EmissionSpeedFactor = 20

	// BlockTimeSeconds is the target block time.
	BlockTimeSeconds = 15

	// DevFeePercent of the mined supply goes to the dev fund.
	DevFeePercent = 10

	// DefaultYears is the simulated horizon.
	DefaultYears = 20
)

// BlocksPerYear at the target block time.
const BlocksPerYear = 365 * 24 * 3600 / BlockTimeSeconds

// Point is the simulated supply at the start of a year.
type Point struct {
	Year              int
	CirculatingSupply int64
	DevSupply         int64
	SupplyLeft        int64
	MinedPercentage   float64
}

// Simulate returns one point per year from 0 to years inclusive.
func Simulate(years int) []Point {
	if years < 0 {
		years = 0
	}
	decay := math.Log1p(-math.Ldexp(1, -EmissionSpeedFactor))
	total := decimal.NewFromInt(MaxSupply)
	dev := decimal.NewFromInt(DevFeePercent).Shift(-2)

	points := make([]Point, years+1)
	for y := range points {
		ratio := math.Exp(decay * float64(BlocksPerYear) * float64(y))
		left := total.Mul(decimal.NewFromFloat(ratio)).Round(0)
		mined := total.Sub(left)

		points[y] = Point{
			Year:              y,
			CirculatingSupply: mined.IntPart(),
			DevSupply:         mined.Mul(dev).Round(0).IntPart(),
			SupplyLeft:        left.IntPart(),
			MinedPercentage:   mined.Div(total).Shift(2).Round(2).InexactFloat64(),
		}
	}
	return points
}

// Rows returns the simulation as view rows in descending year order.
func Rows(years int) []viewapi.Row {
	points := Simulate(years)
	rows := make([]viewapi.Row, len(points))
	for i, p := range points {
		rows[len(points)-1-i] = viewapi.Row{
			"year":               p.Year,
			"circulating_supply": p.CirculatingSupply,
			"dev_supply":         p.DevSupply,
			"supply_left":        p.SupplyLeft,
			"mined_percentage":   p.MinedPercentage,
		}
	}
	return rows
}
