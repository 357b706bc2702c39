package chart

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnKind is returned when a candle column is charted as a
	// scalar series or a scalar column as candlesticks.
	ErrColumnKind = errors.New("column kind does not match chart view")

	// ErrNotBound is returned by Session.SetData before a column is bound.
	ErrNotBound = errors.New("no chart column bound")
)

// MappingError reports a row whose x-axis value cannot be resolved.
type MappingError struct {
	Source string
	Column string
	Index  int
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("chart %s/%s: row %d has no time value", e.Source, e.Column, e.Index)
}
