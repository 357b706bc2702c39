package query

import (
	"fmt"
	"strings"
)

// Delimiter separates the parts of order and where tokens.
const Delimiter = "::"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid checks if the direction is a known value.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// Operator is a where-clause comparison understood by the view backend.
type Operator string

const (
	OpEq   Operator = "eq"
	OpNeq  Operator = "neq"
	OpGt   Operator = "gt"
	OpGte  Operator = "gte"
	OpLt   Operator = "lt"
	OpLte  Operator = "lte"
	OpLike Operator = "like"
)

// Operators lists every operator in the order the controls offer them.
var Operators = []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike}

var validOperators = map[Operator]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpGte: true,
	OpLt: true, OpLte: true, OpLike: true,
}

// IsValid checks if the operator is supported.
func (o Operator) IsValid() bool {
	return validOperators[o]
}

// Order is a single "<field>::<asc|desc>" token.
type Order struct {
	Field     string
	Direction Direction
}

// String encodes the order as a query token.
func (o Order) String() string {
	return o.Field + Delimiter + string(o.Direction)
}

// ParseOrder parses a "<field>::<asc|desc>" token.
func ParseOrder(token string) (Order, error) {
	parts := strings.SplitN(token, Delimiter, 2)
	if len(parts) != 2 || parts[0] == "" {
		return Order{}, fmt.Errorf("%w: order %q", ErrInvalidToken, token)
	}
	dir := Direction(parts[1])
	if !dir.IsValid() {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidDirection, parts[1])
	}
	return Order{Field: parts[0], Direction: dir}, nil
}

// Filter is a single "<field>::<op>::<value>" token.
type Filter struct {
	Field string
	Op    Operator
	Value string
}

// String encodes the filter as a query token.
func (f Filter) String() string {
	return f.Field + Delimiter + string(f.Op) + Delimiter + f.Value
}

// ParseFilter parses a "<field>::<op>::<value>" token.
// The value keeps any further delimiters verbatim.
func ParseFilter(token string) (Filter, error) {
	parts := strings.SplitN(token, Delimiter, 3)
	if len(parts) != 3 || parts[0] == "" {
		return Filter{}, fmt.Errorf("%w: where %q", ErrInvalidToken, token)
	}
	op := Operator(parts[1])
	if !op.IsValid() {
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidOperator, parts[1])
	}
	return Filter{Field: parts[0], Op: op, Value: parts[2]}, nil
}

// OrderTokens encodes orders as query tokens.
func OrderTokens(orders []Order) []string {
	if len(orders) == 0 {
		return nil
	}
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.String()
	}
	return out
}

// FilterTokens encodes filters as query tokens.
func FilterTokens(filters []Filter) []string {
	if len(filters) == 0 {
		return nil
	}
	out := make([]string, len(filters))
	for i, f := range filters {
		out[i] = f.String()
	}
	return out
}
