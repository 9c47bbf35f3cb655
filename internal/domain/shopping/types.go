package shopping

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is one shopping list entry. Names are not unique within a list.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Validate checks the invariants the list backend must honour
func (i Item) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidItem)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("%w: %q has quantity %d", ErrInvalidItem, i.Name, i.Quantity)
	}
	return nil
}

// Status tells whether a price could be obtained
type Status int

const (
	StatusPriced Status = iota
	StatusUnavailable
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusPriced:
		return "priced"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// PriceResult is the outcome of pricing one item. An unavailable result
// never carries a price.
type PriceResult struct {
	Item   Item
	Price  decimal.NullDecimal
	Status Status
}

// Priced builds a successful result
func Priced(item Item, price decimal.Decimal) PriceResult {
	return PriceResult{
		Item:   item,
		Price:  decimal.NewNullDecimal(price),
		Status: StatusPriced,
	}
}

// Unavailable builds the fallback result used when the pricer failed,
// timed out or was skipped by the circuit breaker
func Unavailable(item Item) PriceResult {
	return PriceResult{Item: item, Status: StatusUnavailable}
}

// Available reports whether the result carries a price
func (r PriceResult) Available() bool {
	return r.Status == StatusPriced && r.Price.Valid
}

// Line is the wire form of a PriceResult: one JSON object per streamed line.
type Line struct {
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	Price     *json.Number `json:"price"`
	Available bool         `json:"available"`
}

// Line converts the result to its wire form. Price is null when unavailable.
func (r PriceResult) Line() Line {
	line := Line{
		Name:      r.Item.Name,
		Quantity:  r.Item.Quantity,
		Available: r.Available(),
	}
	if line.Available {
		price := json.Number(r.Price.Decimal.String())
		line.Price = &price
	}
	return line
}
