// Package catalog is the demo domain layer: a small item catalog whose
// failures exercise every declared error case end to end.
package catalog

import "time"

// Item is a single catalog entry.
type Item struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Quote is a price quote obtained from the upstream pricing service.
type Quote struct {
	SKU        string `json:"sku"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}
