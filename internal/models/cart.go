package models

import "errors"

// Cart represents a buyer's pending ticket selections. It consumes no
// capacity until checkout commits.
type Cart struct {
	BuyerID string     `json:"buyer_id"`
	Items   []CartItem `json:"items"`
}

// CartItem represents one line in a cart
type CartItem struct {
	EventID   string `json:"event_id"`
	SegmentID string `json:"segment_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"` // in cents
	LineTotal int64  `json:"line_total"` // in cents
}

// Validate validates a cart item
func (i *CartItem) Validate() error {
	if i.EventID == "" || i.SegmentID == "" {
		return errors.New("cart item event and segment are required")
	}

	if i.Quantity <= 0 {
		return errors.New("cart item quantity must be greater than 0")
	}

	if i.UnitPrice < 0 {
		return errors.New("cart item unit price cannot be negative")
	}

	return nil
}

// Subtotal returns the sum of all line totals in cents
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += item.LineTotal
	}
	return subtotal
}

// IsEmpty returns true if the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
