package models

// Role represents the role attached to a caller's principal
type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// Principal identifies a caller. Identity resolution happens outside the
// core; callers arrive with an opaque id and a role.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsStaff returns true for staff and admin principals
func (p *Principal) IsStaff() bool {
	return p.Role == RoleStaff || p.Role == RoleAdmin
}

// IsAdmin returns true for admin principals
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Buyer carries the purchase-side state tracked for a principal
type Buyer struct {
	ID              string   `json:"id" db:"id"`
	LoyaltyPoints   int      `json:"loyalty_points" db:"loyalty_points"`
	PurchaseHistory []string `json:"purchase_history" db:"purchase_history"` // event ids
}

// loyaltyDiscountThreshold is the point balance above which the cart
// discount applies.
const loyaltyDiscountThreshold = 100

// HasLoyaltyDiscount returns true if the buyer qualifies for the 10%
// loyalty discount.
func (b *Buyer) HasLoyaltyDiscount() bool {
	return b.LoyaltyPoints > loyaltyDiscountThreshold
}

// IsLoyalCustomer returns true once the buyer has more than two prior
// purchases, which unlocks loyalty-only segments.
func (b *Buyer) IsLoyalCustomer() bool {
	return len(b.PurchaseHistory) > 2
}
