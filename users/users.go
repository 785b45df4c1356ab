package users

import (
	"strings"
	"time"
)

// User is the local identity of a seller, keyed by email.
type User struct {
	ID                  string    `json:"id,omitempty"`                  // Unique identifier for the user
	Email               string    `json:"email,omitempty"`               // Natural key, unique
	Name                string    `json:"name,omitempty"`                // Display name from the provider profile
	AmazonSellerID      string    `json:"amazonSellerId,omitempty"`      // Selling partner id resolved at the last login
	AmazonMarketplaceID string    `json:"amazonMarketplaceId,omitempty"` // Marketplace configured when the user last logged in
	AmazonRegion        string    `json:"amazonRegion,omitempty"`        // SP-API region configured when the user last logged in
	CreatedAt           time.Time `json:"createdAt,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt,omitempty"`
}

// Fields are the attributes refreshed on every successful login.
type Fields struct {
	Name                string
	AmazonSellerID      string
	AmazonMarketplaceID string
	AmazonRegion        string
}

// Apply copies fields onto the user. The seller id is always the one resolved
// by the latest login; other empty values do not clear existing data.
func (u *User) Apply(f Fields) {
	if f.Name != "" {
		u.Name = f.Name
	}
	u.AmazonSellerID = f.AmazonSellerID
	if f.AmazonMarketplaceID != "" {
		u.AmazonMarketplaceID = f.AmazonMarketplaceID
	}
	if f.AmazonRegion != "" {
		u.AmazonRegion = f.AmazonRegion
	}
}

// HasSellerAccount reports whether the user has completed marketplace authorization.
func (u *User) HasSellerAccount() bool {
	return u.AmazonSellerID != ""
}

// NormalizeEmail is applied to every email before it is used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
