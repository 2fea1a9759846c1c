package model

import "time"

// Address represents a postal address owned by a user.
type Address struct {
	ID        int64
	UserID    int64
	Line1     string
	City      string
	Country   string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAddressRequest represents an address creation request.
type CreateAddressRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	Line1     string `json:"line1" validate:"required,max=255"`
	City      string `json:"city" validate:"required,max=255"`
	Country   string `json:"country" validate:"required,max=255"`
	IsDefault bool   `json:"is_default"`
}

// UpdateAddressRequest is a partial update; nil fields are left unchanged.
// The owning user cannot be changed.
type UpdateAddressRequest struct {
	Line1     *string `json:"line1" validate:"omitempty,min=1,max=255"`
	City      *string `json:"city" validate:"omitempty,min=1,max=255"`
	Country   *string `json:"country" validate:"omitempty,min=1,max=255"`
	IsDefault *bool   `json:"is_default"`
}

// Apply merges the set fields of the request into a.
func (req UpdateAddressRequest) Apply(a *Address) {
	if req.Line1 != nil {
		a.Line1 = *req.Line1
	}
	if req.City != nil {
		a.City = *req.City
	}
	if req.Country != nil {
		a.Country = *req.Country
	}
	if req.IsDefault != nil {
		a.IsDefault = *req.IsDefault
	}
}

// AddressResponse represents address data for API responses, optionally
// embedding the owner.
type AddressResponse struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Line1     string      `json:"line1"`
	City      string      `json:"city"`
	Country   string      `json:"country"`
	IsDefault bool        `json:"is_default"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	User      *PublicUser `json:"user,omitempty"`
}

// Response converts the address to its API form. owner may be nil.
func (a *Address) Response(owner *User) AddressResponse {
	resp := AddressResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		Line1:     a.Line1,
		City:      a.City,
		Country:   a.Country,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if owner != nil {
		pub := owner.Public()
		resp.User = &pub
	}
	return resp
}
