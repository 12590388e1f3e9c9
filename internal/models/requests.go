package models

// PlanRequest starts planning a route on a page. Blank fields are reported
// to the page as a warning rather than rejected by binding.
type PlanRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PositionReport is a fix or a failure reported by the page's geolocation.
// Exactly one of the position or ErrorCode is set.
type PositionReport struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	ErrorCode string   `json:"error_code"` // unsupported, permission_denied, unavailable, timeout
	Message   string   `json:"message"`
}

// RegisterRequest creates an account
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	FullName        string `json:"full_name" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// LoginRequest exchanges credentials for a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	User      *User  `json:"user"`
}

// SaveTripRequest saves the current route of a page under a name
type SaveTripRequest struct {
	PageID     string `json:"page_id" binding:"required"`
	Name       string `json:"name"`
	IsFavorite bool   `json:"is_favorite"`
}
