package models

// SavedTripFilter represents filter parameters for listing saved trips
type SavedTripFilter struct {
	FavoritesOnly bool `form:"favorites"`
	Page          int  `form:"page"`
	PageSize      int  `form:"pageSize"`
}

// Normalize applies default paging
func (f *SavedTripFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
