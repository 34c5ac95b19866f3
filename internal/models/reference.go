package models

// Reference data is used for display enrichment only. It never feeds
// transition decisions.

// Region is a top-level administrative area.
type Region struct {
	ID   int64  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// District belongs to a region.
type District struct {
	ID       int64  `db:"id" json:"id"`
	RegionID int64  `db:"region_id" json:"region_id"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
}

// Organization is an applicant or government body.
type Organization struct {
	ID       int64   `db:"id" json:"id"`
	Code     string  `db:"code" json:"code"`
	Name     string  `db:"name" json:"name"`
	Type     *string `db:"organization_type" json:"organization_type,omitempty"`
	RegionID *int64  `db:"region_id" json:"region_id,omitempty"`
}
