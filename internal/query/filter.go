package query

import "fmt"

// FilterCriteria carries the optional filters a read may combine. All fields
// are independent; the zero value matches every article. Lat and Lon must be
// set together, and a radius only makes sense when both are present.
type FilterCriteria struct {
	Category   string
	MinScore   *float64
	SourceName string
	SearchText string
	Lat        *float64
	Lon        *float64
	RadiusKm   float64
	Limit      int
	Offset     int
}

// HasLocation reports whether a complete spatial filter is present.
func (c FilterCriteria) HasLocation() bool {
	return c.Lat != nil && c.Lon != nil
}

// Validate rejects contradictory or malformed filter combinations before any
// query is built.
func (c FilterCriteria) Validate() error {
	if (c.Lat == nil) != (c.Lon == nil) {
		return &InvalidFilterError{Reason: "lat and lon must be provided together"}
	}
	if c.HasLocation() {
		if c.RadiusKm <= 0 {
			return &InvalidFilterError{Reason: "radius must be greater than zero"}
		}
		if *c.Lat < -90 || *c.Lat > 90 || *c.Lon < -180 || *c.Lon > 180 {
			return &InvalidFilterError{Reason: "lat/lon out of range"}
		}
	}
	if c.MinScore != nil && (*c.MinScore < 0 || *c.MinScore > 1) {
		return &InvalidFilterError{Reason: fmt.Sprintf("min_score %v outside [0,1]", *c.MinScore)}
	}
	if c.Limit < 0 || c.Offset < 0 {
		return &InvalidFilterError{Reason: "limit and offset must not be negative"}
	}
	return nil
}

// InvalidFilterError marks a malformed filter combination. It is the
// caller's fault and maps to a client error at the HTTP layer.
type InvalidFilterError struct {
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return "invalid filter: " + e.Reason
}
