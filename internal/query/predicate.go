package query

import (
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
)

// Ordering templates. These are the only order expressions the composer will
// ever emit; user input never reaches them. Computed columns they reference
// (text_rank, distance_km) are added to the projection by the same filter
// that selects the ordering.
const (
	orderByTextRank = "text_rank DESC, relevance_score DESC"
	orderByScore    = "relevance_score DESC"
	orderByDistance = "distance_km ASC"
	orderByRecency  = "publication_date DESC NULLS LAST"
)

// Predicate is the structured form of a composed query: ANDed conditions
// with bound parameters, extra computed projection columns, and a fixed
// ordering expression.
type Predicate struct {
	conds  []sq.Sqlizer
	extras []sq.Sqlizer
	order  string
}

// Compose turns the criteria into a Predicate. Each present filter
// contributes exactly one condition; the ordering is picked by precedence:
// search text, then score filter, then spatial distance, then recency.
func Compose(c FilterCriteria) (*Predicate, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := &Predicate{}

	if c.Category != "" {
		// jsonb containment against the categories array.
		member, err := json.Marshal([]string{c.Category})
		if err != nil {
			return nil, err
		}
		p.conds = append(p.conds, sq.Expr("categories @> ?::jsonb", string(member)))
	}

	if c.MinScore != nil {
		p.conds = append(p.conds, sq.Expr("relevance_score >= ?", *c.MinScore))
	}

	if c.SourceName != "" {
		// Wildcards live in the bound value, never in the clause text.
		p.conds = append(p.conds, sq.Expr("source_name ILIKE ?", "%"+c.SourceName+"%"))
	}

	if c.SearchText != "" {
		p.conds = append(p.conds, sq.Expr(
			"search_vector @@ plainto_tsquery('english', ?)", c.SearchText))
	}

	if c.HasLocation() {
		p.conds = append(p.conds, sq.Expr(
			"ST_DWithin(location, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)",
			*c.Lon, *c.Lat, c.RadiusKm*1000))
	}

	switch {
	case c.SearchText != "":
		p.order = orderByTextRank
		p.extras = append(p.extras, sq.Expr(
			"ts_rank(search_vector, plainto_tsquery('english', ?)) AS text_rank", c.SearchText))
	case c.MinScore != nil:
		p.order = orderByScore
	case c.HasLocation():
		p.order = orderByDistance
		p.extras = append(p.extras, sq.Expr(
			"ST_Distance(location, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography) / 1000.0 AS distance_km",
			*c.Lon, *c.Lat))
	default:
		p.order = orderByRecency
	}

	return p, nil
}

// Conditions returns the ordered condition list.
func (p *Predicate) Conditions() []sq.Sqlizer {
	return p.conds
}

// Extras returns computed projection columns required by the ordering.
func (p *Predicate) Extras() []sq.Sqlizer {
	return p.extras
}

// OrderBy returns the ordering expression.
func (p *Predicate) OrderBy() string {
	return p.order
}

// Where renders the conjunction with ?-style placeholders. With zero
// conditions it returns an empty clause, which callers treat as match-all.
func (p *Predicate) Where() (string, []interface{}, error) {
	if len(p.conds) == 0 {
		return "", nil, nil
	}
	return sq.And(p.conds).ToSql()
}
