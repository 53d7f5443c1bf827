package query

import (
	"strings"
	"time"
)

// FilterStrategy adds where conditions to the query
type FilterStrategy interface {
	// ApplyFilter adds filter conditions to the structured query
	ApplyFilter(q *StructuredQuery)
}

// OrderStrategy decides how matching documents are ordered and bounded
type OrderStrategy interface {
	// GetSort returns the orderBy clause
	GetSort() []Order
	// ApplyBounds sets startAt/endAt, continuing after the given position if any
	ApplyBounds(q *StructuredQuery, after *After)
}

// After is the position of the last record already seen
type After struct {
	Timestamp time.Time
	ID        string
}

// Descriptor is the body posted to the Firestore runQuery endpoint
type Descriptor struct {
	StructuredQuery StructuredQuery `json:"structuredQuery"`
}

type StructuredQuery struct {
	From    []CollectionSelector `json:"from"`
	Where   *Filter              `json:"where,omitempty"`
	OrderBy []Order              `json:"orderBy,omitempty"`
	StartAt *Bound               `json:"startAt,omitempty"`
	EndAt   *Bound               `json:"endAt,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
}

type CollectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type Filter struct {
	CompositeFilter *CompositeFilter `json:"compositeFilter,omitempty"`
	FieldFilter     *FieldFilter     `json:"fieldFilter,omitempty"`
}

type CompositeFilter struct {
	Op      string   `json:"op"`
	Filters []Filter `json:"filters"`
}

type FieldFilter struct {
	Field FieldReference `json:"field"`
	Op    string         `json:"op"`
	Value Value          `json:"value"`
}

type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

type Order struct {
	Field     FieldReference `json:"field"`
	Direction string         `json:"direction"`
}

// Bound is a Firestore cursor. Before=false starts strictly after the values.
type Bound struct {
	Values []Value `json:"values"`
	Before bool    `json:"before"`
}

// Envelope is one element of a runQuery response
type Envelope struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}

// Document is a Firestore document as returned over REST
type Document struct {
	Name       string           `json:"name"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// ID is the last segment of the document name
func (d Document) ID() string {
	return d.Name[strings.LastIndex(d.Name, "/")+1:]
}

// ListResponse is returned when listing a collection
type ListResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

const (
	OpAnd              = "AND"
	OpEqual            = "EQUAL"
	OpArrayContainsAny = "ARRAY_CONTAINS_ANY"

	Ascending  = "ASCENDING"
	Descending = "DESCENDING"

	NameField = "__name__"
)

func addFilter(q *StructuredQuery, f FieldFilter) {
	if q.Where == nil {
		q.Where = &Filter{CompositeFilter: &CompositeFilter{Op: OpAnd}}
	}
	q.Where.CompositeFilter.Filters = append(q.Where.CompositeFilter.Filters, Filter{FieldFilter: &f})
}
