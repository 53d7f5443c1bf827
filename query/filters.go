package query

// VisibilityFilter keeps published posts that are neither deleted nor newsletters
type VisibilityFilter struct{}

func (f *VisibilityFilter) ApplyFilter(q *StructuredQuery) {
	addFilter(q, equal("published", BoolValue(true)))
	addFilter(q, equal("isDelete", BoolValue(false)))
	addFilter(q, equal("isNewsletter", BoolValue(false)))
}

// CategoryFilter keeps posts tagged with at least one of the categories
type CategoryFilter struct {
	Categories []string
}

func (f *CategoryFilter) ApplyFilter(q *StructuredQuery) {
	if len(f.Categories) == 0 {
		return
	}
	values := make([]Value, len(f.Categories))
	for i, c := range f.Categories {
		values[i] = StringValue(c)
	}
	addFilter(q, FieldFilter{
		Field: FieldReference{FieldPath: "postCategory"},
		Op:    OpArrayContainsAny,
		Value: ArrayOf(values...),
	})
}

// EqualFilter matches a single field against a string
type EqualFilter struct {
	Field string
	Value string
}

func (f *EqualFilter) ApplyFilter(q *StructuredQuery) {
	addFilter(q, equal(f.Field, StringValue(f.Value)))
}

func equal(field string, value Value) FieldFilter {
	return FieldFilter{
		Field: FieldReference{FieldPath: field},
		Op:    OpEqual,
		Value: value,
	}
}

var _ FilterStrategy = (*VisibilityFilter)(nil)
var _ FilterStrategy = (*CategoryFilter)(nil)
var _ FilterStrategy = (*EqualFilter)(nil)
