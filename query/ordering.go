package query

// TimestampOrder orders newest first on a timestamp field, breaking ties on
// the document name so that continuation never skips equal timestamps.
type TimestampOrder struct {
	Field string
	// Reference turns a document id into a full document name
	Reference func(id string) string
}

func (s *TimestampOrder) GetSort() []Order {
	return []Order{
		{Field: FieldReference{FieldPath: s.Field}, Direction: Descending},
		{Field: FieldReference{FieldPath: NameField}, Direction: Descending},
	}
}

func (s *TimestampOrder) ApplyBounds(q *StructuredQuery, after *After) {
	if after == nil {
		return
	}
	q.StartAt = &Bound{
		Values: []Value{TimestampValue(after.Timestamp), ReferenceValue(s.Reference(after.ID))},
		Before: false,
	}
}

// SlugPrefixOrder matches title slugs starting with Term, in slug order
type SlugPrefixOrder struct {
	Term string
}

// "~" sorts after every character a slug can contain
const prefixUpperBound = "~"

func (s *SlugPrefixOrder) GetSort() []Order {
	return []Order{
		{Field: FieldReference{FieldPath: "titleSlug"}, Direction: Ascending},
		{Field: FieldReference{FieldPath: NameField}, Direction: Ascending},
	}
}

// ApplyBounds ignores after, prefix searches have no continuation
func (s *SlugPrefixOrder) ApplyBounds(q *StructuredQuery, _ *After) {
	q.StartAt = &Bound{Values: []Value{StringValue(s.Term)}, Before: true}
	q.EndAt = &Bound{Values: []Value{StringValue(s.Term + prefixUpperBound)}, Before: true}
}

// CreatedOrder orders by a timestamp field without tie breaking or bounds
type CreatedOrder struct {
	Field     string
	Direction string
}

func (s *CreatedOrder) GetSort() []Order {
	return []Order{{Field: FieldReference{FieldPath: s.Field}, Direction: s.Direction}}
}

func (s *CreatedOrder) ApplyBounds(q *StructuredQuery, after *After) {}

var _ OrderStrategy = (*TimestampOrder)(nil)
var _ OrderStrategy = (*SlugPrefixOrder)(nil)
var _ OrderStrategy = (*CreatedOrder)(nil)
