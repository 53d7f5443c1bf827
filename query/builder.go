package query

// FeedQueryBuilder builds runQuery descriptors from filters and an ordering
type FeedQueryBuilder struct {
	collection string
	filters    []FilterStrategy
	order      OrderStrategy
}

func NewFeedQueryBuilder(collection string) *FeedQueryBuilder {
	return &FeedQueryBuilder{
		collection: collection,
		filters:    make([]FilterStrategy, 0),
	}
}

func (b *FeedQueryBuilder) AddFilter(filter FilterStrategy) {
	b.filters = append(b.filters, filter)
}

func (b *FeedQueryBuilder) SetOrder(order OrderStrategy) {
	b.order = order
}

func (b *FeedQueryBuilder) Build(limit int, after *After) Descriptor {
	q := StructuredQuery{
		From: []CollectionSelector{{CollectionID: b.collection}},
	}

	// Apply all filters
	for _, filter := range b.filters {
		filter.ApplyFilter(&q)
	}

	// A lone condition is sent as a plain field filter
	if q.Where != nil && len(q.Where.CompositeFilter.Filters) == 1 {
		q.Where = &q.Where.CompositeFilter.Filters[0]
	}

	if b.order != nil {
		q.OrderBy = b.order.GetSort()
		b.order.ApplyBounds(&q, after)
	}

	q.Limit = limit

	return Descriptor{StructuredQuery: q}
}
