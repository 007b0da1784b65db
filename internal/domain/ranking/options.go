package ranking

// Option applies a configuration option to RankWithin.
type Option func(*options)

type options struct {
	filter   Filter
	limit    int
	criteria *Criteria
}

// WithFilter restricts the cohort to entries accepted by f.
func WithFilter(f Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}

// WithLimit sets the leaderboard size. Zero keeps only the target row.
func WithLimit(limit int) Option {
	return func(o *options) {
		if limit >= 0 {
			o.limit = limit
		}
	}
}

// WithCriteria records the cohort definition on the result.
func WithCriteria(c Criteria) Option {
	return func(o *options) {
		o.criteria = &c
	}
}
