package dataset

import (
	"context"

	"macrofeed/internal/fetch"
)

// NewsProvider supplies the latest headlines for the "news" dataset.
// Providers must be safe for concurrent use.
type NewsProvider interface {
	Name() string
	LatestHeadlines(ctx context.Context) ([]Headline, error)
}

// NewsFetcher builds the "news" dataset from one or more providers,
// primary first.
type NewsFetcher struct {
	policy    fetch.Policy
	providers []NewsProvider
}

// NewNewsFetcher creates a news dataset builder.
func NewNewsFetcher(policy fetch.Policy, providers ...NewsProvider) *NewsFetcher {
	return &NewsFetcher{policy: policy, providers: providers}
}

// Key returns the dataset key.
func (f *NewsFetcher) Key() string {
	return KeyNews
}

// Fetch pulls headlines through the same retry-and-fallback path as every
// other dataset.
func (f *NewsFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	callers := make([]fetch.Caller[[]Headline], 0, len(f.providers))
	for _, p := range f.providers {
		provider := p
		callers = append(callers, fetch.Caller[[]Headline]{
			Adapter: provider.Name(),
			Call: func(ctx context.Context) ([]Headline, error) {
				return provider.LatestHeadlines(ctx)
			},
		})
	}

	headlines, attempts, err := fetch.Do(ctx, KeyNews, f.policy, callers...)
	if err != nil {
		return nil, attempts, err
	}
	return headlines, attempts, nil
}
