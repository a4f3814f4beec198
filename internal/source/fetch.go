package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/locvowork/reportbook/pkg/dataflow"
)

// FetchOption configures FetchAll.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	workers    int
	maxRetries int
	backoff    func(attempt int) time.Duration
}

func defaultFetchConfig() *fetchConfig {
	return &fetchConfig{
		workers: 4,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 200 * time.Millisecond
		},
	}
}

// WithWorkers bounds how many sources are fetched at once.
func WithWorkers(n int) FetchOption {
	return func(c *fetchConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRetry retries a failing source up to maxRetries more times, sleeping
// backoff(attempt) between attempts. A nil backoff keeps the default.
func WithRetry(maxRetries int, backoff func(attempt int) time.Duration) FetchOption {
	return func(c *fetchConfig) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if backoff != nil {
			c.backoff = backoff
		}
	}
}

type fetched struct {
	name    string
	records []interface{}
}

// FetchAll resolves every name against the registry and fetches the sources
// concurrently. The result maps each name to its records. The first failure
// cancels the remaining fetches and is returned.
func FetchAll(ctx context.Context, reg *Registry, names []string, opts ...FetchOption) (map[string]interface{}, error) {
	cfg := defaultFetchConfig()
	for _, o := range opts {
		o(cfg)
	}

	sources := make(map[string]Source, len(names))
	items := make([]interface{}, 0, len(names))
	for _, n := range names {
		s, err := reg.Get(n)
		if err != nil {
			return nil, err
		}
		if _, dup := sources[n]; !dup {
			items = append(items, n)
		}
		sources[n] = s
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := dataflow.Map(ctx, dataflow.From(ctx, items...), func(ctx context.Context, item interface{}) (interface{}, error) {
		name := item.(string)
		recs, err := sources[name].Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return fetched{name: name, records: recs}, nil
	}, dataflow.WithWorkers(cfg.workers), dataflow.WithRetry(cfg.maxRetries, cfg.backoff), dataflow.WithBufferSize(len(items)))

	out := make(map[string]interface{}, len(sources))
	err := dataflow.ForEach(ctx, results, func(msg interface{}) error {
		f := msg.(fetched)
		zerolog.Ctx(ctx).Debug().Str("source", f.name).Int("records", len(f.records)).Msg("source fetched")
		out[f.name] = f.records
		return nil
	})
	if err != nil {
		var ie *dataflow.ItemError
		if errors.As(err, &ie) {
			return nil, fmt.Errorf("fetch source %q: %w", ie.Item, ie.Err)
		}
		return nil, err
	}
	if len(out) < len(sources) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
