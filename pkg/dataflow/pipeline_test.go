package dataflow_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/locvowork/reportbook/pkg/dataflow"
)

func noWait(int) time.Duration { return 0 }

func TestPipeline_MapWorkersAndRetry(t *testing.T) {
	ctx := context.Background()

	source := dataflow.From(ctx, "sales:3", "ops:2", "flaky:1")

	type count struct {
		Name string
		N    int
	}
	parsed := dataflow.Map(ctx, source, func(_ context.Context, msg interface{}) (interface{}, error) {
		parts := strings.Split(msg.(string), ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid item %q", msg)
		}
		var n int
		fmt.Sscanf(parts[1], "%d", &n)
		return count{Name: parts[0], N: n}, nil
	}, dataflow.WithWorkers(2))

	var attempts int32
	loaded := dataflow.Map(ctx, parsed, func(_ context.Context, msg interface{}) (interface{}, error) {
		c := msg.(count)
		if c.Name == "flaky" && atomic.AddInt32(&attempts, 1) < 3 {
			return nil, errors.New("transient error")
		}
		return c, nil
	}, dataflow.WithRetry(3, noWait))

	var names []string
	err := dataflow.ForEach(ctx, loaded, func(msg interface{}) error {
		names = append(names, msg.(count).Name)
		return nil
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	sort.Strings(names)
	if got := strings.Join(names, ","); got != "flaky,ops,sales" {
		t.Errorf("expected flaky,ops,sales, got %s", got)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestPipeline_FailedItemStopsForEach(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	var calls int32
	out := dataflow.Map(ctx, dataflow.From(ctx, "bad"), func(context.Context, interface{}) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}, dataflow.WithRetry(2, nil))

	err := dataflow.ForEach(ctx, out, func(interface{}) error { return nil })

	var ie *dataflow.ItemError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *ItemError, got %v", err)
	}
	if ie.Item != "bad" || !errors.Is(err, boom) {
		t.Errorf("unexpected error %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 1 call plus 2 retries, got %d", got)
	}
}

func TestPipeline_ErrorHandlerDropsItem(t *testing.T) {
	ctx := context.Background()
	skip := errors.New("skip")

	out := dataflow.Map(ctx, dataflow.From(ctx, 1, 2, 3, 4), func(_ context.Context, msg interface{}) (interface{}, error) {
		if msg.(int)%2 == 0 {
			return nil, skip
		}
		return msg, nil
	}, dataflow.WithErrorHandler(func(err error) bool { return errors.Is(err, skip) }))

	sum := 0
	if err := dataflow.ForEach(ctx, out, func(msg interface{}) error {
		sum += msg.(int)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if sum != 4 {
		t.Errorf("expected sum 4, got %d", sum)
	}
}

func TestForEach_CallbackError(t *testing.T) {
	ctx := context.Background()
	stop := errors.New("stop")

	seen := 0
	err := dataflow.ForEach(ctx, dataflow.From(ctx, 1, 2, 3), func(msg interface{}) error {
		seen++
		if msg.(int) == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop, got %v", err)
	}
	if seen != 2 {
		t.Errorf("expected ForEach to stop after 2 items, saw %d", seen)
	}
}

func TestForEach_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := make(chan interface{})
	err := dataflow.ForEach(ctx, dataflow.Stream(blocked), func(interface{}) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
