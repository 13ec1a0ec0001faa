package batch

import(
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abworrall/skycolor/pkg/colorize"
)

// ItemStatus is the outcome of one pair. Err is nil for OK items.
type ItemStatus struct {
	Pair       Pair
	Mode       colorize.Mode
	Reason     string
	OutputPath string
	Duration   time.Duration
	Err        error
}

func (s ItemStatus)OK() bool { return s.Err == nil }

// A ProcessFunc handles one pair. The runner fills in Pair, Duration and
// Err itself.
type ProcessFunc func(ctx context.Context, p Pair) (ItemStatus, error)

type Runner struct {
	Workers int                // 0 means runtime.NumCPU()
	Process ProcessFunc
	OnDone  func(ItemStatus)   // called once per item, never concurrently
}

// Run processes every pair. A failing pair is recorded and the rest
// carry on; the returned statuses are in the same order as `pairs`.
// Cancelling ctx marks the not-yet-started pairs as failed.
func (r Runner)Run(ctx context.Context, pairs []Pair) []ItemStatus {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	statuses := make([]ItemStatus, len(pairs))
	var mu sync.Mutex

	g := errgroup.Group{}
	g.SetLimit(workers)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			st := r.runOne(ctx, pair)
			statuses[i] = st
			if r.OnDone != nil {
				mu.Lock()
				r.OnDone(st)
				mu.Unlock()
			}
			return nil // never abort the batch
		})
	}
	g.Wait()

	return statuses
}

func (r Runner)runOne(ctx context.Context, pair Pair) (st ItemStatus) {
	tStart := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			st = ItemStatus{Err: &panicError{rec}}
		}
		st.Pair = pair
		st.Duration = time.Since(tStart)
	}()

	if err := ctx.Err(); err != nil {
		return ItemStatus{Err: err}
	}
	st, err := r.Process(ctx, pair)
	st.Err = err
	return st
}

type panicError struct{ v interface{} }

func (p *panicError)Error() string { return fmt.Sprintf("panic: %v", p.v) }
