package query

import (
	"context"
	"sync"
	"time"

	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/domain"

	"github.com/sirupsen/logrus"
)

// Orchestrator debounces selection changes and loads the settled selection.
// Superseded loads are not cancelled; with discardStale their results are
// dropped, otherwise they are published in completion order.
type Orchestrator struct {
	loader       *Loader
	debounce     *Debouncer
	gen          Generation
	discardStale bool
	log          logrus.FieldLogger

	ctx     context.Context
	cancel  context.CancelFunc
	results chan Result

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewOrchestrator(loader *Loader, delay time.Duration, discardStale bool, log logrus.FieldLogger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		loader:       loader,
		debounce:     NewDebouncer(delay),
		discardStale: discardStale,
		log:          log.WithField("component", "query-orchestrator"),
		ctx:          ctx,
		cancel:       cancel,
		results:      make(chan Result, 8),
	}
}

// Results delivers loaded selections. It is closed by Close.
func (o *Orchestrator) Results() <-chan Result {
	return o.results
}

// Select records a selection change. The load starts once the selection has
// been stable for the debounce delay. An empty selection drops any pending
// load and clears the chart at once.
func (o *Orchestrator) Select(sess domain.Session, sel chart.Selection) {
	if len(sel.Fields) == 0 {
		o.debounce.Cancel()
		o.dispatch(sess, sel)
		return
	}
	o.debounce.Trigger(func() { o.dispatch(sess, sel) })
}

// Dispatch loads immediately, bypassing the debounce. It returns the
// generation assigned to the load, or 0 after Close.
func (o *Orchestrator) Dispatch(sess domain.Session, sel chart.Selection) uint64 {
	return o.dispatch(sess, sel)
}

func (o *Orchestrator) dispatch(sess domain.Session, sel chart.Selection) uint64 {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return 0
	}
	gen := o.gen.Next()
	o.wg.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.wg.Done()
		res := o.loader.Load(o.ctx, sess, sel)
		res.Generation = gen

		if o.discardStale && !o.gen.IsCurrent(gen) {
			o.log.WithFields(logrus.Fields{
				"generation": gen,
				"latest":     o.gen.Current(),
			}).Debug("discarding stale query result")
			return
		}
		select {
		case o.results <- res:
		case <-o.ctx.Done():
		}
	}()
	return gen
}

// Close stops pending debounced work, cancels in-flight loads, waits for them
// and closes the results channel.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.debounce.Stop()
	o.cancel()
	o.wg.Wait()
	close(o.results)
}
