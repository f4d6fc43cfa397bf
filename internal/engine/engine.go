package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
	"github.com/gyaneshwarpardhi/wfgraph/internal/event"
	"github.com/gyaneshwarpardhi/wfgraph/internal/metrics"
)

var (
	// ErrQueueFull is returned when the trigger queue has no room left.
	ErrQueueFull = errors.New("trigger queue full")
	// ErrTimeout is returned when a synchronous trigger is not resolved in time.
	ErrTimeout = errors.New("trigger processing timeout")
	// ErrCyclicGraph is returned by SwapGraph for graphs that contain a cycle.
	ErrCyclicGraph = errors.New("workflow graph has a cycle")
)

// Result is the outcome of resolving a single trigger event.
type Result struct {
	EventID    string              `json:"event_id"`
	Trigger    string              `json:"trigger"`
	Kind       string              `json:"kind"`
	NextJobs   []string            `json:"next_jobs"`
	Joins      map[string][]string `json:"joins,omitempty"` // next job → sources it waits for
	DurationMs int64               `json:"duration_ms"`
	Error      string              `json:"error,omitempty"`
}

// Engine resolves trigger events against the live workflow graph.
type Engine struct {
	graph atomic.Pointer[dag.Graph]
	pool  *workerPool[*triggerWork, *Result]
	conf  *config.EngineConf

	mu       sync.RWMutex
	onResult []func(*Result)
}

type triggerWork struct {
	ev      *event.Event
	resultC chan *Result
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, g *dag.Graph, conf config.EngineConf) *Engine {
	e := &Engine{conf: &conf}
	e.graph.Store(g)
	publishGraph(g)

	e.pool = newWorkerPool[*triggerWork, *Result](
		ctx,
		conf.TriggerWorkers,
		conf.QueueDepth,
		func(ctx context.Context, w *triggerWork) (*Result, error) {
			return e.Resolve(w.ev), nil
		},
		func(w *triggerWork, res *Result, _ error) {
			if w.resultC != nil {
				w.resultC <- res
			}
			e.publish(res)
		},
	)
	return e
}

// OnResult registers fn to receive the result of every trigger resolved by
// the worker pool, synchronous or queued. fn runs on a worker goroutine.
func (e *Engine) OnResult(fn func(*Result)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onResult = append(e.onResult, fn)
}

func (e *Engine) publish(res *Result) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, fn := range e.onResult {
		fn(res)
	}
}

// Graph returns the live graph.
func (e *Engine) Graph() *dag.Graph {
	return e.graph.Load()
}

// SwapGraph atomically replaces the graph (used on hot-reload).
// Graphs with a cycle are refused and the current graph stays live.
func (e *Engine) SwapGraph(g *dag.Graph) error {
	if path := dag.FindCycle(g); path != nil {
		metrics.CyclesDetected.Inc()
		return fmt.Errorf("%w: %s", ErrCyclicGraph, strings.Join(path, " -> "))
	}
	e.graph.Store(g)
	publishGraph(g)
	return nil
}

func publishGraph(g *dag.Graph) {
	metrics.GraphNodes.Set(float64(g.NodeCount()))
	metrics.GraphEdges.Set(float64(g.EdgeCount()))
}

// ProcessSync resolves a trigger through the worker pool and waits for the result.
// Malformed descriptors are rejected before queueing.
func (e *Engine) ProcessSync(ctx context.Context, ev *event.Event) (*Result, error) {
	if _, err := dag.ParseTrigger(ev.Descriptor()); err != nil {
		return nil, err
	}
	resultC := make(chan *Result, 1)
	w := &triggerWork{ev: ev, resultC: resultC}

	timeout := time.Duration(e.conf.TriggerTimeoutMs) * time.Millisecond
	if !e.pool.Submit(w) {
		metrics.TriggersDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	metrics.TriggersEnqueued.Inc()

	select {
	case res := <-resultC:
		return res, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues a trigger for background resolution. Returns false if the queue is full.
func (e *Engine) ProcessAsync(ev *event.Event) bool {
	w := &triggerWork{ev: ev}
	if !e.pool.Submit(w) {
		metrics.TriggersDropped.Inc()
		return false
	}
	metrics.TriggersEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Resolve computes the next jobs for ev against the live graph, together
// with the join sources of every next job that is a join.
func (e *Engine) Resolve(ev *event.Event) *Result {
	start := time.Now()
	g := e.graph.Load()

	res := &Result{
		EventID:  ev.ID,
		Trigger:  ev.Trigger,
		NextJobs: []string{},
	}

	t, err := dag.ParseTrigger(ev.Descriptor())
	if err != nil {
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		metrics.TriggersProcessed.Inc()
		return res
	}
	res.Kind = t.Kind.String()
	res.NextJobs = t.Next(g)

	for _, job := range res.NextJobs {
		prNum, name, scoped := dag.SplitPRScoped(job)
		sources, _ := dag.JoinSources(g, name)
		if len(sources) == 0 {
			continue
		}
		if res.Joins == nil {
			res.Joins = make(map[string][]string)
		}
		names := make([]string, len(sources))
		for i, n := range sources {
			names[i] = n.Name
			if scoped {
				names[i] = dag.PRScoped(prNum, n.Name)
			}
		}
		res.Joins[job] = names
	}

	res.DurationMs = time.Since(start).Milliseconds()

	metrics.TriggersProcessed.Inc()
	metrics.JobsTriggered.WithLabelValues(res.Kind).Add(float64(len(res.NextJobs)))
	slog.Debug("trigger resolved", "event_id", ev.ID, "trigger", ev.Trigger, "next", len(res.NextJobs))
	return res
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
