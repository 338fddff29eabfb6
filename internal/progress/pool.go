package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handiism/dlm/internal/dlerror"
)

// ErrPoolClosed is wrapped in the ChannelError returned by Acquire once the
// pool has been drained.
var ErrPoolClosed = errors.New("progress pool closed")

// Aggregate counts completed tasks against a fixed total.
type Aggregate struct {
	total     int64
	completed atomic.Int64
	finished  atomic.Bool
	sink      Sink
}

func (a *Aggregate) Total() int64     { return a.total }
func (a *Aggregate) Completed() int64 { return a.completed.Load() }
func (a *Aggregate) Finished() bool   { return a.finished.Load() }

// Inc records one completed task and returns the new count. It is safe for
// concurrent use. Once the count has reached the total it stays there and
// Inc reports false.
func (a *Aggregate) Inc() (int64, bool) {
	for {
		cur := a.completed.Load()
		if cur >= a.total {
			return cur, false
		}
		if a.completed.CompareAndSwap(cur, cur+1) {
			a.sink.Send(AggregateMsg{Completed: cur + 1, Total: a.total})
			return cur + 1, true
		}
	}
}

func (a *Aggregate) finish() {
	a.finished.Store(true)
	a.sink.Send(AggregateMsg{Completed: a.completed.Load(), Total: a.total, Finished: true})
}

// Pool hands out a fixed set of lanes, one holder per lane at a time.
type Pool struct {
	lanes []*Lane
	free  chan *Lane
	agg   *Aggregate
	sink  Sink

	mu      sync.Mutex
	drained bool
}

// NewPool creates size lanes, all pending and available, and an aggregate
// counter for total tasks.
func NewPool(size, total int, sink Sink) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be positive: %d", size)
	}
	if total < 0 {
		return nil, fmt.Errorf("task total must not be negative: %d", total)
	}
	if sink == nil {
		sink = Discard
	}

	p := &Pool{
		lanes: make([]*Lane, size),
		free:  make(chan *Lane, size),
		agg:   &Aggregate{total: int64(total), sink: sink},
		sink:  sink,
	}
	sink.Send(AggregateMsg{Total: int64(total)})
	for i := range p.lanes {
		l := newLane(i, sink)
		p.lanes[i] = l
		p.free <- l
	}
	return p, nil
}

// Size returns the number of lanes.
func (p *Pool) Size() int { return len(p.lanes) }

// Available returns how many lanes are currently free.
func (p *Pool) Available() int { return len(p.free) }

// Aggregate returns the run's completion counter.
func (p *Pool) Aggregate() *Aggregate { return p.agg }

// Acquire blocks until a lane is free and returns it for exclusive use.
// Every successful Acquire must be paired with exactly one Release.
func (p *Pool) Acquire(ctx context.Context) (*Lane, error) {
	// a done context wins even when a lane is free
	if err := ctx.Err(); err != nil {
		return nil, dlerror.Classify(err)
	}
	select {
	case l, ok := <-p.free:
		if !ok {
			return nil, dlerror.Channel(ErrPoolClosed)
		}
		l.held.Store(true)
		return l, nil
	case <-ctx.Done():
		return nil, dlerror.Classify(ctx.Err())
	}
}

// Release resets the lane to pending and makes it available again. Releasing
// a lane that is not checked out does nothing.
func (p *Pool) Release(l *Lane) {
	if l == nil || !l.held.CompareAndSwap(true, false) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drained {
		return
	}
	l.reset()
	// never blocks: the channel has room for every lane
	p.free <- l
}

// Drain waits for every lane to come back, finishes all of them and the
// aggregate, and closes the pool. It must be called once, after all tasks
// are done. If ctx expires first the returned error is a DeadlineElapsed.
func (p *Pool) Drain(ctx context.Context) error {
	for i := range p.lanes {
		l, err := p.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("drain: %d of %d lanes returned: %w", i, len(p.lanes), err)
		}
		l.finish()
	}
	p.agg.finish()

	p.mu.Lock()
	p.drained = true
	close(p.free)
	p.mu.Unlock()

	p.sink.Send(DoneMsg{})
	return nil
}

// Log sends a timestamped line to the display.
func (p *Pool) Log(level Level, msg string) {
	p.sink.Send(LogMsg{Time: time.Now(), Level: level, Message: msg})
}

// Logf is Log with formatting.
func (p *Pool) Logf(level Level, format string, args ...any) {
	p.Log(level, fmt.Sprintf(format, args...))
}
