// Package progress provides the pool of progress lanes shared by download
// workers, and the aggregate counter for the whole run.
//
// A Pool holds a fixed number of Lanes. A worker takes one with Acquire,
// owns it exclusively while it downloads, and gives it back with Release.
// Since there are only as many lanes as allowed transfers, the pool is also
// what bounds concurrency.
//
// # Usage
//
//	pool, err := progress.NewPool(4, len(tasks), program)
//	if err != nil {
//	    return err
//	}
//
//	lane, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(lane)
//
//	lane.SetLabel(name)
//	lane.SetTotal(size)
//	lane.SetPosition(written)
//
//	// once every task has finished
//	pool.Aggregate().Inc()
//	err = pool.Drain(ctx)
//
// # Display
//
// Lanes never draw anything themselves. Every state change is sent as a
// message (LaneMsg, AggregateMsg, LogMsg, DoneMsg) to a Sink, which is
// normally a *tea.Program so that all updates land in one render loop.
package progress
