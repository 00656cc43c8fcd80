package lset

import "sync/atomic"

// Stats is the list-level half of the instrumentation hook, counting
// eight events across find, insert, and delete. A nil *Stats disables
// instrumentation; every counting method checks it once so the lock-free
// fast path never pays for a counter it isn't using.
type Stats struct {
	restarts        atomic.Uint64 // find restarted after an inconsistent window
	aborts          atomic.Uint64 // an operation gave up a CAS attempt and retried from find
	traversalSteps  atomic.Uint64 // next-pointer hops taken across all finds
	casAttempts     atomic.Uint64 // CompareAndSwap calls issued against next
	deleteRetries   atomic.Uint64 // logical-delete CAS lost the race and retried
	insertRetries   atomic.Uint64 // logical-insert CAS lost the race and retried
	nodesConstructed atomic.Uint64
	nodesDestroyed   atomic.Uint64
}

func (s *Stats) restart()  { if s != nil { s.restarts.Add(1) } }
func (s *Stats) abort()    { if s != nil { s.aborts.Add(1) } }
func (s *Stats) step()     { if s != nil { s.traversalSteps.Add(1) } }
func (s *Stats) cas()      { if s != nil { s.casAttempts.Add(1) } }
func (s *Stats) deleteRetry() { if s != nil { s.deleteRetries.Add(1) } }
func (s *Stats) insertRetry() { if s != nil { s.insertRetries.Add(1) } }
func (s *Stats) constructed() { if s != nil { s.nodesConstructed.Add(1) } }
func (s *Stats) destroyed()   { if s != nil { s.nodesDestroyed.Add(1) } }

// Snapshot is a point-in-time, non-atomic-as-a-whole read of Stats.
type Snapshot struct {
	Restarts         uint64
	Aborts           uint64
	TraversalSteps   uint64
	CASAttempts      uint64
	DeleteRetries    uint64
	InsertRetries    uint64
	NodesConstructed uint64
	NodesDestroyed   uint64
}

func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		Restarts:         s.restarts.Load(),
		Aborts:           s.aborts.Load(),
		TraversalSteps:   s.traversalSteps.Load(),
		CASAttempts:      s.casAttempts.Load(),
		DeleteRetries:    s.deleteRetries.Load(),
		InsertRetries:    s.insertRetries.Load(),
		NodesConstructed: s.nodesConstructed.Load(),
		NodesDestroyed:   s.nodesDestroyed.Load(),
	}
}
