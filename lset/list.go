package lset

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/g-m-twostay/lockset/Sets"
	"github.com/g-m-twostay/lockset/hp"
)

// List is an ordered set of uintptr keys backed by a lock-free singly
// linked list with hazard-pointer reclamation. Find uses a conservative
// three-hazard-slot discipline — next, curr, prev — restarting from head
// on any inconsistency. Retired nodes are indexed by a GoLLRB tree rather
// than scanned linearly.
//
// Every public method acquires a *hp.IndexedPinned from an internal pool
// for the duration of the call and returns it afterward, rather than
// caching one per goroutine for the goroutine's lifetime. Go programs
// routinely run far more goroutines than any reasonable thread ceiling,
// so a permanent per-goroutine slot would exhaust it almost immediately;
// pooling bounds the ceiling by concurrent in-flight operations instead.
type List struct {
	head, tail *node
	dom        *hp.IndexedDomain
	opts       options
	nodePool   sync.Pool
	pinPool    sync.Pool
	size       atomic.Int64
}

var _ Sets.Set[uintptr] = (*List)(nil)

// NewList constructs an empty conservative-find ordered set.
func NewList(opts ...Option) *List {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	l := &List{opts: o}
	l.nodePool.New = func() any { return new(node) }
	domOpts := append(o.hpOptions(), hp.WithMaxHPs(3))
	l.dom = hp.NewIndexed(l.reclaim, domOpts...)
	l.pinPool.New = func() any { return l.dom.Pin() }
	l.head = newNode(0)
	l.tail = newNode(^uintptr(0))
	l.head.next.Store(l.tail)
	return l
}

func (l *List) acquire() *hp.IndexedPinned {
	defer wrapMisuse()
	return l.pinPool.Get().(*hp.IndexedPinned)
}

func (l *List) release(p *hp.IndexedPinned) {
	l.dom.Clear(p)
	l.pinPool.Put(p)
}

func (l *List) allocNode(key uintptr) *node {
	n := l.nodePool.Get().(*node)
	n.magic = nodeMagic
	n.key = key
	n.marker = false
	n.next.Store(nil)
	l.opts.stats.constructed()
	return n
}

// reclaim is the hp.Deleter bound to this list's domain: it runs once no
// thread's hazard slots name the retired node any longer.
func (l *List) reclaim(ptr unsafe.Pointer) {
	n := nodeFromUnsafe(ptr)
	l.opts.stats.destroyed()
	if l.opts.recycle {
		n.next.Store(nil)
		l.nodePool.Put(n)
	}
}

// discard returns a node that was allocated but never linked in (a losing
// Put CAS) directly to the pool, bypassing hazard-pointer retirement since
// no reader could ever have observed it.
func (l *List) discard(n *node) {
	l.opts.stats.destroyed()
	if l.opts.recycle {
		n.next.Store(nil)
		l.nodePool.Put(n)
	}
}

// find locates the predecessor/current pair that key would sit between,
// physically unlinking any logically-deleted nodes it steps over along the
// way: three hazard slots (prev/curr/next), restart from head on any
// window inconsistency.
func (l *List) find(p *hp.IndexedPinned, key uintptr) (pred, curr *node, found bool) {
retry:
	pred = l.head
	curr = pred.next.Load()
	l.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
	if pred.next.Load() != curr {
		l.opts.stats.restart()
		goto retry
	}

	for curr != l.tail {
		succ, deleted := curr.loadNext()
		l.dom.Protect(p, hp.HPNext, succ.unsafePointer())
		if pred.next.Load() != curr {
			l.opts.stats.restart()
			goto retry
		}

		if deleted {
			l.opts.stats.cas()
			if pred.next.CompareAndSwap(curr, succ) {
				l.dom.Retire(p, curr.unsafePointer())
			} else {
				l.opts.stats.restart()
				goto retry
			}
			curr = succ
			l.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
			continue
		}

		if curr.key >= key {
			break
		}

		pred = curr
		l.dom.Protect(p, hp.HPPrev, pred.unsafePointer())
		curr = succ
		l.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
		l.opts.stats.step()
	}

	found = curr != l.tail && curr.key == key
	return
}

// Put inserts key, returning false if it was already present.
func (l *List) Put(key uintptr) bool {
	p := l.acquire()
	defer l.release(p)

	for {
		pred, curr, found := l.find(p, key)
		if found {
			return false
		}
		n := l.allocNode(key)
		n.next.Store(curr)
		l.opts.stats.cas()
		if pred.next.CompareAndSwap(curr, n) {
			l.size.Add(1)
			return true
		}
		l.opts.stats.insertRetry()
		l.opts.stats.abort()
		l.discard(n)
	}
}

// Has reports whether key is present.
func (l *List) Has(key uintptr) bool {
	p := l.acquire()
	defer l.release(p)
	_, _, found := l.find(p, key)
	return found
}

// Remove deletes key, returning false if it was not present.
func (l *List) Remove(key uintptr) bool {
	p := l.acquire()
	defer l.release(p)

	for {
		pred, curr, found := l.find(p, key)
		if !found {
			return false
		}

		succ, deleted := curr.loadNext()
		if deleted {
			// Already gone; a fresh find resolves whatever replaced it.
			continue
		}

		l.opts.stats.cas()
		if !curr.tryDelete(succ) {
			// Lost the race on curr's next pointer: either another
			// goroutine deleted curr first, in which case the loser
			// reports success without double-counting size, or a
			// concurrent insert linked a new node after curr, in which
			// case we must retry so that node is never orphaned.
			l.opts.stats.deleteRetry()
			if _, deleted := curr.loadNext(); deleted {
				return true
			}
			l.opts.stats.abort()
			continue
		}

		l.opts.stats.cas()
		if pred.next.CompareAndSwap(curr, succ) {
			l.dom.Retire(p, curr.unsafePointer())
		}
		l.size.Add(-1)
		return true
	}
}

// Size returns the set's current cardinality.
func (l *List) Size() uint {
	n := l.size.Load()
	if n < 0 {
		return 0
	}
	return uint(n)
}

// Take removes and returns an arbitrary element, or 0 if the set is empty.
func (l *List) Take() uintptr {
	p := l.acquire()
	defer l.release(p)

	for {
		curr := l.head.next.Load()
		l.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
		if l.head.next.Load() != curr {
			continue
		}
		if curr == l.tail {
			return 0
		}

		succ, deleted := curr.loadNext()
		if deleted {
			if l.head.next.CompareAndSwap(curr, succ) {
				l.dom.Retire(p, curr.unsafePointer())
			}
			continue
		}

		key := curr.key
		if curr.tryDelete(succ) {
			if l.head.next.CompareAndSwap(curr, succ) {
				l.dom.Retire(p, curr.unsafePointer())
			}
			l.size.Add(-1)
			return key
		}
	}
}

// Range calls fn for each element in ascending key order, stopping early
// if fn returns false. It is a best-effort snapshot: concurrent inserts or
// removes may or may not be observed, but no live element is ever skipped
// or duplicated within a single unbroken traversal.
func (l *List) Range(fn func(uintptr) bool) {
	p := l.acquire()
	defer l.release(p)

	curr := l.head.next.Load()
	l.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
	for curr != l.tail {
		succ, deleted := curr.loadNext()
		l.dom.Protect(p, hp.HPNext, succ.unsafePointer())
		if !deleted {
			if !fn(curr.key) {
				return
			}
		}
		curr = succ
		l.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
	}
}

// Stats returns the list-level instrumentation counters configured via
// WithStats, or a zero Snapshot if none were configured.
func (l *List) Stats() Snapshot {
	return l.opts.stats.Snapshot()
}

// Close drains every pinned participant's retire index through the
// deleter. The caller must ensure no mutator is still active.
func (l *List) Close() {
	l.dom.Close()
}
