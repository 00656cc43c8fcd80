package lset

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/g-m-twostay/lockset/Sets"
	"github.com/g-m-twostay/lockset/hp"
)

// WindowList is an ordered set of uintptr keys using an ordered find with
// window search: four hazard slots per operation — next, curr, prev, and
// start — backed by the array-form hp.Domain.
//
// The distinguishing behavior from List's conservative find is where a
// find restarts after an inconsistent window read: List always restarts
// at head; WindowList restarts at the most recently validated predecessor,
// published in the HPStart slot and slid forward every time the search
// makes progress. A CAS loss deep in a long list costs a short replay from
// the last checkpoint instead of a full rescan; if that checkpoint has
// itself been logically deleted in the meantime, the replay starts at head.
type WindowList struct {
	head, tail *node
	dom        *hp.Domain
	opts       options
	nodePool   sync.Pool
	pinPool    sync.Pool
	size       atomic.Int64
}

var _ Sets.Set[uintptr] = (*WindowList)(nil)

// NewWindowList constructs an empty ordered-find-with-window-search set.
func NewWindowList(opts ...Option) *WindowList {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	w := &WindowList{opts: o}
	w.nodePool.New = func() any { return new(node) }
	domOpts := append(o.hpOptions(), hp.WithMaxHPs(4))
	w.dom = hp.New(w.reclaim, domOpts...)
	w.pinPool.New = func() any { return w.dom.Pin() }
	w.head = newNode(0)
	w.tail = newNode(^uintptr(0))
	w.head.next.Store(w.tail)
	return w
}

func (w *WindowList) acquire() *hp.Pinned {
	defer wrapMisuse()
	return w.pinPool.Get().(*hp.Pinned)
}

func (w *WindowList) release(p *hp.Pinned) {
	w.dom.Clear(p)
	w.pinPool.Put(p)
}

func (w *WindowList) allocNode(key uintptr) *node {
	n := w.nodePool.Get().(*node)
	n.magic = nodeMagic
	n.key = key
	n.marker = false
	n.next.Store(nil)
	w.opts.stats.constructed()
	return n
}

func (w *WindowList) reclaim(ptr unsafe.Pointer) {
	n := nodeFromUnsafe(ptr)
	w.opts.stats.destroyed()
	if w.opts.recycle {
		n.next.Store(nil)
		w.nodePool.Put(n)
	}
}

func (w *WindowList) discard(n *node) {
	w.opts.stats.destroyed()
	if w.opts.recycle {
		n.next.Store(nil)
		w.nodePool.Put(n)
	}
}

// find locates the predecessor/current pair that key would sit between:
// four hazard slots (start/prev/curr/next), restart at the window's start
// rather than the list head.
func (w *WindowList) find(p *hp.Pinned, key uintptr) (pred, curr *node, found bool) {
	start := w.head
	w.dom.Protect(p, hp.HPStart, start.unsafePointer())

retry:
	pred = start
	w.dom.Protect(p, hp.HPPrev, pred.unsafePointer())
	curr = pred.next.Load()
	if curr.marker {
		// start was logically deleted after it was validated; its next
		// now holds a marker, so replay from head instead.
		start = w.head
		w.dom.Protect(p, hp.HPStart, start.unsafePointer())
		w.opts.stats.restart()
		goto retry
	}
	w.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
	if pred.next.Load() != curr {
		w.opts.stats.restart()
		goto retry
	}

	for curr != w.tail {
		succ, deleted := curr.loadNext()
		w.dom.Protect(p, hp.HPNext, succ.unsafePointer())
		if pred.next.Load() != curr {
			w.opts.stats.restart()
			goto retry
		}

		if deleted {
			w.opts.stats.cas()
			if pred.next.CompareAndSwap(curr, succ) {
				w.dom.Retire(p, curr.unsafePointer())
			} else {
				w.opts.stats.restart()
				goto retry
			}
			curr = succ
			w.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
			continue
		}

		if curr.key >= key {
			break
		}

		pred = curr
		start = pred
		w.dom.Protect(p, hp.HPStart, start.unsafePointer())
		w.dom.Protect(p, hp.HPPrev, pred.unsafePointer())
		curr = succ
		w.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
		w.opts.stats.step()
	}

	found = curr != w.tail && curr.key == key
	return
}

// Put inserts key, returning false if it was already present.
func (w *WindowList) Put(key uintptr) bool {
	p := w.acquire()
	defer w.release(p)

	for {
		pred, curr, found := w.find(p, key)
		if found {
			return false
		}
		n := w.allocNode(key)
		n.next.Store(curr)
		w.opts.stats.cas()
		if pred.next.CompareAndSwap(curr, n) {
			w.size.Add(1)
			return true
		}
		w.opts.stats.insertRetry()
		w.opts.stats.abort()
		w.discard(n)
	}
}

// Has reports whether key is present.
func (w *WindowList) Has(key uintptr) bool {
	p := w.acquire()
	defer w.release(p)
	_, _, found := w.find(p, key)
	return found
}

// Remove deletes key, returning false if it was not present.
func (w *WindowList) Remove(key uintptr) bool {
	p := w.acquire()
	defer w.release(p)

	for {
		pred, curr, found := w.find(p, key)
		if !found {
			return false
		}

		succ, deleted := curr.loadNext()
		if deleted {
			// Already gone; a fresh find resolves whatever replaced it.
			continue
		}

		w.opts.stats.cas()
		if !curr.tryDelete(succ) {
			// Lost the race on curr's next pointer: either another
			// goroutine deleted curr first, in which case the loser
			// reports success without double-counting size, or a
			// concurrent insert linked a new node after curr, in which
			// case we must retry so that node is never orphaned.
			w.opts.stats.deleteRetry()
			if _, deleted := curr.loadNext(); deleted {
				return true
			}
			w.opts.stats.abort()
			continue
		}

		w.opts.stats.cas()
		if pred.next.CompareAndSwap(curr, succ) {
			w.dom.Retire(p, curr.unsafePointer())
		}
		w.size.Add(-1)
		return true
	}
}

// Size returns the set's current cardinality.
func (w *WindowList) Size() uint {
	n := w.size.Load()
	if n < 0 {
		return 0
	}
	return uint(n)
}

// Take removes and returns an arbitrary element, or 0 if the set is empty.
func (w *WindowList) Take() uintptr {
	p := w.acquire()
	defer w.release(p)

	for {
		curr := w.head.next.Load()
		w.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
		if w.head.next.Load() != curr {
			continue
		}
		if curr == w.tail {
			return 0
		}

		succ, deleted := curr.loadNext()
		if deleted {
			if w.head.next.CompareAndSwap(curr, succ) {
				w.dom.Retire(p, curr.unsafePointer())
			}
			continue
		}

		key := curr.key
		if curr.tryDelete(succ) {
			if w.head.next.CompareAndSwap(curr, succ) {
				w.dom.Retire(p, curr.unsafePointer())
			}
			w.size.Add(-1)
			return key
		}
	}
}

// Range calls fn for each element in ascending key order, stopping early
// if fn returns false. Best-effort snapshot semantics, same as List.Range.
func (w *WindowList) Range(fn func(uintptr) bool) {
	p := w.acquire()
	defer w.release(p)

	curr := w.head.next.Load()
	w.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
	for curr != w.tail {
		succ, deleted := curr.loadNext()
		w.dom.Protect(p, hp.HPNext, succ.unsafePointer())
		if !deleted {
			if !fn(curr.key) {
				return
			}
		}
		curr = succ
		w.dom.Protect(p, hp.HPCurr, curr.unsafePointer())
	}
}

// Stats returns the list-level instrumentation counters configured via
// WithStats, or a zero Snapshot if none were configured.
func (w *WindowList) Stats() Snapshot {
	return w.opts.stats.Snapshot()
}

// Close drains every pinned participant's retire list through the deleter.
// The caller must ensure no mutator is still active.
func (w *WindowList) Close() {
	w.dom.Close()
}
