package hp

import "sync/atomic"

// tidAllocator assigns dense, never-reused ids to Pin callers: the first
// call reserves an id for life, with no deallocation path. Go's lack of
// portable thread-local storage is why the id lives in a handle returned
// by Pin instead of being looked up implicitly on every call.
type tidAllocator struct {
	next       atomic.Int32
	maxThreads int
}

func (t *tidAllocator) reserve() int {
	id := int(t.next.Add(1) - 1)
	if id >= t.maxThreads {
		misuse("hp: thread ceiling exceeded; raise WithMaxThreads")
	}
	return id
}
