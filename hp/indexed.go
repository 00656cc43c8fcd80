package hp

import (
	"sync/atomic"
	"unsafe"

	"github.com/petar/GoLLRB/llrb"
	"go.uber.org/zap"
)

// retireItem orders retirees by address while still carrying the original
// unsafe.Pointer. The addr field (not the pointer itself) is what GoLLRB's
// Less compares; the pointer field is what keeps the referenced node
// visible to the garbage collector for as long as the item sits in the
// tree.
type retireItem struct {
	addr uintptr
	ptr  unsafe.Pointer
}

func (a retireItem) Less(than llrb.Item) bool {
	return a.addr < than.(retireItem).addr
}

// IndexedPinned is a goroutine's reservation of hazard slots and private
// GoLLRB-backed retire index within an IndexedDomain.
type IndexedPinned struct {
	id   int
	hp   []unsafe.Pointer
	tree *llrb.LLRB
}

// ID returns the dense id in [0, T_MAX) assigned to this handle.
func (p *IndexedPinned) ID() int { return p.id }

// IndexedDomain is the rbtree-indexed hazard-pointer domain. Its Scan
// transposes the array-form loops: it walks every other thread's K slots
// once, probes the local tree per published value in O(log R), and
// rebuilds the retire tree from the hits rather than compacting the old
// one in place.
type IndexedDomain struct {
	tid          tidAllocator
	opts         options
	deleter      Deleter
	participants []atomic.Pointer[IndexedPinned]
	stats        *Stats
}

// NewIndexed constructs a GoLLRB-indexed hazard-pointer domain.
func NewIndexed(deleter Deleter, opts ...Option) *IndexedDomain {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.threshold < 0 {
		o.threshold = 0 // scan on every retire, matching vrb_listv1.c's HP_THRESHOLD_R
	}
	return &IndexedDomain{
		tid:          tidAllocator{maxThreads: o.maxThreads},
		opts:         o,
		deleter:      deleter,
		participants: make([]atomic.Pointer[IndexedPinned], o.maxThreads),
	}
}

// WithStats attaches counters for scan cadence and reclamation totals.
func (d *IndexedDomain) WithStats(s *Stats) *IndexedDomain {
	d.stats = s
	return d
}

// Pin reserves this goroutine's hazard slots and retire index.
func (d *IndexedDomain) Pin() *IndexedPinned {
	id := d.tid.reserve()
	p := &IndexedPinned{id: id, hp: newSlots(d.opts.maxHPs), tree: llrb.New()}
	d.participants[id].Store(p)
	return p
}

func (d *IndexedDomain) Protect(p *IndexedPinned, slot int, ptr unsafe.Pointer) unsafe.Pointer {
	return protectSlot(p.hp, slot, ptr)
}

func (d *IndexedDomain) ProtectRelease(p *IndexedPinned, slot int, ptr unsafe.Pointer) unsafe.Pointer {
	return protectSlotRelease(p.hp, slot, ptr)
}

func (d *IndexedDomain) Clear(p *IndexedPinned) {
	clearSlots(p.hp)
}

// Retire inserts ptr into p's retire index. Duplicates are assumed absent
// (the caller — List — never retires the same unlinked node twice).
func (d *IndexedDomain) Retire(p *IndexedPinned, ptr unsafe.Pointer) {
	p.tree.InsertNoReplace(retireItem{addr: uintptr(ptr), ptr: ptr})
	if d.opts.threshold > 0 && p.tree.Len() < d.opts.threshold {
		return
	}
	d.Scan(p)
}

// Scan walks every other thread's hazard slots, keeps only the retirees
// those slots still name, and reclaims everything else through the
// deleter.
func (d *IndexedDomain) Scan(p *IndexedPinned) {
	survivors := llrb.New()
	probe := func(hp []unsafe.Pointer) {
		for s := range hp {
			if v := atomic.LoadPointer(&hp[s]); v != nil {
				if hit := p.tree.Get(retireItem{addr: uintptr(v)}); hit != nil {
					survivors.InsertNoReplace(hit)
				}
			}
		}
	}
	for i := range d.participants {
		if i == p.id {
			continue
		}
		other := d.participants[i].Load()
		if other == nil {
			continue
		}
		probe(other.hp)
	}

	var reclaimed uint64
	p.tree.AscendGreaterOrEqual(retireItem{}, func(i llrb.Item) bool {
		it := i.(retireItem)
		if survivors.Get(i) == nil {
			d.deleter(it.ptr)
			reclaimed++
		}
		return true
	})
	p.tree = survivors
	d.stats.scanned()
	d.stats.reclaim(reclaimed)
	d.opts.logger.Debug("hp: indexed scan", zap.Int("tid", p.id), zap.Uint64("reclaimed", reclaimed), zap.Int("kept", survivors.Len()))
}

// Close walks every pinned thread's retire index exactly once, invoking the
// deleter on each entry, then lets the tree's own storage become garbage.
func (d *IndexedDomain) Close() {
	for i := range d.participants {
		p := d.participants[i].Load()
		if p == nil {
			continue
		}
		p.tree.AscendGreaterOrEqual(retireItem{}, func(it llrb.Item) bool {
			d.deleter(it.(retireItem).ptr)
			return true
		})
		p.tree = nil
	}
}
