package hp

import (
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// Deleter reclaims a retired pointer once no thread protects it. It must
// not reference the list or domain that retired the pointer. Typically a
// recycle step (return the node to a sync.Pool) rather than a raw free.
type Deleter func(ptr unsafe.Pointer)

// Pinned is a goroutine's reservation of hazard-pointer slots and its
// private array-form retire list within a Domain.
type Pinned struct {
	id     int
	hp     []unsafe.Pointer
	retire []unsafe.Pointer
}

// ID returns the dense id in [0, T_MAX) assigned to this handle.
func (p *Pinned) ID() int { return p.id }

// Domain is the array-form hazard-pointer domain. Scan is O(R·T·K): the
// outer loop is over this thread's retirees, the inner double loop probes
// every (thread, slot) pair.
type Domain struct {
	tid          tidAllocator
	opts         options
	deleter      Deleter
	participants []atomic.Pointer[Pinned]
	stats        *Stats
}

// New constructs an array-form hazard-pointer domain. deleter reclaims a
// retired pointer once no thread protects it.
func New(deleter Deleter, opts ...Option) *Domain {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.threshold < 0 {
		o.threshold = o.maxThreads * o.maxHPs
	}
	return &Domain{
		tid:          tidAllocator{maxThreads: o.maxThreads},
		opts:         o,
		deleter:      deleter,
		participants: make([]atomic.Pointer[Pinned], o.maxThreads),
	}
}

// WithStats attaches counters for scan cadence and reclamation totals.
func (d *Domain) WithStats(s *Stats) *Domain {
	d.stats = s
	return d
}

// Pin reserves this goroutine's slice of hazard slots and retire list. Call
// once per goroutine and reuse the returned handle for every subsequent
// Protect/ProtectRelease/Clear/Retire/Scan call the goroutine makes.
func (d *Domain) Pin() *Pinned {
	id := d.tid.reserve()
	p := &Pinned{id: id, hp: newSlots(d.opts.maxHPs)}
	d.participants[id].Store(p)
	return p
}

// Protect publishes ptr into p's slot and returns ptr unchanged. Wait-free,
// population-oblivious. The caller must re-read the source the pointer came
// from and retry if it no longer names ptr.
func (d *Domain) Protect(p *Pinned, slot int, ptr unsafe.Pointer) unsafe.Pointer {
	return protectSlot(p.hp, slot, ptr)
}

// ProtectRelease is Protect with an explicit release-ordering label (see
// hp/slots.go for why the two are operationally identical in Go).
func (d *Domain) ProtectRelease(p *Pinned, slot int, ptr unsafe.Pointer) unsafe.Pointer {
	return protectSlotRelease(p.hp, slot, ptr)
}

// Clear writes nil into every one of p's slots. Wait-free, bounded by K.
func (d *Domain) Clear(p *Pinned) {
	clearSlots(p.hp)
}

// Retire appends ptr to p's retire list, scanning once the list crosses the
// configured threshold R.
func (d *Domain) Retire(p *Pinned, ptr unsafe.Pointer) {
	p.retire = append(p.retire, ptr)
	if len(p.retire) < d.opts.threshold {
		return
	}
	d.Scan(p)
}

// Scan tests every pointer on p's retire list against every other thread's
// hazard slots, invoking the deleter — and dropping the entry — on any
// retiree no thread currently protects.
func (d *Domain) Scan(p *Pinned) {
	kept := p.retire[:0]
	var reclaimed uint64
	for _, obj := range p.retire {
		if d.protected(p, obj) {
			kept = append(kept, obj)
		} else {
			d.deleter(obj)
			reclaimed++
		}
	}
	p.retire = kept
	d.stats.scanned()
	d.stats.reclaim(reclaimed)
	d.opts.logger.Debug("hp: scan", zap.Int("tid", p.id), zap.Uint64("reclaimed", reclaimed), zap.Int("kept", len(kept)))
}

func (d *Domain) protected(p *Pinned, obj unsafe.Pointer) bool {
	for i := range d.participants {
		if i == p.id {
			continue
		}
		other := d.participants[i].Load()
		if other == nil {
			continue
		}
		for s := range other.hp {
			if atomic.LoadPointer(&other.hp[s]) == obj {
				return true
			}
		}
	}
	return false
}

// Close reclaims every still-retired pointer across every pinned thread by
// invoking the deleter directly, bypassing protection checks. The caller
// must ensure no mutator is active.
func (d *Domain) Close() {
	for i := range d.participants {
		p := d.participants[i].Load()
		if p == nil {
			continue
		}
		for _, obj := range p.retire {
			d.deleter(obj)
		}
		p.retire = nil
	}
}
