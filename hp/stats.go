package hp

import "sync/atomic"

// Stats holds the hazard-pointer-domain half of the instrumentation hook:
// scan cadence and reclamation counts. A nil *Stats is the "instrumentation
// disabled" state — each counter method checks for nil itself, and only
// Scan calls them, so the wait-free fast path
// (Protect/Clear/Retire-without-scan) never touches it at all.
type Stats struct {
	scans     atomic.Uint64
	reclaimed atomic.Uint64
}

func (s *Stats) scanned() {
	if s != nil {
		s.scans.Add(1)
	}
}

func (s *Stats) reclaim(n uint64) {
	if s != nil && n != 0 {
		s.reclaimed.Add(n)
	}
}

// Snapshot is a point-in-time, non-atomic-as-a-whole read of Stats.
type Snapshot struct {
	Scans     uint64
	Reclaimed uint64
}

func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{Scans: s.scans.Load(), Reclaimed: s.reclaimed.Load()}
}
