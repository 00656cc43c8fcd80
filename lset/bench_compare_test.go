package lset

import (
	"testing"

	"github.com/alphadose/haxmap"
	"github.com/cornelk/hashmap"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/google/btree"
	"github.com/petar/GoLLRB/llrb"
)

// Baselines for the ordered-set operations List and WindowList provide,
// mirrored from Maps/comparisons/cmp1_test.go's setup-then-b.RunParallel
// shape. GoLLRB, google/btree, and gods/redblacktree are ordered
// structures and stand in directly for List/WindowList; haxmap and
// cornelk/hashmap are unordered but are kept as throughput baselines for
// Has, exactly the role the teacher's own benchmarks already use them for.
const benchItemCount = 1024

type llrbItem uintptr

func (a llrbItem) Less(than llrb.Item) bool { return a < than.(llrbItem) }

func setupList(b *testing.B) *List {
	b.Helper()
	l := NewList()
	for i := uintptr(0); i < benchItemCount; i++ {
		l.Put(i)
	}
	return l
}

func setupWindowList(b *testing.B) *WindowList {
	b.Helper()
	w := NewWindowList()
	for i := uintptr(0); i < benchItemCount; i++ {
		w.Put(i)
	}
	return w
}

func setupLLRB(b *testing.B) *llrb.LLRB {
	b.Helper()
	t := llrb.New()
	for i := uintptr(0); i < benchItemCount; i++ {
		t.InsertNoReplace(llrbItem(i))
	}
	return t
}

func setupBTree(b *testing.B) *btree.BTreeG[uintptr] {
	b.Helper()
	t := btree.NewG[uintptr](32, func(a, b uintptr) bool { return a < b })
	for i := uintptr(0); i < benchItemCount; i++ {
		t.ReplaceOrInsert(i)
	}
	return t
}

func setupRBTree(b *testing.B) *redblacktree.Tree {
	b.Helper()
	t := redblacktree.NewWith(utils.UIntComparator)
	for i := uint(0); i < benchItemCount; i++ {
		t.Put(i, i)
	}
	return t
}

func setupHaxMap(b *testing.B) *haxmap.Map[uintptr, uintptr] {
	b.Helper()
	m := haxmap.New[uintptr, uintptr]()
	for i := uintptr(0); i < benchItemCount; i++ {
		m.Set(i, i)
	}
	return m
}

func setupHashMap(b *testing.B) *hashmap.Map[uintptr, uintptr] {
	b.Helper()
	m := hashmap.New[uintptr, uintptr]()
	for i := uintptr(0); i < benchItemCount; i++ {
		m.Set(i, i)
	}
	return m
}

func Benchmark1ReadList(b *testing.B) {
	l := setupList(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := uintptr(0); i < benchItemCount; i++ {
				if !l.Has(i) {
					b.Fail()
				}
			}
		}
	})
}

func Benchmark1ReadWindowList(b *testing.B) {
	w := setupWindowList(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := uintptr(0); i < benchItemCount; i++ {
				if !w.Has(i) {
					b.Fail()
				}
			}
		}
	})
}

func Benchmark1ReadLLRB(b *testing.B) {
	t := setupLLRB(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := uintptr(0); i < benchItemCount; i++ {
				if !t.Has(llrbItem(i)) {
					b.Fail()
				}
			}
		}
	})
}

func Benchmark1ReadBTree(b *testing.B) {
	t := setupBTree(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := uintptr(0); i < benchItemCount; i++ {
				if _, ok := t.Get(i); !ok {
					b.Fail()
				}
			}
		}
	})
}

func Benchmark1ReadRBTree(b *testing.B) {
	t := setupRBTree(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := uint(0); i < benchItemCount; i++ {
				if _, ok := t.Get(i); !ok {
					b.Fail()
				}
			}
		}
	})
}

func Benchmark1ReadHaxMap(b *testing.B) {
	m := setupHaxMap(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := uintptr(0); i < benchItemCount; i++ {
				if j, ok := m.Get(i); !ok || j != i {
					b.Fail()
				}
			}
		}
	})
}

func Benchmark1ReadHashMap(b *testing.B) {
	m := setupHashMap(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := uintptr(0); i < benchItemCount; i++ {
				if j, ok := m.Get(i); !ok || j != i {
					b.Fail()
				}
			}
		}
	})
}
