package hp

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"
)

type probe struct {
	v int
}

func TestDomainReclaimsUnprotected(t *testing.T) {
	var reclaimed atomic.Int32
	d := New(func(unsafe.Pointer) { reclaimed.Add(1) }, WithMaxThreads(4), WithThreshold(1))

	p := d.Pin()
	obj := unsafe.Pointer(&probe{v: 1})
	d.Retire(p, obj)

	if got := reclaimed.Load(); got != 1 {
		t.Fatalf("reclaimed = %d, want 1", got)
	}
}

func TestDomainSkipsProtected(t *testing.T) {
	var reclaimed atomic.Int32
	d := New(func(unsafe.Pointer) { reclaimed.Add(1) }, WithMaxThreads(4), WithThreshold(1))

	owner := d.Pin()
	reader := d.Pin()

	obj := unsafe.Pointer(&probe{v: 2})
	d.Protect(reader, HPCurr, obj)

	d.Retire(owner, obj)
	if got := reclaimed.Load(); got != 0 {
		t.Fatalf("reclaimed = %d while still protected, want 0", got)
	}

	d.Clear(reader)
	d.Scan(owner)
	if got := reclaimed.Load(); got != 1 {
		t.Fatalf("reclaimed = %d after release, want 1", got)
	}
}

func TestDomainThresholdDefersScan(t *testing.T) {
	var reclaimed atomic.Int32
	d := New(func(unsafe.Pointer) { reclaimed.Add(1) }, WithMaxThreads(2), WithThreshold(10))

	p := d.Pin()
	for i := 0; i < 5; i++ {
		d.Retire(p, unsafe.Pointer(&probe{v: i}))
	}
	if got := reclaimed.Load(); got != 0 {
		t.Fatalf("reclaimed = %d before threshold, want 0", got)
	}
	d.Scan(p)
	if got := reclaimed.Load(); got != 5 {
		t.Fatalf("reclaimed = %d after forced scan, want 5", got)
	}
}

func TestDomainThreadCeilingPanics(t *testing.T) {
	d := New(func(unsafe.Pointer) {}, WithMaxThreads(1))
	d.Pin()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic on exceeding thread ceiling")
		}
		if _, ok := r.(*MisuseError); !ok {
			t.Fatalf("expected *MisuseError, got %T", r)
		}
	}()
	d.Pin()
}

func TestDomainConcurrentPinProtectRetire(t *testing.T) {
	var reclaimed atomic.Int32
	d := New(func(unsafe.Pointer) { reclaimed.Add(1) }, WithMaxThreads(32), WithThreshold(4))

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := d.Pin()
			for i := 0; i < 50; i++ {
				obj := unsafe.Pointer(&probe{v: i})
				d.Protect(p, HPCurr, obj)
				d.Retire(p, obj)
				d.Clear(p)
			}
		}()
	}
	wg.Wait()

	if reclaimed.Load() == 0 {
		t.Fatalf("expected some reclamation across concurrent pins")
	}
}
