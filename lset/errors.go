package lset

import "github.com/g-m-twostay/lockset/hp"

// MisuseError reports a programmer-misuse condition at the list level:
// currently just the thread-ceiling violation hp.Domain/hp.IndexedDomain
// raise when a List or WindowList pins more hazard-slot handles than
// WithMaxThreads allows. Mirrors hp.MisuseError's always-panic
// contract: these are contract violations by the caller, not operation
// outcomes a caller could reasonably recover from.
type MisuseError struct {
	msg string
}

func (e *MisuseError) Error() string {
	return e.msg
}

func misuse(msg string) {
	panic(&MisuseError{msg: msg})
}

// wrapMisuse recovers an *hp.MisuseError panic from acquiring a hazard-slot
// handle and re-panics as *lset.MisuseError, so callers of List/WindowList
// only ever need to recognize one misuse type regardless of which
// hazard-pointer domain backs them.
func wrapMisuse() {
	if r := recover(); r != nil {
		if he, ok := r.(*hp.MisuseError); ok {
			misuse(he.Error())
		}
		panic(r)
	}
}
