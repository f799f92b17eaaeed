// File: kcall/inject.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fault-injection receptacles. The errno receptacle substitutes outcomes for
// named OS calls; the allocation receptacle forces failure at named
// construction sites. Both are consulted on the hot path through a single
// atomic counter, so an empty receptacle costs one load.

package kcall

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ErrnoHook decides the outcome of one attempt of a call. Returning
// (0, false) lets the real call proceed; returning (e, true) substitutes the
// failure e without touching the kernel.
type ErrnoHook func(Call) (unix.Errno, bool)

var (
	injectMu     sync.RWMutex
	injectActive atomic.Int32
	errnoHooks   map[Call]ErrnoHook
	allocSites   map[string]bool
)

// Inject installs an errno hook for the given call identifier.
func Inject(c Call, h ErrnoHook) {
	injectMu.Lock()
	if errnoHooks == nil {
		errnoHooks = make(map[Call]ErrnoHook)
	}
	if _, dup := errnoHooks[c]; !dup {
		injectActive.Add(1)
	}
	errnoHooks[c] = h
	injectMu.Unlock()
}

// Uninject removes the hook for one call identifier.
func Uninject(c Call) {
	injectMu.Lock()
	if _, ok := errnoHooks[c]; ok {
		delete(errnoHooks, c)
		injectActive.Add(-1)
	}
	injectMu.Unlock()
}

// FailAllocations forces every allocation at the named site to fail until
// the site is cleared.
func FailAllocations(site string) {
	injectMu.Lock()
	if allocSites == nil {
		allocSites = make(map[string]bool)
	}
	if !allocSites[site] {
		injectActive.Add(1)
	}
	allocSites[site] = true
	injectMu.Unlock()
}

// UnfailAllocations clears a forced allocation site.
func UnfailAllocations(site string) {
	injectMu.Lock()
	if allocSites[site] {
		delete(allocSites, site)
		injectActive.Add(-1)
	}
	injectMu.Unlock()
}

// Clear empties both receptacles.
func Clear() {
	injectMu.Lock()
	errnoHooks = nil
	allocSites = nil
	injectActive.Store(0)
	injectMu.Unlock()
}

// Override consults the errno receptacle for one attempt of c.
func Override(c Call) (unix.Errno, bool) {
	if injectActive.Load() == 0 {
		return 0, false
	}
	injectMu.RLock()
	h := errnoHooks[c]
	injectMu.RUnlock()
	if h == nil {
		return 0, false
	}
	return h(c)
}

// AllocError reports a forced allocation failure.
type AllocError struct {
	Site string
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("allocation failed at %q", e.Site)
}

// CheckAllocation returns a non-nil *AllocError when the named site is
// forced to fail.
func CheckAllocation(site string) error {
	if injectActive.Load() == 0 {
		return nil
	}
	injectMu.RLock()
	forced := allocSites[site]
	injectMu.RUnlock()
	if forced {
		return &AllocError{Site: site}
	}
	return nil
}
