package testkit

import (
	"sync"
	"testing"
)

// serialSeams is held by tests that replace process-wide variables
var serialSeams sync.Mutex

// Swap sets *target to v until t ends
func Swap[T any](t *testing.T, target *T, v T) {
	t.Helper()
	prev := *target
	*target = v
	t.Cleanup(func() { *target = prev })
}

// Serial keeps t exclusive against every other Serial test until it ends
func Serial(t *testing.T) {
	t.Helper()
	serialSeams.Lock()
	t.Cleanup(serialSeams.Unlock)
}

// Seam is Serial then Swap, for the usual case of stubbing a package-level func
func Seam[T any](t *testing.T, target *T, v T) {
	t.Helper()
	Serial(t)
	Swap(t, target, v)
}
