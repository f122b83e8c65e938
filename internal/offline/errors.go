package offline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork indicates the upstream could not be reached, including
	// cancellation and transport timeouts.
	ErrNetwork = errors.New("network failure")

	// ErrCacheWrite indicates a response could not be stored. It is logged and
	// counted but never surfaces to the fetch caller.
	ErrCacheWrite = errors.New("cache write failed")

	// ErrCacheMiss is returned by Storage.Match when no entry exists.
	ErrCacheMiss = errors.New("cache miss")

	// ErrRegionNotFound is returned when writing to a region that was never
	// opened or has been deleted.
	ErrRegionNotFound = errors.New("cache region not found")

	// ErrInvalidTransition indicates a lifecycle step was attempted from the
	// wrong state.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrNoWaitingGeneration is returned by SkipWaiting when nothing is
	// installed and waiting.
	ErrNoWaitingGeneration = errors.New("no generation waiting to activate")
)

// InstallError lists the manifest URLs that could not be pre-cached.
type InstallError struct {
	Version string
	Failed  map[string]error
}

func (e *InstallError) Error() string {
	urls := make([]string, 0, len(e.Failed))
	for u := range e.Failed {
		urls = append(urls, u)
	}
	return fmt.Sprintf("installing %s: %d manifest entries failed: %s", e.Version, len(e.Failed), strings.Join(sortedStrings(urls), ", "))
}
