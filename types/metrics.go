package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle.
*/
type Metrics interface {

	// Hit is called when a fresh cached document is returned without fetching.
	Hit()

	// Miss is called when the cache has to go to the fetcher.
	Miss()

	// Coalesced is called when a caller attaches to a retrieval already in flight.
	Coalesced()

	// Eviction is called when a key is removed because the cache is full.
	Eviction()

	// Expire is called when a key is removed because it has passed its TTL.
	Expire()

	// FetchFailure is called when a retrieval settles with an error.
	FetchFailure()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics, so callers that
don't care about metrics never pass nil around.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()          {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Coalesced()    {}
func (NoopMetrics) Eviction()     {}
func (NoopMetrics) Expire()       {}
func (NoopMetrics) FetchFailure() {}
