// Package crawler implements the spiders: parallel workers that each
// claim one frontier url at a time, fetch it through the Tor transport,
// classify the outcome, extract links and forms from changed pages, and
// write the results back to the shared frontier store.
//
// Workers hold no durable state between iterations; every iteration
// starts from a fresh claim. All coordination happens through the Store
// interface, whose operations are idempotent so concurrent discovery of
// the same domain, url or link by different workers is absorbed by the
// store rather than locked around.
package crawler
