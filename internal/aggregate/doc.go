// Package aggregate holds the fetch-and-aggregate entry points behind each
// API route. A service takes a normalized request, fetches its units through
// the provider adapters, merges and derives the response, and returns the
// result together with the per-unit errors.
//
// Per-unit failures never abort a batch. Only invalid input and a batch in
// which nothing usable came back are returned as errors; the latter is a
// *domain.BatchError carrying the status the handler should send.
package aggregate
