// Package logstore is the typed calculator record store. Records live in a
// single eventlog topic; the entry header carries createdOn in unix
// milliseconds and the payload is the JSON draft. Ids are eventlog sequences,
// so they start at 1 and grow strictly with insertion order.
//
// Every failure from the underlying database is wrapped in
// ErrStoreUnavailable.
package logstore
