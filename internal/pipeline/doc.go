// Package pipeline implements the queue stage handlers: download,
// extract-audio, transcribe, translate, convert, and mux.
//
// Each handler satisfies stage.Handler. Prepare validates wiring and
// inputs and primes the progress fields; the workflow manager persists
// the item after Prepare and Execute return, so handlers only write to
// the store for intermediate progress updates. Execute produces the
// stage artifact on disk and records its path on the item, which is
// what the manager's routing predicates key on.
//
// Handlers classify their failures with the services sentinels so the
// manager can park bad inputs in review instead of retrying them.
package pipeline
