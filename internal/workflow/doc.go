// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (downloader, audio extractor,
// transcriber, translator, converter, muxer) while capturing progress and
// failure metadata. It also aggregates queue stats, calls stage health
// checks, and emits queue-level notifications when processing starts or
// completes.
//
// Routing is artifact driven rather than status driven. A pending item runs
// the first applicable stage whose output is missing, so the same items table
// serves URL downloads, local media, and bare subtitle files, and items reset
// to pending after a crash resume exactly at their first unfinished stage.
// Stage failures park items as failed or review based on error
// classification; both are retryable through the queue store.
//
// Add new lifecycle stages by extending StageSet, adding a processing status
// to the queue enums, and defining the stage's applicability and artifact
// predicates; this package is the authoritative home for that coordination
// logic.
package workflow
