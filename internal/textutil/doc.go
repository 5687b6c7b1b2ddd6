// Package textutil provides small text helpers shared across the pipeline:
// filename and token sanitization for artifact paths, byte-bounded
// truncation for yt-dlp output templates, and rune-bounded snippets for
// log and progress messages.
package textutil
