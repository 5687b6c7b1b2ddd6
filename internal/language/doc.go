// Package language provides unified language code normalization and mapping.
//
// All language-related conversions (ISO 639-1, ISO 639-2, display names,
// tag extraction) are consolidated here so the translate prompts, mux
// metadata, and probe listings agree on one table of supported targets.
package language
