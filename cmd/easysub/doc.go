// Command easysub is the CLI for the subtitle pipeline: one-shot
// transcription, translation, and muxing commands plus a queue-driven
// worker for unattended batches.
package main
