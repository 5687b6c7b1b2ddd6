// Package fetch wraps the yt-dlp binary for media acquisition.
//
// Fetch downloads a URL as either 16 kHz mono WAV audio or a recoded video
// container, streaming yt-dlp's progress lines into a percent callback and
// resolving the output file from the paths yt-dlp reports (falling back to a
// directory scan when it reports none). Probe dumps a URL's metadata without
// downloading. Completed fetches are recorded in a per-directory
// downloads.json index that History reads back, newest first.
//
// Both entry points use injectable runners so tests never need the real
// binary.
package fetch
