// Package ffmpeg wraps the ffmpeg binary for the subtitle pipeline.
//
// Operations:
//   - ExtractAudio: decode any input to 16 kHz mono PCM WAV, optionally a
//     time segment, which is the shape transcription expects
//   - ExtractSubtitle: copy one text subtitle stream out of a container
//   - Mux: append a subtitle file as a soft track with language/title tags
//   - Hardsub: burn subtitles into the video stream, with force_style
//     rendering for SRT/VTT and embedded styling for ASS/SSA
//
// Mux and Hardsub write to a hidden temp name and rename on success so
// interrupted runs never leave a partial artifact at the target path.
// Progress callbacks are driven by the time= position on ffmpeg status
// lines measured against the probed input duration. A commandRunner seam
// keeps subprocess execution swappable in tests.
package ffmpeg
