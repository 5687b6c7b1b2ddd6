// Package preflight provides readiness checks for the directories, tools,
// and API access the subtitle pipeline depends on.
//
// The CLI "easysub doctor" command runs the full suite through Run and
// renders the resulting Report. Individual checks are exported so other
// commands can probe a single concern, for example verifying the Gemini
// key before queueing work.
//
// Checks report problems through Result.Detail instead of errors; a
// failed check is an answer, not a fault.
package preflight
