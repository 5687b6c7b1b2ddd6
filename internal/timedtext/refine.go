package timedtext

import "fmt"

// RefineTiming tightens timing between adjacent lines. Small gaps are
// narrowed so the current line lingers until just before the next one;
// overlaps are resolved by pulling the current line's end forward. Only
// end times move, and never below the minimum duration. Lines the pass
// cannot fix are reported as unresolved overlaps.
func RefineTiming(t Transcript, r Rules) (Transcript, []Issue) {
	out := append(Transcript{}, t...)
	var issues []Issue

	minDurMS := msRound(r.MinDurationSeconds)
	for i := 0; i+1 < len(out); i++ {
		cur := &out[i]
		curStartMS := msRound(cur.Start)
		curEndMS := msRound(cur.End)
		nextStartMS := msRound(out[i+1].Start)
		gapMS := nextStartMS - curEndMS

		switch {
		case gapMS > 0 && gapMS < msRound(r.GapNarrowSeconds):
			newEndMS := nextStartMS - msRound(r.MinGapSeconds)
			if newEndMS-curStartMS >= minDurMS {
				cur.End = float64(newEndMS) / 1000
			}
		case gapMS < 0:
			newEndMS := nextStartMS - msRound(r.OverlapGapSeconds)
			if newEndMS-curStartMS >= minDurMS {
				cur.End = float64(newEndMS) / 1000
				continue
			}
			// Not enough room for the full resolution gap; settle for
			// almost touching.
			newEndMS = nextStartMS - 1
			if newEndMS-curStartMS >= minDurMS {
				cur.End = float64(newEndMS) / 1000
				continue
			}
			issues = append(issues, Issue{cur.Number, IssueUnresolvedOverlap,
				fmt.Sprintf("overlaps the next line by %dms and cannot shrink", -gapMS)})
		}
	}
	return out, issues
}
