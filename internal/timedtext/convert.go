package timedtext

import (
	"fmt"
	"strings"
	"time"

	"easyaisubbing/internal/subtitle"
)

// ToSRT converts a transcript into SRT cues. Lines that are too short are
// dropped; a line starting before the previous kept cue ends has its start
// shifted just past that end, or is dropped when the shift would leave it
// too short. Notes never reach the subtitle text. Kept cues are numbered
// from 1 and are guaranteed non-overlapping with start < end.
func ToSRT(t Transcript, r Rules) (*subtitle.Document, []Issue) {
	var cues []*subtitle.Cue
	var issues []Issue

	minDurMS := msRound(r.MinDurationSeconds)
	shiftMS := msRound(r.StartShiftSeconds)
	lastEndMS := -1

	for _, ln := range t {
		startMS := msRound(ln.Start)
		endMS := msRound(ln.End)

		if startMS >= endMS {
			issues = append(issues, Issue{ln.Number, IssueStartNotBeforeEnd,
				fmt.Sprintf("start %s is not before end %s, dropped", formatStamp(ln.Start), formatStamp(ln.End))})
			continue
		}
		if endMS-startMS < minDurMS {
			issues = append(issues, Issue{ln.Number, IssueDroppedShort,
				fmt.Sprintf("duration %dms is below %dms, dropped", endMS-startMS, minDurMS)})
			continue
		}
		if lastEndMS >= 0 && startMS < lastEndMS {
			shifted := lastEndMS + shiftMS
			if shifted < endMS && endMS-shifted >= minDurMS {
				startMS = shifted
			} else {
				issues = append(issues, Issue{ln.Number, IssueDroppedOverlap,
					fmt.Sprintf("starts %dms before the previous cue ends and cannot be shifted, dropped", lastEndMS-startMS)})
				continue
			}
		}

		text := strings.TrimSpace(ln.Text)
		if text == "" {
			continue
		}
		cues = append(cues, &subtitle.Cue{
			Index: len(cues) + 1,
			Start: time.Duration(startMS) * time.Millisecond,
			End:   time.Duration(endMS) * time.Millisecond,
			Lines: []string{text},
		})
		lastEndMS = endMS
	}
	return &subtitle.Document{Cues: cues}, issues
}
