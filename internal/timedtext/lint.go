package timedtext

import (
	"fmt"
	"strconv"
)

// Lint checks a parsed transcript against the format contract and the
// timing rules. It never mutates the transcript.
func Lint(t Transcript, r Rules) []Issue {
	var issues []Issue
	prevEnd := -1.0
	seen := make(map[string]int)

	for _, ln := range t {
		issues = append(issues, lintComponents(ln)...)

		startMS := msRound(ln.Start)
		endMS := msRound(ln.End)
		if startMS >= endMS {
			issues = append(issues, Issue{ln.Number, IssueStartNotBeforeEnd,
				fmt.Sprintf("start %s is not before end %s", formatStamp(ln.Start), formatStamp(ln.End))})
		} else {
			durMS := endMS - startMS
			if float64(durMS) > r.MaxCueSeconds*1000 {
				issues = append(issues, Issue{ln.Number, IssueCueTooLong,
					fmt.Sprintf("duration %.1fs exceeds %.0fs", float64(durMS)/1000, r.MaxCueSeconds)})
			}
			if durMS < msRound(r.MinDurationSeconds) {
				issues = append(issues, Issue{ln.Number, IssueCueTooShort,
					fmt.Sprintf("duration %dms is below %dms", durMS, msRound(r.MinDurationSeconds))})
			}
		}

		if prevEnd >= 0 && startMS < msRound(prevEnd) {
			overlapMS := msRound(prevEnd) - startMS
			if overlapMS > msRound(r.OverlapGapSeconds) {
				issues = append(issues, Issue{ln.Number, IssueOverlap,
					fmt.Sprintf("starts %dms before the previous line ends (%s)", overlapMS, formatStamp(prevEnd))})
			}
		}

		stamp := formatStamp(ln.Start) + "-" + formatStamp(ln.End)
		if first, ok := seen[stamp]; ok {
			issues = append(issues, Issue{ln.Number, IssueDuplicateStamp,
				fmt.Sprintf("same stamp as line %d", first)})
		} else {
			seen[stamp] = ln.Number
		}

		if startMS < endMS {
			prevEnd = ln.End
		}
	}
	return issues
}

// lintComponents re-reads the raw stamp to flag contract violations the
// lax parser let through.
func lintComponents(ln Line) []Issue {
	m := lineRe.FindStringSubmatch(ln.Raw)
	if m == nil {
		return nil
	}
	var issues []Issue
	for _, c := range []struct{ value, what string }{
		{m[2], "start seconds"},
		{m[5], "end seconds"},
	} {
		if v, err := strconv.Atoi(c.value); err == nil && v > 59 {
			issues = append(issues, Issue{ln.Number, IssueSecondsOutOfRange,
				fmt.Sprintf("%s %q exceeds 59", c.what, c.value)})
		}
	}
	for _, c := range []struct{ value, what string }{
		{m[3], "start tenths"},
		{m[6], "end tenths"},
	} {
		if len(c.value) != 1 {
			issues = append(issues, Issue{ln.Number, IssueTenthsWidth,
				fmt.Sprintf("%s %q must be exactly one digit", c.what, c.value)})
		}
	}
	return issues
}
