package batch

import(
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/google/uuid"

	"github.com/abworrall/skycolor/pkg/colorize"
)

// Summary is the end-of-run report for a batch.
type Summary struct {
	RunID       string
	Total       int
	OK          int
	Failed      int
	Unmatched   int
	ModeCounts  map[colorize.Mode]int
	Failures    []ItemStatus

	DurationP50 time.Duration
	DurationP90 time.Duration
	DurationMax time.Duration
}

// Summarize tallies the statuses. Durations are bucketed in a histogram
// (microseconds, up to an hour per frame), which is plenty of precision
// for reporting.
func Summarize(statuses []ItemStatus, unmatched int) Summary {
	s := Summary{
		RunID:      uuid.New().String(),
		Total:      len(statuses),
		Unmatched:  unmatched,
		ModeCounts: map[colorize.Mode]int{},
	}

	h := hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3)
	for _, st := range statuses {
		if st.OK() {
			s.OK++
			s.ModeCounts[st.Mode]++
		} else {
			s.Failed++
			s.Failures = append(s.Failures, st)
		}
		us := st.Duration.Microseconds()
		if us < 1 {
			us = 1
		}
		h.RecordValue(us) // values beyond an hour are dropped
	}

	if h.TotalCount() > 0 {
		s.DurationP50 = time.Duration(h.ValueAtQuantile(50)) * time.Microsecond
		s.DurationP90 = time.Duration(h.ValueAtQuantile(90)) * time.Microsecond
		s.DurationMax = time.Duration(h.Max()) * time.Microsecond
	}
	return s
}

func (s Summary)String() string {
	return fmt.Sprintf("run %s: %d pairs, %d ok, %d failed, %d unmatched files",
		s.RunID, s.Total, s.OK, s.Failed, s.Unmatched)
}

// WriteTable prints the summary as aligned columns.
func (s Summary)WriteTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	fmt.Fprintf(w, "RUN\t%s\n", s.RunID)
	fmt.Fprintf(w, "PAIRS\t%d\n", s.Total)
	fmt.Fprintf(w, "OK\t%d\n", s.OK)
	fmt.Fprintf(w, "FAILED\t%d\n", s.Failed)
	fmt.Fprintf(w, "UNMATCHED FILES\t%d\n", s.Unmatched)
	fmt.Fprintf(w, "TIME p50/p90/max\t%s / %s / %s\n",
		s.DurationP50.Round(time.Millisecond), s.DurationP90.Round(time.Millisecond), s.DurationMax.Round(time.Millisecond))

	modes := make([]string, 0, len(s.ModeCounts))
	for m := range s.ModeCounts {
		modes = append(modes, string(m))
	}
	sort.Strings(modes)
	if len(modes) > 0 {
		fmt.Fprintln(w, "\nMODE\tFRAMES")
		for _, m := range modes {
			fmt.Fprintf(w, "%s\t%d\n", m, s.ModeCounts[colorize.Mode(m)])
		}
	}

	if len(s.Failures) > 0 {
		fmt.Fprintln(w, "\nFAILED PAIR\tERROR")
		for _, f := range s.Failures {
			fmt.Fprintf(w, "%s\t%v\n", f.Pair.ID, f.Err)
		}
	}
	return w.Flush()
}
