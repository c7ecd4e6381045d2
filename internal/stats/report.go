package stats

import (
	"fmt"
	"io"
	"strings"
)

// Report is the human-readable summary of one match.
type Report struct {
	PlayerA     string
	PlayerB     string
	TimeControl string
	WinsA       int
	WinsB       int
	Draws       int
	Errors      int
	Cancelled   bool
}

// Games returns the number of games that reached a result.
func (r Report) Games() int {
	return r.WinsA + r.WinsB + r.Draws
}

// Score formats the counts as "winsA - winsB - draws".
func (r Report) Score() string {
	return Score(r.WinsA, r.WinsB, r.Draws)
}

// Score formats counts as "winsA - winsB - draws".
func Score(winsA, winsB, draws int) string {
	return fmt.Sprintf("%d - %d - %d", winsA, winsB, draws)
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Engine match: %s vs %s\n", r.PlayerA, r.PlayerB)
	fmt.Fprintf(&b, "Time control: %s\n", r.TimeControl)
	fmt.Fprintf(&b, "Games played: %d\n", r.Games())
	fmt.Fprintf(&b, "Final score: %s\n", r.Score())
	fmt.Fprintf(&b, "Elo difference: %s\n", EloString(EloDifference(r.WinsA, r.WinsB, r.Draws)))
	fmt.Fprintf(&b, "Likelihood of superiority: %s%%\n", formatFloat(LOS(r.WinsA, r.WinsB)))
	if r.Errors > 0 {
		fmt.Fprintf(&b, "Game errors: %d\n", r.Errors)
	}
	if r.Cancelled {
		b.WriteString("Match was cancelled before completion\n")
	}
	return b.String()
}

// WriteTo writes the report text to w.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}
