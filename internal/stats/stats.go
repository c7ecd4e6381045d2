// Package stats computes match statistics from aggregated game counts.
//
// Every figure is oriented on the first-listed player (A): a positive Elo
// difference means A is stronger, and LOS is the likelihood that A is the
// stronger player.
package stats

import (
	"math"
	"strconv"
)

// MaxElo is the saturating Elo difference reported when one side scored
// every point.
const MaxElo = 10000

// ExpectedScore returns A's score fraction: (winsA + draws/2) / games.
// It returns NaN when no games were played.
func ExpectedScore(winsA, winsB, draws int) float64 {
	total := winsA + winsB + draws
	if total == 0 {
		return math.NaN()
	}
	return (float64(winsA) + float64(draws)/2) / float64(total)
}

// EloDifference returns the rating difference implied by A's expected score,
// rounded to two decimals. A perfect score saturates at +MaxElo, a zero
// score at -MaxElo. It returns NaN when no games were played.
func EloDifference(winsA, winsB, draws int) float64 {
	e := ExpectedScore(winsA, winsB, draws)
	switch {
	case math.IsNaN(e):
		return math.NaN()
	case e == 1:
		return MaxElo
	case e == 0:
		return -MaxElo
	case e == 0.5:
		return 0
	}
	return round2(-400 * math.Log10(1/e-1))
}

// LOS returns the likelihood of superiority of A in percent, rounded to two
// decimals. Draws do not contribute. It returns NaN when there were no
// decisive games, and exactly 50 when both sides won equally often.
func LOS(winsA, winsB int) float64 {
	decisive := winsA + winsB
	if decisive == 0 {
		return math.NaN()
	}
	if winsA == winsB {
		return 50
	}
	z := float64(winsA-winsB) / math.Sqrt(2*float64(decisive))
	return round2(50 * (1 + math.Erf(z)))
}

// EloString formats an Elo difference with an explicit "+" on positive values.
func EloString(elo float64) string {
	s := formatFloat(elo)
	if elo > 0 {
		return "+" + s
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
