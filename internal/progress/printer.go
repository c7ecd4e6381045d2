// Package progress prints live match progress to a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/muesli/termenv"

	"github.com/seantiz/quinttest/internal/match"
)

// Printer writes one line per finished game and per engine error. It
// implements match.Sink.
type Printer struct {
	mu      sync.Mutex
	out     *termenv.Output
	playerA string
	playerB string
	games   int
}

var _ match.Sink = (*Printer)(nil)

// NewPrinter creates a printer for a match between playerA and playerB of
// the given length. Colours follow what w supports; pass
// termenv.WithProfile(termenv.Ascii) for plain text.
func NewPrinter(w io.Writer, playerA, playerB string, games int, opts ...termenv.OutputOption) *Printer {
	return &Printer{
		out:     termenv.NewOutput(w, opts...),
		playerA: playerA,
		playerB: playerB,
		games:   games,
	}
}

// GameCompleted prints the running score after a game.
func (p *Printer) GameCompleted(pr match.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	white, black := p.playerA, p.playerB
	if !pr.Game.AIsWhite {
		white, black = black, white
	}
	result := pr.Outcome.PGNResult(pr.Game.AIsWhite)

	fmt.Fprintf(p.out, "Game %d/%d: %s vs %s %s (%s)\n",
		pr.Completed, p.games, white, black, p.resultStyle(pr.Outcome.Kind, result), pr.Outcome.Reason)
	fmt.Fprintf(p.out, "Score: %s\n", p.out.String(pr.Score).Bold())
}

// GameError prints an engine failure.
func (p *Printer) GameError(f match.Failure) {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := p.out.String("Error").Foreground(p.out.Color("1")).Bold()
	fmt.Fprintf(p.out, "%s in game %d: %s\n", label, f.Game.Number, f.Message)
}

// Cancelled prints the notice shown when the user interrupts a match.
func (p *Printer) Cancelled() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out, p.out.String("Stopping: waiting for running games to end...").Faint())
}

func (p *Printer) resultStyle(kind match.OutcomeKind, result string) termenv.Style {
	s := p.out.String(result)
	switch kind {
	case match.OutcomeWinA:
		return s.Foreground(p.out.Color("2"))
	case match.OutcomeWinB:
		return s.Foreground(p.out.Color("1"))
	default:
		return s.Foreground(p.out.Color("3"))
	}
}
