package match_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// counterValue reads one labelled sample of a registered counter.
func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestGameMetricsCountOutcomes(t *testing.T) {
	winsBefore := counterValue(t, "quinttest_games_total", "outcome", "win_a")
	errorsBefore := counterValue(t, "quinttest_games_total", "outcome", "error")

	l := newFakeLauncher().set("alpha", always(moveMate)).set("beta", always(movePass))
	runMatch(t, context.Background(), testConfig(4, 2), l, nil)

	require.Equal(t, winsBefore+4, counterValue(t, "quinttest_games_total", "outcome", "win_a"))

	l = newFakeLauncher().set("alpha", failing(errors.New("boom"))).set("beta", always(movePass))
	runMatch(t, context.Background(), testConfig(2, 1), l, nil)

	require.Equal(t, errorsBefore+2, counterValue(t, "quinttest_games_total", "outcome", "error"))
}
