package match_test

import (
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/quinttest/internal/match"
)

func collect(ch <-chan match.Message) []match.Message {
	var got []match.Message
	for m := range ch {
		got = append(got, m)
	}
	return got
}

// metricValue reads an unlabelled counter or gauge from the default registry.
func metricValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name || len(mf.GetMetric()) == 0 {
			continue
		}
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	return 0
}

func TestBrokerDeliversInOrder(t *testing.T) {
	b := match.NewBroker()
	ch, unsub := b.Subscribe("m1")
	defer unsub()

	want := []match.Message{
		{Event: "game", Data: "1"},
		{Event: "game", Data: "2"},
		{Event: "result", Data: "{}"},
	}
	for _, m := range want {
		b.Publish("m1", m)
	}
	b.Close("m1")

	require.Equal(t, want, collect(ch))
}

func TestBrokerMultipleSubscribers(t *testing.T) {
	b := match.NewBroker()
	ch1, unsub1 := b.Subscribe("m1")
	defer unsub1()
	ch2, unsub2 := b.Subscribe("m1")
	defer unsub2()

	b.Publish("m1", match.Message{Event: "game", Data: "x"})
	b.Close("m1")

	require.Len(t, collect(ch1), 1)
	require.Len(t, collect(ch2), 1)
}

func TestBrokerTopicsAreIsolated(t *testing.T) {
	b := match.NewBroker()
	ch, unsub := b.Subscribe("m1")
	defer unsub()

	b.Publish("m2", match.Message{Event: "game"})
	b.Close("m2")
	b.Close("m1")

	require.Empty(t, collect(ch))
}

func TestBrokerLateSubscriberGetsClosedChannel(t *testing.T) {
	b := match.NewBroker()
	b.Publish("m1", match.Message{Event: "game"})
	b.Close("m1")

	ch, unsub := b.Subscribe("m1")
	defer unsub()
	_, ok := <-ch
	require.False(t, ok)
}

func TestBrokerSlowSubscriberKeepsNewest(t *testing.T) {
	droppedBefore := metricValue(t, "quinttest_stream_messages_dropped_total")

	b := match.NewBroker()
	ch, unsub := b.Subscribe("m1")
	defer unsub()

	for i := range 200 {
		b.Publish("m1", match.Message{Event: "game", Data: strconv.Itoa(i)})
	}
	b.Publish("m1", match.Message{Event: "result", Data: "{}"})
	b.Close("m1")

	got := collect(ch)
	require.Len(t, got, 64)
	require.Equal(t, "137", got[0].Data)
	require.Equal(t, match.Message{Event: "result", Data: "{}"}, got[63])
	require.Equal(t, droppedBefore+137, metricValue(t, "quinttest_stream_messages_dropped_total"))
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := match.NewBroker()
	ch, unsub := b.Subscribe("m1")
	unsub()

	b.Publish("m1", match.Message{Event: "game"})
	_, ok := <-ch
	require.False(t, ok)

	// Closing after unsubscribe must not panic.
	b.Close("m1")
	unsub()
}

func TestBrokerResubscribeAfterUnsubscribe(t *testing.T) {
	b := match.NewBroker()
	_, unsub := b.Subscribe("m1")
	unsub()

	ch, unsub2 := b.Subscribe("m1")
	defer unsub2()
	b.Publish("m1", match.Message{Event: "game", Data: "1"})
	b.Close("m1")

	require.Equal(t, []match.Message{{Event: "game", Data: "1"}}, collect(ch))
}
