package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalEmitRunsAllListeners(t *testing.T) {
	var s Signal
	var got []int
	s.Add(func(data any) { got = append(got, data.(int)) })
	s.Add(func(data any) { got = append(got, data.(int)*10) })

	s.Emit(3)
	assert.Equal(t, []int{3, 30}, got)
}

func TestListenerRemoveStopsNotification(t *testing.T) {
	var s Signal
	calls := 0
	l := s.Add(func(any) { calls++ })
	s.Emit(nil)
	l.Remove()
	s.Emit(nil)
	assert.Equal(t, 1, calls)
}

func TestListenerRemoveDuringEmitIsSafe(t *testing.T) {
	var s Signal
	var second *Listener
	first := s.Add(func(any) {})
	second = s.Add(func(any) { first.Remove(); second.Remove() })

	assert.NotPanics(t, func() {
		s.Emit(nil)
		s.Emit(nil)
	})
}

func TestFixedRoundTrip(t *testing.T) {
	f := FromFloat64(12.5)
	assert.InDelta(t, 12.5, f.Float64(), 1.0/256)
}
