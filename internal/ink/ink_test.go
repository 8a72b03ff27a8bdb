package ink_test

import (
	"testing"

	"github.com/inkvm/ink/internal/ink"
	"github.com/stretchr/testify/require"
)

func TestGasToInk(t *testing.T) {
	require.Equal(t, uint64(100_000), ink.GasToInk(1, 1))
	require.Equal(t, uint64(50_000), ink.GasToInk(1, 2))
	require.Equal(t, uint64(0), ink.GasToInk(0, 1))
}

func TestInkToGas(t *testing.T) {
	require.Equal(t, uint64(1), ink.InkToGas(100_000, 1))
	require.Equal(t, uint64(0), ink.InkToGas(99_999, 1))
}

func TestGasToInkSaturates(t *testing.T) {
	got := ink.GasToInk(^uint64(0), 1)
	require.Equal(t, ^uint64(0)/1, got)
}

func TestRoundTripMonotonicAndFloor(t *testing.T) {
	var prev uint64
	for _, i := range []uint64{0, 1, 100, 12345, 999_999} {
		g := ink.InkToGas(i, 3)
		back := ink.GasToInk(g, 3)
		require.LessOrEqual(t, back, i)
		require.GreaterOrEqual(t, back, prev)
		prev = back
	}
}

func TestEvmWords(t *testing.T) {
	require.Equal(t, uint32(0), ink.EvmWords(0))
	require.Equal(t, uint32(1), ink.EvmWords(1))
	require.Equal(t, uint32(1), ink.EvmWords(32))
	require.Equal(t, uint32(2), ink.EvmWords(33))
}

type fakeState struct {
	inkLeft   int64
	inkStatus int32
	depthLeft int32
}

func (s *fakeState) InkLeft() int64      { return s.inkLeft }
func (s *fakeState) SetInkLeft(v int64)  { s.inkLeft = v }
func (s *fakeState) InkStatus() int32    { return s.inkStatus }
func (s *fakeState) SetInkStatus(v int32) { s.inkStatus = v }
func (s *fakeState) DepthLeft() int32    { return s.depthLeft }
func (s *fakeState) SetDepthLeft(v int32) { s.depthLeft = v }

func TestExhausted(t *testing.T) {
	s := &fakeState{inkLeft: 100, inkStatus: 0}
	require.False(t, ink.Exhausted(s))

	s.inkStatus = 1
	require.True(t, ink.Exhausted(s), "status flag wins even with positive ink_left")

	s.inkStatus = 0
	s.inkLeft = 0
	require.True(t, ink.Exhausted(s))
}

func TestSetInkResetsStatusOnlyWhenNonZero(t *testing.T) {
	s := &fakeState{inkStatus: 1}
	ink.SetInk(s, 0)
	require.Equal(t, int32(1), s.inkStatus, "zero ink must not clear exhaustion")

	ink.SetInk(s, 5)
	require.Equal(t, int32(0), s.inkStatus)
	require.Equal(t, int64(5), s.inkLeft)
}
