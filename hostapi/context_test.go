package hostapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeState struct {
	inkLeft   int64
	inkStatus int32
	depthLeft int32
}

func (s *fakeState) InkLeft() int64       { return s.inkLeft }
func (s *fakeState) SetInkLeft(v int64)   { s.inkLeft = v }
func (s *fakeState) InkStatus() int32     { return s.inkStatus }
func (s *fakeState) SetInkStatus(v int32) { s.inkStatus = v }
func (s *fakeState) DepthLeft() int32     { return s.depthLeft }
func (s *fakeState) SetDepthLeft(v int32) { s.depthLeft = v }

func TestChargeHostioDebitsFlatFee(t *testing.T) {
	st := &fakeState{inkLeft: 1_000_000}
	c := &Context{Resources: st, InkPrice: 1, HostioInk: 100}

	ok := c.chargeHostio()
	require.True(t, ok)
	require.Equal(t, int64(1_000_000-100), st.inkLeft)
	require.Equal(t, int32(0), st.inkStatus)
}

func TestChargeGasDebitsInkPricedByGas(t *testing.T) {
	st := &fakeState{inkLeft: 1_000_000}
	c := &Context{Resources: st, InkPrice: 1}

	ok := c.chargeGas(1) // 1 gas -> 100_000 ink
	require.True(t, ok)
	require.Equal(t, int64(1_000_000-100_000), st.inkLeft)
	require.Equal(t, int32(0), st.inkStatus)
}

func TestChargeGasExhaustsOnInsufficientInk(t *testing.T) {
	st := &fakeState{inkLeft: 50}
	c := &Context{Resources: st, InkPrice: 1}

	ok := c.chargeGas(1) // costs 100_000 ink, far more than available
	require.False(t, ok)
	require.Equal(t, int64(0), st.inkLeft)
	require.Equal(t, int32(1), st.inkStatus)
}

func TestChargeHostioRefusesWhenAlreadyExhausted(t *testing.T) {
	st := &fakeState{inkLeft: 1_000_000, inkStatus: 1}
	c := &Context{Resources: st, InkPrice: 1}

	ok := c.chargeHostio()
	require.False(t, ok)
	require.Equal(t, int64(0), st.inkLeft, "a call made after exhaustion still zeroes ink left")
}

func TestRequireGasChecksWithoutCharging(t *testing.T) {
	st := &fakeState{inkLeft: 100_000}
	c := &Context{Resources: st, InkPrice: 1}

	require.True(t, c.requireGas(1)) // exactly affordable
	require.Equal(t, int64(100_000), st.inkLeft, "requireGas must not charge")

	require.False(t, c.requireGas(2)) // 200_000 ink needed, only 100_000 left
	require.Equal(t, int64(100_000), st.inkLeft)
}
