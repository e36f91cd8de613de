package goslink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAppliesDefaults(t *testing.T) {
	c := NewClient("", nil)
	assert.Equal(t, DefaultHost+":"+DefaultPort, c.Addr)
	assert.True(t, c.Resume)
	assert.Equal(t, DefaultIdleTimeout, c.NetworkTimeout)
	assert.Equal(t, DefaultReconnectDly, c.ReconnectDelay)
}

func TestRequestInfoRejectsWhenInFlight(t *testing.T) {
	c := NewClient("example.org:18000", nil)
	require.NoError(t, c.RequestInfo("ID"))
	err := c.RequestInfo("STATIONS")
	assert.ErrorIs(t, err, ErrInfoInFlight)
}

func TestRequestInfoRejectedWhileExpectingReply(t *testing.T) {
	c := NewClient("example.org:18000", nil)
	c.state.expectInfo = true
	err := c.RequestInfo("ID")
	assert.ErrorIs(t, err, ErrInfoInFlight)
}

func TestTerminateIsSticky(t *testing.T) {
	c := NewClient("example.org:18000", nil)
	c.Terminate()

	result, pkt, err := c.step(context.Background(), false)
	assert.NoError(t, err)
	assert.Equal(t, ResultTerminate, result)
	assert.Nil(t, pkt)
	assert.Equal(t, Down, c.State())

	// A second call must not touch the network: state stays terminated
	// and the result is still Terminate.
	result2, _, err2 := c.step(context.Background(), false)
	assert.NoError(t, err2)
	assert.Equal(t, ResultTerminate, result2)
}

func TestStepFailsFastOnConfigurationError(t *testing.T) {
	c := NewClient("", nil)
	c.Addr = ""
	result, _, err := c.step(context.Background(), false)
	assert.Equal(t, ResultTerminate, result)
	assert.ErrorIs(t, err, ErrNoServerAddress)

	// Sticky: further calls return Terminate without an error, since the
	// session is already marked terminated.
	result2, _, err2 := c.step(context.Background(), false)
	assert.Equal(t, ResultTerminate, result2)
	assert.NoError(t, err2)
}
