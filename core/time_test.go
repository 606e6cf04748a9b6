package core_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/strandlab/strand/core"
)

func TestNewTime(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 30, EventPollDelay: 5})
	defer tm.Stop()

	c.Assert(tm.Fps(), qt.Equals, 30)
	c.Assert(tm.FpsTicker(), qt.Not(qt.IsNil))
	c.Assert(tm.EventTicker(), qt.Not(qt.IsNil))
}

func TestNewTimeToleratesZeroPollDelay(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 60})
	defer tm.Stop()

	select {
	case <-tm.EventTicker().C:
	case <-time.After(time.Second):
		c.Fatal("event ticker never fired")
	}
}

func TestNewTimeUnlimited(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{})
	defer tm.Stop()

	c.Assert(tm.Fps(), qt.Equals, 0)

	select {
	case <-tm.FpsTicker().C:
	case <-time.After(time.Second):
		c.Fatal("fps ticker never fired")
	}
}
