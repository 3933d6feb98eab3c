package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gaze/pkg/core"
)

func TestContext_State(t *testing.T) {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s := core.NewSession("replay", start)
	ctx := NewContext(s)

	assert.Same(t, s, ctx.Session())

	msg, at := ctx.State()
	assert.Empty(t, msg)
	assert.True(t, at.IsZero())

	ctx.SetState(core.MessageLookingAway, start.Add(time.Second))
	msg, at = ctx.State()
	assert.Equal(t, core.MessageLookingAway, msg)
	assert.Equal(t, start.Add(time.Second), at)
}

func TestContext_End(t *testing.T) {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	ctx := NewContext(core.NewSession("camera", start))

	ended := ctx.End(start.Add(time.Minute))
	assert.Equal(t, start.Add(time.Minute), ended.EndTime)
	assert.Equal(t, start.Add(time.Minute), ctx.Session().EndTime)
}

func TestContext_LogAttrs(t *testing.T) {
	s := core.NewSession("camera", time.Now())
	ctx := NewContext(s)

	attrs := ctx.LogAttrs()
	require.Len(t, attrs, 1)
	assert.Equal(t, "session", attrs[0].Key)
	assert.Equal(t, s.ID.String(), attrs[0].Value.String())

	ctx.SetState(core.MessageLooking, time.Now())
	attrs = ctx.LogAttrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, "state", attrs[1].Key)
	assert.Equal(t, "LOOKING", attrs[1].Value.String())
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext(core.NewSession("camera", time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ctx.SetState(core.MessageFor(j%2 == 0), time.Now())
				ctx.State()
				ctx.LogAttrs()
			}
		}(i)
	}
	wg.Wait()
}
