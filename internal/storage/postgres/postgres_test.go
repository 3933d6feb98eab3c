package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/database"
	"github.com/OCAP2/gaze/pkg/core"
)

func TestInit_Unreachable(t *testing.T) {
	b := New(Dependencies{Config: config.DBConfig{
		Host: "127.0.0.1", Port: "1", Username: "gaze", Password: "x", Database: "gaze",
	}})

	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
	assert.NoError(t, b.Close())
}

func TestInit_InjectedDB(t *testing.T) {
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)

	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())

	s := core.NewSession("camera", time.Now())
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordTransition(&core.Transition{Time: s.StartTime, Message: core.MessageLookingAway}))
	require.NoError(t, b.EndSession(s))

	got, err := b.Transitions(s.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.MessageLookingAway, got[0].Message)

	require.NoError(t, b.Close())
}
