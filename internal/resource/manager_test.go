package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ControlPagos/internal/pipeline"
)

func TestRunRegistry_TracksRunLifecycle(t *testing.T) {
	rm := NewRunRegistryService(map[string]interface{}{"retention": "1h"})
	assert.Equal(t, "resourcemanager", rm.Name())

	started := time.Date(2026, 1, 6, 7, 0, 0, 0, time.UTC)
	rm.RunStarted(pipeline.RunInfo{ID: "r1", Trigger: "console", Started: started})
	rm.RunEvent(pipeline.Event{RunID: "r1", Seq: 1, Message: "uno"})
	rm.RunEvent(pipeline.Event{RunID: "r1", Seq: 2, Message: "dos"})
	rm.RunEvent(pipeline.Event{RunID: "other", Seq: 1})

	v, ok := rm.Get("r1")
	require.True(t, ok)
	assert.Equal(t, pipeline.StatusRunning, v.Status)
	assert.Len(t, v.Events, 2)
	assert.Nil(t, v.Outcome)

	evs, finished, ok := rm.EventsAfter("r1", 1)
	require.True(t, ok)
	assert.False(t, finished)
	require.Len(t, evs, 1)
	assert.Equal(t, "dos", evs[0].Message)

	rm.RunFinished(pipeline.Outcome{RunID: "r1", Status: pipeline.StatusSucceeded, Finished: started.Add(time.Minute)})
	v, _ = rm.Get("r1")
	assert.Equal(t, pipeline.StatusSucceeded, v.Status)
	require.NotNil(t, v.Finished)
	_, finished, _ = rm.EventsAfter("r1", 2)
	assert.True(t, finished)

	_, ok = rm.Get("missing")
	assert.False(t, ok)
}

func TestRunRegistry_ListNewestFirstAndPrune(t *testing.T) {
	rm := NewRunRegistryService(map[string]interface{}{"retention": "1h"})
	clock := time.Date(2026, 1, 6, 7, 0, 0, 0, time.UTC)
	rm.now = func() time.Time { return clock }

	rm.RunStarted(pipeline.RunInfo{ID: "old", Started: clock})
	rm.RunFinished(pipeline.Outcome{RunID: "old", Status: pipeline.StatusFailed})
	clock = clock.Add(30 * time.Minute)
	rm.RunStarted(pipeline.RunInfo{ID: "new", Started: clock})

	list := rm.List()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Nil(t, list[0].Events)

	clock = clock.Add(2 * time.Hour)
	assert.Equal(t, 1, rm.Prune())
	_, ok := rm.Get("old")
	assert.False(t, ok)
	_, ok = rm.Get("new")
	assert.True(t, ok, "running runs are never pruned")
}

func TestRunRegistry_CapsEvents(t *testing.T) {
	rm := NewRunRegistryService(map[string]interface{}{"max_events": 2})
	rm.RunStarted(pipeline.RunInfo{ID: "r"})
	for i := 1; i <= 3; i++ {
		rm.RunEvent(pipeline.Event{RunID: "r", Seq: i})
	}
	v, _ := rm.Get("r")
	require.Len(t, v.Events, 2)
	assert.Equal(t, 2, v.Events[0].Seq)
}
