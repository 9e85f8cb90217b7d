package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectEmptyURLDisablesPublication(t *testing.T) {
	pub, err := Connect("", "fpgadoc.builds")
	require.NoError(t, err)
	assert.Nil(t, pub)

	// All operations must be safe on the disabled publisher.
	assert.NoError(t, pub.PublishBuild(BuildEvent{BuildID: "x"}))
	assert.NoError(t, pub.PublishVerify(VerifyEvent{Project: "artyz7"}))
	pub.Close()
}

func TestBuildEventWireFormat(t *testing.T) {
	event := BuildEvent{
		BuildID:         "b-1",
		Outcome:         "success",
		DurationMS:      1500,
		CoveragePercent: 85,
		Timestamp:       time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "b-1", decoded["build_id"])
	assert.Equal(t, "success", decoded["outcome"])
	assert.Equal(t, float64(1500), decoded["duration_ms"])
	assert.Equal(t, float64(85), decoded["coverage_percent"])
}

func TestVerifyEventWireFormat(t *testing.T) {
	data, err := json.Marshal(VerifyEvent{Project: "artyz7", Outcome: "timing_failure"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "artyz7", decoded["project"])
	assert.Equal(t, "timing_failure", decoded["outcome"])
}
