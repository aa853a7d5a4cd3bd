package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablesound/fable-server/internal/playback"
)

func playerSnapshot(t *testing.T, ts *testServer) playback.Snapshot {
	t.Helper()
	w := ts.request(t, http.MethodGet, "/api/v1/player", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var snap playback.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func TestPlayerSnapshot_InitialState(t *testing.T) {
	ts := setupTestServer(t)

	snap := playerSnapshot(t, ts)
	assert.False(t, snap.IsPlaying)
	assert.Nil(t, snap.Book)
	assert.Equal(t, 1.0, snap.Speed)
	assert.Equal(t, "off", snap.Mode)
}

func TestPlay(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBook(t, "bk-1", "One")

	w := ts.request(t, http.MethodPost, "/api/v1/player/play", "", `{"bookId":"bk-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := playerSnapshot(t, ts)
	assert.True(t, snap.IsPlaying)
	require.NotNil(t, snap.Book)
	assert.Equal(t, "bk-1", snap.Book.ID)
}

func TestPlay_MissingBookID(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/player/play", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlay_UnknownBook(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/player/play", "", `{"bookId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPauseToggle(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBook(t, "bk-1", "One")

	w := ts.request(t, http.MethodPost, "/api/v1/player/play", "", `{"bookId":"bk-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodPost, "/api/v1/player/pause-toggle", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, playerSnapshot(t, ts).IsPlaying)

	w = ts.request(t, http.MethodPost, "/api/v1/player/pause-toggle", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, playerSnapshot(t, ts).IsPlaying)
}

func TestSeek_NegativeRejected(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/player/seek", "", `{"positionMs":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCycleModeEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/player/mode", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "repeat_all", body["mode"])
}

func TestCycleSpeedEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/player/speed", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var body map[string]float64
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, 1.25, body["speed"])
}

func TestSleepTimerEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/player/sleep", "", `{"minutes":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.request(t, http.MethodPost, "/api/v1/player/sleep", "", `{"minutes":15}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(900_000), playerSnapshot(t, ts).SleepRemainingMs)

	w = ts.request(t, http.MethodPost, "/api/v1/player/sleep/clear", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, playerSnapshot(t, ts).SleepRemainingMs)
}
