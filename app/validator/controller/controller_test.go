package controller_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Casino-TAO/casino-tao-subnet/app/validator/controller"
	"github.com/Casino-TAO/casino-tao-subnet/app/validator/types"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/db"
	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/identity"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/metrics"
)

func newTestRouter(t *testing.T, store db.Store, verifier identity.Verifier) http.Handler {
	t.Helper()
	t.Setenv("ADMIN_TOKEN", "testtoken")

	app := &types.App{
		DB:       store,
		Verifier: verifier,
		Metrics:  metrics.New(),
		Logger:   zaptest.NewLogger(t),
	}
	router, err := controller.NewController(app).NewRouter()
	require.NoError(t, err)
	return router
}

func doJSON(t *testing.T, h http.Handler, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	store := &mockStore{}
	store.On("Ping", mock.Anything).Return(nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestLeaderboardOrdering(t *testing.T) {
	store := &mockStore{}
	today := db.DayOf(time.Now())

	store.On("GetAllWindows", mock.Anything, mock.Anything, mock.Anything).Return(map[uint16]map[time.Time]float64{
		5: {today: 70},
		2: {today: 70},
		9: {today: 100},
		1: {today: 1},
	}, nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].([]interface{})
	require.Len(t, data, 4)

	uids := make([]float64, 0, len(data))
	for _, entry := range data {
		uids = append(uids, entry.(map[string]interface{})["uid"].(float64))
	}
	// Descending score; equal scores break ties by ascending uid.
	assert.Equal(t, []float64{9, 2, 5, 1}, uids)
}

func TestLeaderboardLimit(t *testing.T) {
	store := &mockStore{}
	today := db.DayOf(time.Now())

	store.On("GetAllWindows", mock.Anything, mock.Anything, mock.Anything).Return(map[uint16]map[time.Time]float64{
		1: {today: 10},
		2: {today: 20},
		3: {today: 30},
	}, nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/leaderboard?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"].([]interface{}), 2)

	rec, _ = doJSON(t, router, http.MethodGet, "/leaderboard?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotEndpoints(t *testing.T) {
	store := &mockStore{}
	store.On("ListSnapshots", mock.Anything, 0).Return([]*validatormodels.SnapshotSummary{
		{ID: 720, TotalMiners: 3, TotalVolume: 100},
		{ID: 360, TotalMiners: 2, TotalVolume: 80},
	}, nil)
	store.On("GetSnapshot", mock.Anything, uint64(360)).Return(&validatormodels.Snapshot{
		ID:      360,
		Scores:  map[uint16]float64{1: 30, 2: 70},
		Weights: map[uint16]float64{1: 0.3, 2: 0.7},
	}, nil)
	store.On("GetSnapshot", mock.Anything, uint64(999)).Return(nil, nil)
	store.On("LatestSnapshot", mock.Anything).Return(&validatormodels.Snapshot{ID: 720}, nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"].([]interface{}), 2)

	rec, body = doJSON(t, router, http.MethodGet, "/snapshots/360", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(360), body["id"])
	assert.Equal(t, 0.7, body["weights"].(map[string]interface{})["2"])

	rec, body = doJSON(t, router, http.MethodGet, "/snapshots/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(720), body["id"])

	rec, _ = doJSON(t, router, http.MethodGet, "/snapshots/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/snapshots/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotRange(t *testing.T) {
	store := &mockStore{}
	store.On("RangeSnapshots", mock.Anything, uint64(360), uint64(720)).Return([]*validatormodels.Snapshot{
		{ID: 360}, {ID: 720},
	}, nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/snapshots?from=360&to=720", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, float64(360), data[0].(map[string]interface{})["id"])

	// Inverted and half-specified ranges are client errors.
	rec, _ = doJSON(t, router, http.MethodGet, "/snapshots?from=720&to=360", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/snapshots?from=360", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMinersRoster(t *testing.T) {
	store := &mockStore{}
	store.On("ListMiners", mock.Anything).Return([]*validatormodels.Miner{
		{UID: 1, Hotkey: "hk1", Coldkey: "ck1", EVMAddress: "0xaaa"},
		{UID: 2, Hotkey: "hk2", Coldkey: "ck2"},
	}, nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/miners", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "0xaaa", data[0].(map[string]interface{})["evm_address"])
}

func TestScoreDetail(t *testing.T) {
	store := &mockStore{}
	today := db.DayOf(time.Now())

	store.On("GetWindow", mock.Anything, uint16(1), mock.Anything, mock.Anything).Return(map[time.Time]float64{
		today:                   10,
		today.AddDate(0, 0, -1): 8,
		today.AddDate(0, 0, -2): 5,
		today.AddDate(0, 0, -3): 3,
	}, nil)
	store.On("GetMiner", mock.Anything, uint16(1)).Return(&validatormodels.Miner{
		UID: 1, Hotkey: "hk1", Coldkey: "ck1", EVMAddress: "0xaaa",
	}, nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/scores/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 21.95, body["score"].(float64), 1e-9)
	assert.Equal(t, "0xaaa", body["evm_address"])
	assert.Len(t, body["volumes"].([]interface{}), 7)

	rec, _ = doJSON(t, router, http.MethodGet, "/scores/70000", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVolumesWindowShape(t *testing.T) {
	store := &mockStore{}
	today := db.DayOf(time.Now())

	store.On("GetAllWindows", mock.Anything, mock.Anything, mock.Anything).Return(map[uint16]map[time.Time]float64{
		7: {today: 2.5, today.AddDate(0, 0, -6): 1},
	}, nil)

	router := newTestRouter(t, store, identity.Ed25519Verifier{})

	rec, body := doJSON(t, router, http.MethodGet, "/volumes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	window := body["data"].(map[string]interface{})["7"].([]interface{})
	require.Len(t, window, 7)
	assert.Equal(t, 2.5, window[0])
	assert.Equal(t, 1.0, window[6])
}
