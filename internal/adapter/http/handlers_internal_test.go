package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_EncodeFailureIsServerError(t *testing.T) {
	var logs bytes.Buffer
	api := NewAPI(APIConfig{Logger: slog.New(slog.NewJSONHandler(&logs, nil))})
	rec := httptest.NewRecorder()

	api.writeJSON(rec, http.StatusOK, map[string]float64{"total_distance_nm": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
	assert.Contains(t, logs.String(), "encode api response failed")
}

func TestWriteJSON_Success(t *testing.T) {
	api := NewAPI(APIConfig{})
	rec := httptest.NewRecorder()

	api.writeJSON(rec, http.StatusCreated, map[string]string{"id": "hz-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"hz-1"}`, rec.Body.String())
}
