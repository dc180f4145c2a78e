package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"segment not found", domain.ErrSegmentNotFound, http.StatusNotFound, errCodeNotFound},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, errCodeNotFound},
		{"not owned", domain.ErrNotOwned, http.StatusForbidden, errCodeForbidden},
		{"not allowed", domain.ErrNotAllowed, http.StatusForbidden, errCodeForbidden},
		{"not hosting", domain.ErrNotHosting, http.StatusForbidden, errCodeForbidden},
		{"not joined", domain.ErrNotJoined, http.StatusForbidden, errCodeForbidden},
		{"not mergeable", domain.ErrNotMergeable, http.StatusBadRequest, errCodeBadRequest},
		{"already merged", domain.ErrAlreadyMerged, http.StatusBadRequest, errCodeBadRequest},
		{"not enough tokens", domain.ErrNotEnoughTokens, http.StatusBadRequest, errCodeBadRequest},
		{"caves limit", domain.ErrCavesLimit, http.StatusBadRequest, errCodeBadRequest},
		{"invalid coordinate", domain.ErrInvalidCoordinate, http.StatusBadRequest, errCodeBadRequest},
		{"no image", domain.ErrNoImageProvided, http.StatusBadRequest, errCodeBadRequest},
		{"bad file format", domain.ErrInvalidFileFormat, http.StatusBadRequest, errCodeBadRequest},
		{"already in game", domain.ErrAlreadyInGame, http.StatusConflict, errCodeConflict},
		{"both tokens owned", domain.ErrBothTokensOwned, http.StatusConflict, errCodeConflict},
		{"cave exists", domain.ErrCaveAlreadyExists, http.StatusConflict, errCodeConflict},
		{"resync running", domain.ErrResyncRunning, http.StatusConflict, errCodeConflict},
		{"unknown error", errors.New("db exploded"), http.StatusInternalServerError, errCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	respondError(c, errors.New("pq: connection refused"))

	var resp errorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Error.Message, "connection refused")
}

func TestWrappedDomainErrorsStillMap(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	respondError(c, errors.Join(errors.New("context"), domain.ErrSegmentNotFound))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
