package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelane/ratio-engine/pkg/apperrors"
)

// mockRetentionService implements services.RetentionService for testing.
type mockRetentionService struct {
	deleted  int64
	err      error
	lastDays int
}

func (m *mockRetentionService) DeleteOlderThan(_ context.Context, _ uuid.UUID, days int) (int64, error) {
	m.lastDays = days
	if m.err != nil {
		return 0, m.err
	}
	return m.deleted, nil
}

func newRetentionMux(svc *mockRetentionService) *http.ServeMux {
	mux := http.NewServeMux()
	NewRetentionHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestRetentionHandler_Prune(t *testing.T) {
	svc := &mockRetentionService{deleted: 12}
	mux := newRetentionMux(svc)

	req := httptest.NewRequest(http.MethodDelete,
		"/api/periods/"+uuid.New().String()+"/ratio/snapshots/retention?days=180", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 180, svc.lastDays)

	var response struct {
		Deleted int64 `json:"deleted"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, int64(12), response.Deleted)
}

func TestRetentionHandler_Prune_DefaultDays(t *testing.T) {
	svc := &mockRetentionService{}
	mux := newRetentionMux(svc)

	req := httptest.NewRequest(http.MethodDelete,
		"/api/periods/"+uuid.New().String()+"/ratio/snapshots/retention", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, svc.lastDays, "absent days passes zero so the service applies its default")
}

func TestRetentionHandler_Prune_NegativeDays(t *testing.T) {
	svc := &mockRetentionService{err: apperrors.ErrInvalidParameters}
	mux := newRetentionMux(svc)

	req := httptest.NewRequest(http.MethodDelete,
		"/api/periods/"+uuid.New().String()+"/ratio/snapshots/retention?days=-5", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
