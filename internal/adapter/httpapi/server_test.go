package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inakamono/paddy-advisor/internal/adapter/httpapi"
	"github.com/inakamono/paddy-advisor/internal/advisor"
	"github.com/inakamono/paddy-advisor/internal/domain"
)

type mockAdvisor struct {
	advice   *advisor.Advice
	events   []domain.Event
	readyErr error
	err      error
}

func (m *mockAdvisor) Advise(_ context.Context, fieldID int64, asOf time.Time) (*advisor.Advice, error) {
	if m.err != nil {
		return nil, m.err
	}
	a := *m.advice
	a.FieldID = fieldID
	a.Date = asOf
	return &a, nil
}

func (m *mockAdvisor) EvaluateField(context.Context, int64, time.Time) ([]domain.Event, error) {
	return m.events, m.err
}

func (m *mockAdvisor) CheckReadiness(context.Context) error { return m.readyErr }

func (m *mockAdvisor) Today() time.Time {
	return time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
}

type mockFieldStore struct {
	fields        map[int64]domain.Field
	notifications []domain.Event
	nextID        int64
}

func newMockFieldStore() *mockFieldStore {
	return &mockFieldStore{fields: make(map[int64]domain.Field), nextID: 1}
}

func (m *mockFieldStore) ListFields(context.Context) ([]domain.Field, error) {
	out := make([]domain.Field, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockFieldStore) GetField(_ context.Context, id int64) (domain.Field, error) {
	f, ok := m.fields[id]
	if !ok {
		return domain.Field{}, domain.ErrFieldNotFound
	}
	return f, nil
}

func (m *mockFieldStore) CreateField(_ context.Context, f domain.Field) (int64, error) {
	id := m.nextID
	m.nextID++
	f.ID = id
	m.fields[id] = f
	return id, nil
}

func (m *mockFieldStore) ListNotifications(context.Context, int64) ([]domain.Event, error) {
	return m.notifications, nil
}

func newTestServer(svc *mockAdvisor, store *mockFieldStore) *httpapi.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpapi.NewServer(":0", svc, store, logger)
}

func doRequest(srv *httpapi.Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	store := newMockFieldStore()

	t.Run("healthz", func(t *testing.T) {
		rec := doRequest(newTestServer(&mockAdvisor{}, store), http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readyz ready", func(t *testing.T) {
		rec := doRequest(newTestServer(&mockAdvisor{}, store), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readyz not ready", func(t *testing.T) {
		svc := &mockAdvisor{readyErr: errors.New("no evaluation run has completed yet")}
		rec := doRequest(newTestServer(svc, store), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not ready", body["status"])
	})

	t.Run("metrics", func(t *testing.T) {
		rec := doRequest(newTestServer(&mockAdvisor{}, store), http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestVarieties(t *testing.T) {
	rec := doRequest(newTestServer(&mockAdvisor{}, newMockFieldStore()), http.MethodGet, "/api/v1/varieties", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"akiroman", "hinohikari", "koshihikari"}, body["varieties"])
}

func TestCreateField(t *testing.T) {
	t.Run("valid registration", func(t *testing.T) {
		store := newMockFieldStore()
		srv := newTestServer(&mockAdvisor{}, store)
		rec := doRequest(srv, http.MethodPost, "/api/v1/fields", `{
			"name": "kita-1",
			"latitude": 37.49,
			"longitude": 139.93,
			"variety": "koshihikari",
			"transplant_date": "2025-05-10",
			"station_id": "47595"
		}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var f domain.Field
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
		assert.Equal(t, int64(1), f.ID)
		assert.Equal(t, "kita-1", f.Name)
		require.NotNil(t, f.TransplantDate)
		assert.Equal(t, time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC), *f.TransplantDate)
	})

	t.Run("unknown variety rejected", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{}, newMockFieldStore())
		rec := doRequest(srv, http.MethodPost, "/api/v1/fields", `{
			"name": "kita-1", "latitude": 37.49, "longitude": 139.93,
			"variety": "unknown", "station_id": "47595"
		}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{}, newMockFieldStore())
		rec := doRequest(srv, http.MethodPost, "/api/v1/fields", `{
			"name": "kita-1", "latitude": 37.49, "longitude": 139.93,
			"variety": "koshihikari", "station_id": "47595",
			"transplant_date": "May 10"
		}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing required fields rejected", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{}, newMockFieldStore())
		rec := doRequest(srv, http.MethodPost, "/api/v1/fields", `{"name": "kita-1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdviceEndpoint(t *testing.T) {
	advice := &advisor.Advice{
		FieldName:   "kita-1",
		Accumulated: 550.0,
		Stage:       domain.StageResult{Stage: domain.StageMidseasonDrain, Label: "midseason drain window"},
		Report:      "Morning report for kita-1",
	}

	t.Run("defaults to today", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{advice: advice}, newMockFieldStore())
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/3/advice", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got advisor.Advice
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int64(3), got.FieldID)
		assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), got.Date)
		assert.Equal(t, domain.StageMidseasonDrain, got.Stage.Stage)
	})

	t.Run("explicit date", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{advice: advice}, newMockFieldStore())
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/3/advice?date=2025-06-15", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got advisor.Advice
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), got.Date)
	})

	t.Run("bad date", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{advice: advice}, newMockFieldStore())
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/3/advice?date=June", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{advice: advice}, newMockFieldStore())
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/zero/advice", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		svc := &mockAdvisor{err: domain.ErrFieldNotFound}
		srv := newTestServer(svc, newMockFieldStore())
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/3/advice", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("config errors map to 422", func(t *testing.T) {
		svc := &mockAdvisor{err: domain.ErrNoTransplantDate}
		srv := newTestServer(svc, newMockFieldStore())
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/3/advice", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestEvaluateEndpoint(t *testing.T) {
	events := []domain.Event{{
		FieldID:  3,
		Kind:     domain.EventHeading,
		Severity: domain.SeverityInfo,
		Title:    "[kita-1] Heading has begun",
	}}

	t.Run("returns emitted notifications", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{events: events}, newMockFieldStore())
		rec := doRequest(srv, http.MethodPost, "/api/v1/fields/3/evaluate", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string][]domain.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body["notifications"], 1)
		assert.Equal(t, domain.EventHeading, body["notifications"][0].Kind)
	})

	t.Run("quiet day returns empty list, not null", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{}, newMockFieldStore())
		rec := doRequest(srv, http.MethodPost, "/api/v1/fields/3/evaluate", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"notifications":[]`)
	})
}

func TestNotificationsEndpoint(t *testing.T) {
	store := newMockFieldStore()
	transplant := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	store.fields[3] = domain.Field{ID: 3, Name: "kita-1", Variety: "koshihikari", TransplantDate: &transplant}
	store.notifications = []domain.Event{{FieldID: 3, Kind: domain.EventDrainStart}}

	t.Run("history returned", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{}, store)
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/3/notifications", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "drain_start")
	})

	t.Run("unknown field 404", func(t *testing.T) {
		srv := newTestServer(&mockAdvisor{}, store)
		rec := doRequest(srv, http.MethodGet, "/api/v1/fields/9/notifications", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
