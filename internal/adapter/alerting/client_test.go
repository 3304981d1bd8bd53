package alerting

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(baseURL, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRequest() domain.AlertRequest {
	start := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	return domain.AlertRequest{
		ID:          0,
		SegmentID:   0,
		Severity:    1,
		Probability: 1,
		StartDate:   start,
		EndDate:     start.Add(24 * time.Hour),
	}
}

func TestClient_AlertUsers_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/alertUsers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":0,"segmentId":0,"severity":1,"probability":1,"startDate":"2026-01-12T08:00:00Z","endDate":"2026-01-13T08:00:00Z"}`, string(raw))

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`anything`))
	}))
	defer srv.Close()

	require.NoError(t, testClient(srv.URL, 5*time.Second).AlertUsers(context.Background(), testRequest()))
}

func TestClient_AlertUsers_ServerErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("segment unavailable"))
	}))
	defer srv.Close()

	err := testClient(srv.URL, 5*time.Second).AlertUsers(context.Background(), testRequest())
	require.Error(t, err)

	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "segment unavailable", statusErr.Body)
	assert.Equal(t, "segment unavailable", domain.FailureDetail(err))
}

func TestClient_AlertUsers_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv.URL, 50*time.Millisecond).AlertUsers(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_AlertUsers_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := testClient(srv.URL, 5*time.Second).AlertUsers(ctx, testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_AlertUsers_BodyMatchesRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, testClient(srv.URL, 5*time.Second).AlertUsers(context.Background(), testRequest()))

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"id", "segmentId", "severity", "probability", "startDate", "endDate"}, keys)
}
