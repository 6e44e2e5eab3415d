package countdown

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/timers", r.URL.Path)
		assert.Equal(t, "shop-a.example", r.URL.Query().Get("shop"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const twoTimers = `{"timers":[
	{"id":"first","name":"A","description":"","startDate":"2025-01-01","startTime":"00:00","endDate":"2025-01-01","endTime":"00:10","size":"small","position":"bottom","urgency":"blink","color":"#000000"},
	{"id":"second","name":"B","description":"","startDate":"2025-01-01","startTime":"00:00","endDate":"2025-01-02","endTime":"00:00","size":"large","position":"top","urgency":"none","color":"#ffffff"}
]}`

func TestLoad_SelectsFirstTimer(t *testing.T) {
	srv := serve(t, http.StatusOK, twoTimers)

	w, err := Load(context.Background(), NewClient(srv.URL), "shop-a.example", InLocation(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "first", w.Timer().ID)
	assert.Equal(t, "fixed", w.Presentation().Placement)
	assert.Equal(t, LightForeground, w.Presentation().Foreground)
}

func TestLoad_EmptyOrMalformedNeverRenders(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr func(error) bool
	}{
		{"empty list", `{"timers":[]}`, func(err error) bool { return errors.Is(err, ErrNoTimers) }},
		{"missing key", `{"items":[]}`, isMalformed},
		{"null timers", `{"timers":null}`, isMalformed},
		{"not json", `<html>oops</html>`, isMalformed},
		{"bad window", `{"timers":[{"id":"x","startDate":"nope","startTime":"00:00","endDate":"2025-01-01","endTime":"00:10"}]}`, isMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, tt.body)
			w, err := Load(context.Background(), NewClient(srv.URL), "shop-a.example")
			assert.Nil(t, w)
			require.Error(t, err)
			assert.True(t, tt.wantErr(err), "unexpected error %v", err)
		})
	}
}

func isMalformed(err error) bool {
	var m *MalformedResponseError
	return errors.As(err, &m)
}

func TestFetch_HTTPError(t *testing.T) {
	srv := serve(t, http.StatusInternalServerError, `{"error":"Failed to fetch timers"}`)

	_, err := NewClient(srv.URL).Fetch(context.Background(), "shop-a.example")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Fetch(context.Background(), "shop-a.example")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Error(t, fe.Unwrap())
}

func TestFetch_CustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps/count-down-timer/api/timers", r.URL.Path)
		w.Write([]byte(`{"timers":[]}`))
	}))
	defer srv.Close()

	timers, err := NewClient(srv.URL+"/", WithPath("/apps/count-down-timer/api/timers")).Fetch(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, timers)
}
