package esgapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/resilience"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestClient(srv *httptest.Server, opts ...Option) Client {
	base := []Option{
		WithRateLimit(1000),
		WithRetry(resilience.Policy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}),
	}
	return NewClient(srv.URL+"/", append(base, opts...)...)
}

func TestListFirms_FollowsPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/firms", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = io.WriteString(w, `{"data":[{"id":"a","firm":"Acme","sector":"Energy"}],"next_page":2}`)
		case "2":
			_, _ = io.WriteString(w, `{"data":[{"id":"b","firm":"Beta","address":{"location":"Lagos"}}],"next_page":null}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	firms, err := newTestClient(srv, WithToken("secret")).ListFirms(context.Background())
	require.NoError(t, err)
	require.Len(t, firms, 2)
	assert.Equal(t, "Acme", firms[0].Name)
	assert.Equal(t, "Lagos", firms[1].Location())
}

func TestListFirms_StopsOnNonAdvancingPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"data":[{"id":"a","firm":"Acme"}],"next_page":1}`)
	}))
	defer srv.Close()

	firms, err := newTestClient(srv).ListFirms(context.Background())
	require.NoError(t, err)
	assert.Len(t, firms, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestListFirms_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	firms, err := newTestClient(srv).ListFirms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, firms)
}

func TestListAssessments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/firms/f 1/assessments", r.URL.Path)
		assert.Equal(t, "2021", r.URL.Query().Get("year_from"))
		assert.Equal(t, "2023", r.URL.Query().Get("year_to"))
		_, _ = io.WriteString(w, `{"data":[
			{"id":"x","year":2022,"score":{"total_score":150,"max_score":300},"is_selected":true},
			{"id":"y","firm_id":"other","assessment_year":"2023"}
		]}`)
	}))
	defer srv.Close()

	got, err := newTestClient(srv).ListAssessments(context.Background(), "f 1", 2021, 2023)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "f 1", got[0].FirmID)
	assert.True(t, got[0].Selected())
	y, ok := got[0].ReportingYear()
	require.True(t, ok)
	assert.Equal(t, 2022, y)

	assert.Equal(t, "other", got[1].FirmID)
	y, ok = got[1].ReportingYear()
	require.True(t, ok)
	assert.Equal(t, 2023, y)
}

func TestListAssessments_OpenYears(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	got, err := newTestClient(srv).ListAssessments(context.Background(), "a", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetFirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/firms/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"id":"a","firm":"Acme"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	f, err := c.GetFirm(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Acme", f.Name)

	f, err = c.GetFirm(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestGetJSON_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"data":[{"id":"a","firm":"Acme"}]}`)
	}))
	defer srv.Close()

	firms, err := newTestClient(srv).ListFirms(context.Background())
	require.NoError(t, err)
	assert.Len(t, firms, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSON_PermanentStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "bad token")
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListAssessments(context.Background(), "a", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListFirms(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv).ListFirms(ctx)
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
}
