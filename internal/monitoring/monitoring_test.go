package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func TestJanitor_InvalidSpec(t *testing.T) {
	_, err := NewJanitor("not a schedule", &countingPurger{})
	assert.Error(t, err)
}

func TestJanitor_PurgeOnce(t *testing.T) {
	purger := &countingPurger{}
	j, err := NewJanitor("@every 1h", purger)
	require.NoError(t, err)

	n, err := j.PurgeOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, int32(1), purger.calls.Load())

	// A failing run is logged, not propagated.
	purger.err = errors.New("db down")
	j.run()
	assert.Equal(t, int32(2), purger.calls.Load())

	j.Start()
	j.Stop()
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealth(fakePinger{}, t.TempDir()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "ok", report.Status)

	rec = httptest.NewRecorder()
	NewHealth(fakePinger{err: errors.New("gone")}, t.TempDir()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
