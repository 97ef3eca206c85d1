package httpapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/othernet-project/monitoring/pkg/codec"
	"github.com/othernet-project/monitoring/pkg/ingest"
	"github.com/othernet-project/monitoring/pkg/report"
	"github.com/othernet-project/monitoring/pkg/storage/memstore"
	"github.com/othernet-project/monitoring/pkg/telemetry"
)

type fixedStatus struct{ m report.StatusMap }

func (f fixedStatus) LastReport() report.StatusMap { return f.m }

func newTestServer(status report.StatusMap) (*httptest.Server, *memstore.Store) {
	store := memstore.New()
	metrics := telemetry.New(prometheus.NewRegistry())
	pipeline := ingest.New(store, nil, metrics)
	srv := New(pipeline, nil, fixedStatus{status}, metrics, nil)
	return httptest.NewServer(srv), store
}

func postStream(t *testing.T, url string, stream []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("stream", "heartbeat.bin")
	require.NoError(t, err)
	_, err = part.Write(stream)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(url, w.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func TestCollectAcceptsValidStream(t *testing.T) {
	ts, store := newTestServer(nil)
	defer ts.Close()

	h := codec.Heartbeat{
		TunerVendor:    "1d6b",
		TunerModel:     "0002",
		TunerPreset:    1,
		SignalLock:     true,
		ServiceLock:    true,
		Bitrate:        300_000,
		CarouselCount:  4,
		CarouselStatus: []bool{true, true, true, true},
	}
	stream, err := codec.EncodeNow(codec.Batch{h}, codec.Version, codec.Options{})
	require.NoError(t, err)

	resp := postStream(t, ts.URL+"/collect", stream)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, store.Len())
}

func TestCollectAcceptsMarkerlessStreamAsEmptyBatch(t *testing.T) {
	ts, store := newTestServer(nil)
	defer ts.Close()

	resp := postStream(t, ts.URL+"/collect", []byte{0x01, 0x02, 0x03})
	defer resp.Body.Close()
	// Too short/no markers decodes to an empty batch, not an error:
	// nothing is rejected, nothing is persisted.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, store.Len())
}

func TestStatusServesDashboardSnapshot(t *testing.T) {
	snapshot := report.StatusMap{
		"Galaxy 19 (97.0W)": {Status: report.StatusNormal, Clients: 3, ErrorRate: 0, Bitrate: 30_000_000},
	}
	ts, _ := newTestServer(snapshot)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestMetricsEndpointServesExposition(t *testing.T) {
	ts, _ := newTestServer(nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
