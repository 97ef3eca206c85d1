// Package httpapi implements the HTTP receive endpoint (spec.md §6):
// POST /collect decodes an uploaded stream and responds 200/400, GET
// /status serves the dashboard snapshot, GET /metrics serves
// Prometheus exposition. The Server-around-ServeMux shape is grounded
// on the teacher's pkg/gateway/http server.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/othernet-project/monitoring/pkg/codec"
	"github.com/othernet-project/monitoring/pkg/ingest"
	"github.com/othernet-project/monitoring/pkg/report"
	"github.com/othernet-project/monitoring/pkg/telemetry"
)

// GeoResolver resolves a remote address to a country code; satisfied
// by pkg/geoip.Lookup.
type GeoResolver interface {
	Country(ip string) (code string, ok bool)
}

// StatusSource reports the last published dashboard snapshot.
type StatusSource interface {
	LastReport() report.StatusMap
}

// Server wires the HTTP surface around the ingest pipeline and the
// published aggregator status.
type Server struct {
	pipeline *ingest.Pipeline
	geo      GeoResolver
	status   StatusSource
	metrics  *telemetry.Metrics
	logger   *logrus.Logger
	mux      *http.ServeMux
}

// New builds a Server and registers its routes. logger defaults to
// logrus.StandardLogger() if nil.
func New(pipeline *ingest.Pipeline, geo GeoResolver, status StatusSource, metrics *telemetry.Metrics, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{pipeline: pipeline, geo: geo, status: status, metrics: metrics, logger: logger}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/collect", s.handleCollect)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleCollect implements spec.md §6: reads the "stream" form field,
// optionally decompressing it per Content-Encoding, decodes it with
// version selector 1, and responds 400 "Invalid data" or 200 "OK".
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		// Not a multipart body; fall back to a plain form value, which
		// also covers application/x-www-form-urlencoded uploads.
		if err := r.ParseForm(); err != nil {
			s.reject(w, "Invalid data")
			return
		}
	}

	raw := r.FormValue("stream")
	body := []byte(raw)
	if f, _, err := r.FormFile("stream"); err == nil {
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			s.reject(w, "Invalid data")
			return
		}
		body = b
	}

	if r.Header.Get("Content-Encoding") == "zstd" {
		decoded, err := decompressZstd(body)
		if err != nil {
			s.reject(w, "Invalid data")
			return
		}
		body = decoded
	}

	batch, err := codec.Decode(body, codec.Version, nowSeconds())
	if err != nil {
		s.metrics.DecodeErrors.Inc()
		s.logger.WithError(err).Warn("rejecting upload: invalid stream")
		s.reject(w, "Invalid data")
		return
	}

	ip := clientIP(r)
	country := ""
	if s.geo != nil {
		country, _ = s.geo.Country(ip)
	}

	s.pipeline.Accept(r.Context(), batch, ip, country)
	s.metrics.HeartbeatsIngested.Add(float64(len(batch)))

	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

func (s *Server) reject(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	io.WriteString(w, msg)
}

// handleStatus serves the last published aggregator snapshot for the
// external status dashboard collaborator (spec.md §4.5, §6).
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status.LastReport()); err != nil {
		s.logger.WithError(err).Error("encoding status response failed")
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func decompressZstd(body []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(body, nil)
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
