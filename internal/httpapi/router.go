// Package httpapi exposes the burst detector over JSON and serves metrics next to it.
package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/burst-detector/internal/api"
	"github.com/miradorstack/burst-detector/internal/cache"
	"github.com/miradorstack/burst-detector/internal/engine"
	"github.com/miradorstack/burst-detector/internal/models"
	"github.com/miradorstack/burst-detector/internal/render"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 64 << 20

// Service runs analyses; errors carry a gRPC status code.
type Service interface {
	RunDetect(ctx context.Context, req models.DetectRequest) (models.DetectResult, error)
	RunHistograms(ctx context.Context, req models.HistogramRequest) (models.HistogramResult, error)
}

// Options configures the HTTP handler.
type Options struct {
	Logger   *slog.Logger
	Defaults api.Defaults
	Renderer render.Renderer
	Axes     render.Axes
	Gatherer prometheus.Gatherer

	// PlotCache holds rendered images keyed by request; nil disables caching.
	PlotCache    cache.Provider
	PlotCacheTTL time.Duration
	MaxBodyBytes int64
}

type handler struct {
	logger   *slog.Logger
	service  Service
	defaults api.Defaults
	renderer render.Renderer
	axes     render.Axes
	plots    cache.Provider
	plotTTL  time.Duration
	maxBody  int64
}

type detectBody struct {
	Timestamps  []float64 `json:"timestamps"`
	Unit        *string   `json:"unit"`
	Order       *int      `json:"order"`
	ThresholdMs *float64  `json:"threshold_ms"`
	ReturnFlags bool      `json:"return_flags"`
}

type histogramBody struct {
	Timestamps  []float64 `json:"timestamps"`
	Unit        *string   `json:"unit"`
	Orders      []int     `json:"orders"`
	ThresholdMs *float64  `json:"threshold_ms"`
	Smooth      *bool     `json:"smooth"`
}

// NewRouter wires the JSON endpoints, health and metrics onto a gorilla/mux router.
func NewRouter(service Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &handler{
		logger:   logger,
		service:  service,
		defaults: opts.Defaults,
		renderer: opts.Renderer,
		axes:     opts.Axes,
		plots:    opts.PlotCache,
		plotTTL:  opts.PlotCacheTTL,
		maxBody:  opts.MaxBodyBytes,
	}
	if h.plots == nil {
		h.plots = cache.NoopProvider{}
	}
	if h.maxBody <= 0 {
		h.maxBody = DefaultMaxBodyBytes
	}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/detect", h.handleDetect).Methods(http.MethodPost)
	v1.HandleFunc("/histogram", h.handleHistogram).Methods(http.MethodPost)
	v1.HandleFunc("/histogram/plot", h.handlePlot).Methods(http.MethodPost)
	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	var body detectBody
	if err := decodeJSONStrict(w, r, &body, h.maxBody); err != nil {
		writeError(w, decodeStatus(err), fmt.Errorf("decode request: %w", err))
		return
	}
	req := models.DetectRequest{
		Timestamps:  body.Timestamps,
		Unit:        valueOr(body.Unit, h.defaults.Unit),
		Order:       valueOr(body.Order, h.defaults.Order),
		ThresholdMs: valueOr(body.ThresholdMs, h.defaults.ThresholdMs),
		ReturnFlags: body.ReturnFlags,
	}
	res, err := h.service.RunDetect(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleHistogram(w http.ResponseWriter, r *http.Request) {
	res, ok := h.histograms(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handlePlot(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusNotImplemented, errors.New("plot rendering is not configured"))
		return
	}
	req, ok := h.histogramRequest(w, r)
	if !ok {
		return
	}

	key := h.plotKey(req)
	if img, err := h.plots.Get(r.Context(), key); err == nil {
		writeImage(w, h.renderer.ContentType(), img)
		return
	}

	res, err := h.service.RunHistograms(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, engine.Figure(res, h.axes)); err != nil {
		h.logger.Error("render failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("render: %w", err))
		return
	}
	if err := h.plots.Set(r.Context(), key, buf.Bytes(), h.plotTTL); err != nil {
		h.logger.Warn("plot cache set failed", slog.Any("error", err))
	}
	writeImage(w, h.renderer.ContentType(), buf.Bytes())
}

func (h *handler) plotKey(req models.HistogramRequest) string {
	b, _ := json.Marshal(struct {
		Request     models.HistogramRequest
		ContentType string
		Axes        render.Axes
	}{req, h.renderer.ContentType(), h.axes})
	sum := sha256.Sum256(b)
	return "plot:" + hex.EncodeToString(sum[:])
}

func (h *handler) histograms(w http.ResponseWriter, r *http.Request) (models.HistogramResult, bool) {
	req, ok := h.histogramRequest(w, r)
	if !ok {
		return models.HistogramResult{}, false
	}
	res, err := h.service.RunHistograms(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return models.HistogramResult{}, false
	}
	return res, true
}

func (h *handler) histogramRequest(w http.ResponseWriter, r *http.Request) (models.HistogramRequest, bool) {
	var body histogramBody
	if err := decodeJSONStrict(w, r, &body, h.maxBody); err != nil {
		writeError(w, decodeStatus(err), fmt.Errorf("decode request: %w", err))
		return models.HistogramRequest{}, false
	}
	req := models.HistogramRequest{
		Timestamps:  body.Timestamps,
		Unit:        valueOr(body.Unit, h.defaults.Unit),
		Orders:      body.Orders,
		ThresholdMs: body.ThresholdMs,
		Smooth:      valueOr(body.Smooth, h.defaults.Smooth),
	}
	if req.Orders == nil {
		req.Orders = []int{h.defaults.Order}
	}
	return req, true
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

func statusFor(err error) int {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Canceled, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSONStrict(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	defer r.Body.Close()
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// writeJSON answers 500 when v cannot be encoded; nothing is written before encoding succeeds.
func (h *handler) writeJSON(w http.ResponseWriter, code int, v any) {
	if err := writeJSON(w, code, v); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("encode response: %w", err))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
	return nil
}

func writeImage(w http.ResponseWriter, contentType string, img []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func writeError(w http.ResponseWriter, code int, err error) {
	msg := err.Error()
	if st, ok := status.FromError(err); ok {
		msg = st.Message()
	}
	_ = writeJSON(w, code, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelDebug
		if rec.status >= 500 {
			level = slog.LevelError
		} else if rec.status >= 400 {
			level = slog.LevelWarn
		}
		h.logger.Log(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
