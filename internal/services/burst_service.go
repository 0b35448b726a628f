package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/burst-detector/internal/api"
	"github.com/miradorstack/burst-detector/internal/engine"
	"github.com/miradorstack/burst-detector/internal/metrics"
	"github.com/miradorstack/burst-detector/internal/models"
	"github.com/miradorstack/burst-detector/internal/utils"
)

// Analyzer is the analysis behaviour the service needs.
type Analyzer interface {
	Detect(ctx context.Context, req models.DetectRequest) (models.DetectResult, error)
	Histograms(ctx context.Context, req models.HistogramRequest) (models.HistogramResult, error)
}

const latencyLogEvery = 20

// BurstService implements the gRPC BurstDetection service.
type BurstService struct {
	logger    *slog.Logger
	analyzer  Analyzer
	defaults  api.Defaults
	latencies *utils.LatencyTracker
	// completed counts successful analyses; the latency ring stops growing at its size.
	completed atomic.Int64
}

var _ api.BurstDetectionServer = (*BurstService)(nil)

// NewBurstService constructs the service facade.
func NewBurstService(logger *slog.Logger, analyzer Analyzer, defaults api.Defaults) *BurstService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BurstService{
		logger:    logger,
		analyzer:  analyzer,
		defaults:  defaults,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Detect returns the bursts, or per-event flags, of the submitted train.
func (s *BurstService) Detect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	domainReq, err := api.FromStructDetectRequest(req, s.defaults)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.RunDetect(ctx, domainReq)
	if err != nil {
		return nil, err
	}
	out, err := api.ToStructDetectResult(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// Histogram returns ISI_N distributions for the submitted train.
func (s *BurstService) Histogram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	domainReq, err := api.FromStructHistogramRequest(req, s.defaults)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.RunHistograms(ctx, domainReq)
	if err != nil {
		return nil, err
	}
	out, err := api.ToStructHistogramResult(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// RunDetect runs detection with metrics and logging; errors carry a gRPC status.
func (s *BurstService) RunDetect(ctx context.Context, req models.DetectRequest) (models.DetectResult, error) {
	if s.analyzer == nil {
		return models.DetectResult{}, status.Error(codes.FailedPrecondition, "analyzer not configured")
	}
	s.logger.Debug("Detect called",
		slog.Int("events", len(req.Timestamps)),
		slog.Int("order", req.Order),
		slog.Float64("threshold_ms", req.ThresholdMs),
	)

	start := time.Now()
	res, err := s.analyzer.Detect(ctx, req)
	s.observe("detect", time.Since(start), err)
	if err != nil {
		return models.DetectResult{}, s.toStatus("detect", err)
	}
	metrics.ObserveDetection(res.Events, len(res.Intervals))
	return res, nil
}

// RunHistograms builds histogram curves with metrics and logging; errors carry a gRPC status.
func (s *BurstService) RunHistograms(ctx context.Context, req models.HistogramRequest) (models.HistogramResult, error) {
	if s.analyzer == nil {
		return models.HistogramResult{}, status.Error(codes.FailedPrecondition, "analyzer not configured")
	}
	s.logger.Debug("Histogram called", slog.Int("events", len(req.Timestamps)), slog.Any("orders", req.Orders))

	start := time.Now()
	res, err := s.analyzer.Histograms(ctx, req)
	s.observe("histogram", time.Since(start), err)
	if err != nil {
		return models.HistogramResult{}, s.toStatus("histogram", err)
	}
	return res, nil
}

// LatencyP95 returns the current p95 analysis latency.
func (s *BurstService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *BurstService) observe(method string, duration time.Duration, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case engine.IsInvalidInput(err):
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeError
	}
	metrics.ObserveRequest(method, duration, outcome)
	if err != nil {
		return
	}

	s.latencies.Observe(duration)
	if count := s.completed.Add(1); count%latencyLogEvery == 0 {
		s.logger.Info("analysis latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", s.latencies.Count()),
			slog.Int64("requests", count),
		)
	}
}

func (s *BurstService) toStatus(method string, err error) error {
	switch {
	case engine.IsInvalidInput(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error("analysis failed", slog.String("method", method), slog.Any("error", err))
		return status.Errorf(codes.Internal, "%s failed: %v", method, err)
	}
}
