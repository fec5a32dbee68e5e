package risk

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/quakepredict/quakepredict-go/internal/datastore"
	"github.com/quakepredict/quakepredict-go/internal/errors"
	"github.com/quakepredict/quakepredict-go/internal/features"
	"github.com/quakepredict/quakepredict-go/internal/logging"
	"github.com/quakepredict/quakepredict-go/internal/model"
	"github.com/quakepredict/quakepredict-go/internal/observability"
	"github.com/quakepredict/quakepredict-go/internal/registry"
	"github.com/quakepredict/quakepredict-go/internal/weather"
)

// Package-level logger for the risk service
var (
	riskLogger   *slog.Logger
	riskLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	riskLevelVar.Set(slog.LevelInfo)

	riskLogger, _, err = logging.NewFileLogger("logs/risk.log", "risk", riskLevelVar)
	if err != nil {
		logging.Error("Failed to initialize risk file logger", "error", err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: riskLevelVar})
		riskLogger = slog.New(fbHandler).With("service", "risk")
	}
}

const dateKeyLayout = "2006-01-02"

// WindowFetcher retrieves the daily observation window for one coordinate
// pair. Satisfied by *weather.Service.
type WindowFetcher interface {
	FetchWindow(ctx context.Context, lat, lon float64) (*weather.Window, error)
}

// Predictor scores a feature vector. Satisfied by *model.Model.
type Predictor interface {
	FeatureNames() []string
	Predict(values []float64) (float64, error)
}

// DisplayRecord is the externally visible risk report for one region.
// Coordinates and color are joined in from the registry and the classifier
// on every read.
type DisplayRecord struct {
	Region      string    `json:"region"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
	Probability float64   `json:"probability"`
	RiskLevel   Level     `json:"risk_level"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service implements the daily report cache: at most one computed report per
// region per calendar day, recomputed on the first request of each new day.
type Service struct {
	registry  *registry.Registry
	fetcher   WindowFetcher
	predictor Predictor
	ds        datastore.Interface
	clock     clockwork.Clock
	metrics   *observability.RiskMetrics

	// computeMu serializes the Compute state so concurrent first-of-the-day
	// requests cannot run duplicate batches in this process. Cross-process
	// duplicates are stopped by the (location, date_key) unique index.
	computeMu sync.Mutex
}

// New creates the risk service. predictor may be nil when the model failed
// to load; the service then serves cached reports only.
func New(reg *registry.Registry, fetcher WindowFetcher, predictor Predictor, ds datastore.Interface, clock clockwork.Clock, metrics *observability.RiskMetrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		registry:  reg,
		fetcher:   fetcher,
		predictor: predictor,
		ds:        ds,
		clock:     clock,
		metrics:   metrics,
	}
}

// ModelLoaded reports whether fresh inference is available.
func (s *Service) ModelLoaded() bool {
	return s.predictor != nil
}

// GetOrCompute returns the risk snapshot for the current day. Persisted rows
// for today are served as-is; otherwise a full compute batch runs, its
// results are persisted and returned. A persistence failure rolls back the
// batch write but the computed results are still returned to the caller.
func (s *Service) GetOrCompute(ctx context.Context) ([]DisplayRecord, error) {
	today := s.clock.Now().Format(dateKeyLayout)

	reports, err := s.ds.GetReportsByDate(today)
	if err != nil {
		return nil, err
	}
	if len(reports) > 0 {
		if s.metrics != nil {
			s.metrics.RecordCacheLookup("hit")
		}
		riskLogger.Info("Serving cached daily reports", "date", today, "reports", len(reports))
		return s.assemble(reports), nil
	}

	s.computeMu.Lock()
	defer s.computeMu.Unlock()

	// Re-check after acquiring the lock: a concurrent request may have
	// finished the batch while this one was waiting.
	reports, err = s.ds.GetReportsByDate(today)
	if err != nil {
		return nil, err
	}
	if len(reports) > 0 {
		if s.metrics != nil {
			s.metrics.RecordCacheLookup("hit")
		}
		return s.assemble(reports), nil
	}

	if s.metrics != nil {
		s.metrics.RecordCacheLookup("miss")
	}

	computed, err := s.compute(ctx, today)
	if err != nil {
		return nil, err
	}

	if err := s.ds.SaveReports(computed); err != nil {
		// Completed work is not discarded: return the in-memory results
		// even though they were not saved.
		riskLogger.Error("Failed to persist daily reports, returning unsaved results",
			"date", today, "reports", len(computed), "error", err)
	}

	return s.assemble(computed), nil
}

// compute runs the full pipeline for every region in the registry. A
// failure for one region is logged and that region is skipped; the batch
// succeeds with the remaining regions.
func (s *Service) compute(ctx context.Context, today string) ([]datastore.RiskReport, error) {
	if s.predictor == nil {
		return nil, errors.New(model.ErrModelUnavailable).
			Component("risk").
			Category(errors.CategoryModelInfer).
			Context("date", today).
			Build()
	}

	runID := uuid.NewString()[:8]
	featureOrder := s.predictor.FeatureNames()
	regions := s.registry.List()

	riskLogger.Info("Starting daily compute batch",
		"run_id", runID, "date", today, "regions", len(regions))

	reports := make([]datastore.RiskReport, 0, len(regions))
	for i := range regions {
		region := &regions[i]
		report, err := s.computeRegion(ctx, region, featureOrder, today)
		if err != nil {
			riskLogger.Warn("Skipping region after pipeline failure",
				"run_id", runID, "region", region.Name, "error", err)
			continue
		}
		reports = append(reports, *report)
	}

	// Stored rows are read back ordered by location, keep the freshly
	// computed batch in the same order so the snapshot is stable across
	// the compute and serve paths.
	sort.Slice(reports, func(i, j int) bool { return reports[i].Location < reports[j].Location })

	riskLogger.Info("Daily compute batch finished",
		"run_id", runID, "date", today,
		"computed", len(reports), "skipped", len(regions)-len(reports))

	return reports, nil
}

// computeRegion runs fetch → features → predict → classify for one region.
func (s *Service) computeRegion(ctx context.Context, region *registry.Region, featureOrder []string, today string) (*datastore.RiskReport, error) {
	window, err := s.fetcher.FetchWindow(ctx, region.Latitude, region.Longitude)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRegionSkip("fetch")
		}
		return nil, err
	}

	vector, err := features.Build(*region, window, featureOrder)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRegionSkip("features")
		}
		// A schema mismatch means the deployed model and binary disagree,
		// that is worth more noise than a weather hiccup.
		if errors.Is(err, features.ErrSchemaMismatch) {
			riskLogger.Error("Feature schema mismatch between model and builder",
				"region", region.Name, "error", err)
		}
		return nil, err
	}

	start := time.Now()
	probability, err := s.predictor.Predict(vector.Values)
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordInference(status, time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRegionSkip("predict")
		}
		return nil, err
	}

	level, _ := Classify(probability)

	return &datastore.RiskReport{
		CreatedAt:   s.clock.Now(),
		DateKey:     today,
		Location:    region.Name,
		Probability: probability,
		RiskLevel:   string(level),
	}, nil
}

// assemble joins stored reports with registry coordinates and recomputes the
// display color from the stored probability.
func (s *Service) assemble(reports []datastore.RiskReport) []DisplayRecord {
	records := make([]DisplayRecord, 0, len(reports))
	for i := range reports {
		report := &reports[i]

		var lat, lon float64
		if region, err := s.registry.Find(report.Location); err == nil {
			lat, lon = region.Latitude, region.Longitude
		} else {
			// Degraded but non-fatal: a report for a region that left the
			// registry still renders, pinned at the null island.
			riskLogger.Warn("Stored report references unknown region", "region", report.Location)
		}

		records = append(records, DisplayRecord{
			Region:      report.Location,
			Latitude:    lat,
			Longitude:   lon,
			Probability: roundProbability(report.Probability),
			RiskLevel:   Level(report.RiskLevel),
			Color:       ColorFor(report.Probability),
			CreatedAt:   report.CreatedAt,
		})
	}
	return records
}

// roundProbability rounds to the 4 decimals the report endpoint exposes.
func roundProbability(p float64) float64 {
	return math.Round(p*10000) / 10000
}
