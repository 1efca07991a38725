// This file implements a standalone metrics scraper for the CY Weather API.
// It is deployed as a separate serverless container (e.g. on Cloud Run) and
// triggered periodically by a scheduler (e.g. Cloud Scheduler).
//
// On every trigger the scraper:
//  1. Fetches the Prometheus text exposition from the API's /metrics endpoint.
//  2. Converts counters, gauges, untyped metrics and histograms into Google
//     Cloud Monitoring TimeSeries attached to a prometheus_target resource.
//  3. Writes them to Cloud Monitoring in batches.
//
// Summaries are not exported; the API does not emit any.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/joho/godotenv"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/genproto/googleapis/api/distribution"
	"google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	metricTypePrefix = "prometheus.googleapis.com/"
	// maxSeriesPerRequest is the Cloud Monitoring limit for one CreateTimeSeries call.
	maxSeriesPerRequest = 200
	defaultLocation     = "europe-west1"
	defaultJob          = "cy-weather"
)

var errMissingEnv = errors.New("required environment variable not set")

type scrapeConfig struct {
	metricsURL string
	projectID  string
	location   string
	job        string
}

func loadConfig() (scrapeConfig, error) {
	cfg := scrapeConfig{
		metricsURL: os.Getenv("METRICS_URL"),
		projectID:  os.Getenv("PROJECT_ID"),
		location:   os.Getenv("GCP_LOCATION"),
		job:        defaultJob,
	}
	if cfg.metricsURL == "" {
		return scrapeConfig{}, fmt.Errorf("METRICS_URL: %w", errMissingEnv)
	}
	if cfg.projectID == "" {
		return scrapeConfig{}, fmt.Errorf("PROJECT_ID: %w", errMissingEnv)
	}
	if cfg.location == "" {
		cfg.location = defaultLocation
	}
	return cfg, nil
}

// timeSeriesWriter is the part of the Cloud Monitoring client the scraper uses.
type timeSeriesWriter interface {
	CreateTimeSeries(ctx context.Context, req *monitoringpb.CreateTimeSeriesRequest) error
	Close() error
}

type metricClientWriter struct {
	client *monitoring.MetricClient
}

func (w *metricClientWriter) CreateTimeSeries(ctx context.Context, req *monitoringpb.CreateTimeSeriesRequest) error {
	return w.client.CreateTimeSeries(ctx, req)
}

func (w *metricClientWriter) Close() error {
	return w.client.Close()
}

func newMetricClientWriter(ctx context.Context) (timeSeriesWriter, error) {
	client, err := monitoring.NewMetricClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	return &metricClientWriter{client: client}, nil
}

type scraper struct {
	cfg        scrapeConfig
	httpClient *http.Client
	newWriter  func(ctx context.Context) (timeSeriesWriter, error)
	logger     *slog.Logger
	now        func() time.Time
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	s := &scraper{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		newWriter:  newMetricClientWriter,
		logger:     logger,
		now:        time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.scrapeHandler)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("starting server", "port", port, "metrics_url", cfg.metricsURL)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

// scrapeHandler is hit by the scheduler. Every trigger is one scrape.
func (s *scraper) scrapeHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("scrape request received")
	n, err := s.scrapeAndIngest(r.Context())
	if err != nil {
		s.logger.Error("error during scrape and ingest", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("successfully scraped and ingested metrics", "series", n)
	fmt.Fprintln(w, "Success")
}

// scrapeAndIngest returns the number of series written.
func (s *scraper) scrapeAndIngest(ctx context.Context) (int, error) {
	families, err := s.fetchFamilies(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch metrics: %w", err)
	}

	timeSeries := convertFamilies(families, s.resource(), timestamppb.New(s.now()), s.logger)
	if len(timeSeries) == 0 {
		s.logger.Info("no metric samples found to ingest")
		return 0, nil
	}

	writer, err := s.newWriter(ctx)
	if err != nil {
		return 0, err
	}
	defer writer.Close()

	if err := ingestMetrics(ctx, writer, s.cfg.projectID, timeSeries); err != nil {
		return 0, fmt.Errorf("failed to ingest metrics: %w", err)
	}
	return len(timeSeries), nil
}

func (s *scraper) fetchFamilies(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.metricsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http request failed with status code %d", resp.StatusCode)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prometheus metrics: %w", err)
	}
	return families, nil
}

func (s *scraper) resource() *monitoredres.MonitoredResource {
	return &monitoredres.MonitoredResource{
		Type: "prometheus_target",
		Labels: map[string]string{
			"project_id": s.cfg.projectID,
			"location":   s.cfg.location,
			"cluster":    "__gce__",
			"namespace":  s.cfg.job,
			"job":        s.cfg.job,
			"instance":   s.cfg.metricsURL,
		},
	}
}

// convertFamilies turns parsed families into TimeSeries ordered by metric name.
func convertFamilies(
	families map[string]*dto.MetricFamily,
	resource *monitoredres.MonitoredResource,
	now *timestamppb.Timestamp,
	logger *slog.Logger,
) []*monitoringpb.TimeSeries {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	var timeSeriesList []*monitoringpb.TimeSeries
	for _, name := range names {
		mf := families[name]
		for _, m := range mf.GetMetric() {
			var point *monitoringpb.Point
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				point = createPoint(now, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				point = createPoint(now, m.GetGauge().GetValue())
			case dto.MetricType_UNTYPED:
				point = createPoint(now, m.GetUntyped().GetValue())
			case dto.MetricType_HISTOGRAM:
				point = createDistributionPoint(now, m.GetHistogram(), logger)
			case dto.MetricType_SUMMARY:
				logger.Debug("skipping metric with unhandled summary type", "metric", name)
				continue
			default:
				logger.Warn("skipping metric with unhandled type", "metric", name, "type", mf.GetType())
				continue
			}

			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}

			timeSeriesList = append(timeSeriesList, &monitoringpb.TimeSeries{
				Metric: &metric.Metric{
					Type:   metricTypePrefix + name,
					Labels: labels,
				},
				Resource: resource,
				Points:   []*monitoringpb.Point{point},
			})
		}
	}
	return timeSeriesList
}

func createPoint(timestamp *timestamppb.Timestamp, value float64) *monitoringpb.Point {
	return &monitoringpb.Point{
		Interval: &monitoringpb.TimeInterval{
			EndTime: timestamp,
		},
		Value: &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DoubleValue{
				DoubleValue: value,
			},
		},
	}
}

// createDistributionPoint converts a cumulative Prometheus histogram into a
// Cloud Monitoring distribution. The +Inf bucket becomes the overflow bucket.
func createDistributionPoint(timestamp *timestamppb.Timestamp, h *dto.Histogram, logger *slog.Logger) *monitoringpb.Point {
	promBuckets := h.GetBucket()

	var bounds []float64
	bucketCounts := make([]int64, 0, len(promBuckets)+1)
	var lastCumulativeCount uint64
	for i, b := range promBuckets {
		if !math.IsInf(b.GetUpperBound(), 1) {
			bounds = append(bounds, b.GetUpperBound())
		}
		cumulativeCount := b.GetCumulativeCount()
		bucketCounts = append(bucketCounts, capInt64(cumulativeCount-lastCumulativeCount, "bucket", i, logger))
		lastCumulativeCount = cumulativeCount
	}
	// Explicit buckets need len(bounds)+1 counts; the overflow holds what +Inf added.
	if len(bucketCounts) == len(bounds) {
		bucketCounts = append(bucketCounts, capInt64(h.GetSampleCount()-lastCumulativeCount, "overflow", len(bounds), logger))
	}

	var mean float64
	if h.GetSampleCount() > 0 {
		mean = h.GetSampleSum() / float64(h.GetSampleCount())
	}

	dist := &distribution.Distribution{
		Count: capInt64(h.GetSampleCount(), "count", 0, logger),
		Mean:  mean,
		BucketOptions: &distribution.Distribution_BucketOptions{
			Options: &distribution.Distribution_BucketOptions_ExplicitBuckets{
				ExplicitBuckets: &distribution.Distribution_BucketOptions_Explicit{
					Bounds: bounds,
				},
			},
		},
		BucketCounts: bucketCounts,
	}

	return &monitoringpb.Point{
		Interval: &monitoringpb.TimeInterval{
			EndTime: timestamp,
		},
		Value: &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DistributionValue{
				DistributionValue: dist,
			},
		},
	}
}

func capInt64(v uint64, field string, index int, logger *slog.Logger) int64 {
	if v > math.MaxInt64 {
		logger.Warn("histogram count exceeds MaxInt64, capping value", "field", field, "index", index, "value", v)
		return math.MaxInt64
	}
	return int64(v)
}

// ingestMetrics writes timeSeries in batches of at most maxSeriesPerRequest.
func ingestMetrics(ctx context.Context, writer timeSeriesWriter, projectID string, timeSeries []*monitoringpb.TimeSeries) error {
	for start := 0; start < len(timeSeries); start += maxSeriesPerRequest {
		end := min(start+maxSeriesPerRequest, len(timeSeries))
		req := &monitoringpb.CreateTimeSeriesRequest{
			Name:       "projects/" + projectID,
			TimeSeries: timeSeries[start:end],
		}
		if err := writer.CreateTimeSeries(ctx, req); err != nil {
			return fmt.Errorf("failed to write time series batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}
