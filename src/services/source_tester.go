// src/services/source_tester.go
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/models"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	sourcesEntity            = "api_sources"
	DefaultSourceTestTimeout = 5 * time.Second
	maxHealthBodyBytes        = 64 << 10
)

// SourceTester health-checks API sources over HTTP. Checks share one rate limiter
// so a burst of test clicks cannot flood a provider.
type SourceTester struct {
	records *RecordService
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewSourceTester allows perSecond checks per second with a burst of one.
func NewSourceTester(records *RecordService, timeout time.Duration, perSecond float64) *SourceTester {
	if timeout <= 0 {
		timeout = DefaultSourceTestTimeout
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	// Some providers hand out a session cookie on the first check.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	return &SourceTester{
		records: records,
		client:  &http.Client{Jar: jar, Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// healthURL joins the source base URL and its optional health path.
func healthURL(source listing.Record) string {
	base := strings.TrimSpace(source.Text("baseUrl"))
	path := strings.TrimSpace(source.Text("healthPath"))
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Test sends a GET to the source. A response below 400 marks the source
// active with its latency; any failure leaves the stored source untouched
// and is reported in the result rather than as an error.
func (t *SourceTester) Test(ctx context.Context, actor, id string) (models.TestResult, error) {
	source, err := t.records.Get(ctx, sourcesEntity, id)
	if err != nil {
		return models.TestResult{}, err
	}
	target := healthURL(source)
	result := models.TestResult{SourceID: id, URL: target}

	if err := t.limiter.Wait(ctx); err != nil {
		return result, fmt.Errorf("waiting for check slot: %w", err)
	}

	started := t.now()
	status, checkErr := t.check(ctx, target)
	result.CheckedAt = t.now().UTC()
	result.LatencyMs = result.CheckedAt.Sub(started).Milliseconds()
	result.StatusCode = status

	switch {
	case checkErr != nil:
		result.Error = checkErr.Error()
	case status >= http.StatusBadRequest:
		result.Error = fmt.Sprintf("unexpected status %d", status)
	default:
		result.OK = true
	}

	log := logger.FromContext(ctx)
	if !result.OK {
		log.Warn("API source test failed", "sourceID", id, "url", target, "error", result.Error)
		return result, nil
	}

	patch := listing.Record{
		models.StatusField: models.SourceActive,
		"latencyMs":        float64(result.LatencyMs),
		"lastCheckedAt":    result.CheckedAt.Format(time.RFC3339),
	}
	if _, err := t.records.Update(ctx, sourcesEntity, actor, id, patch); err != nil {
		return result, fmt.Errorf("recording test result: %w", err)
	}
	log.Info("API source test passed", "sourceID", id, "latencyMs", result.LatencyMs)
	return result, nil
}

func (t *SourceTester) check(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TradeOps-SourceTester/1.0")
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxHealthBodyBytes))
	return resp.StatusCode, nil
}
