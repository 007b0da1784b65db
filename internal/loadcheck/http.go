package loadcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/trackrank/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request for path with query q.
func (c *HTTPClient) Get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// getJSON decodes a 200 response into v and returns the status code.
func (c *HTTPClient) getJSON(ctx context.Context, path string, q url.Values, v any) (int, error) {
	resp, err := c.Get(ctx, path, q)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return resp.StatusCode, nil
}

// sendProbes sends probes concurrently and returns the outcomes in probe order.
func sendProbes(ctx context.Context, config *Config, probes []Probe, stats *Stats) []Outcome {
	logger.Get().Info(ctx, "sending probes", logger.Int("probes", len(probes)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	outcomes := make([]Outcome, len(probes))

	var sent, ok, failed atomic.Int64

	indexes := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				out := sendProbe(ctx, client, probes[idx])
				outcomes[idx] = out

				sent.Add(1)
				if out.Error == "" {
					ok.Add(1)
				} else {
					failed.Add(1)
					if config.Verbose {
						logger.Get().Warn(ctx, "probe failed",
							logger.String("event", out.Probe.Event),
							logger.String("value", out.Probe.Value),
							logger.String("error", out.Error))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range probes {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()

	wg.Wait()

	stats.ProbesSent = int(sent.Load())
	stats.ProbesOK = int(ok.Load())
	stats.ProbesFailed = int(failed.Load())

	logger.Get().Info(ctx, "probes completed",
		logger.Int("ok", stats.ProbesOK),
		logger.Int("failed", stats.ProbesFailed))
	return outcomes
}

func sendProbe(ctx context.Context, client *HTTPClient, p Probe) Outcome {
	q := url.Values{
		"event":  {p.Event},
		"value":  {p.Value},
		"gender": {p.Gender},
		"year":   {strconv.Itoa(p.Year)},
	}
	var proj projection
	status, err := client.getJSON(ctx, "/where-do-i-rank", q, &proj)
	out := Outcome{Probe: p, Status: status}
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Display = proj.Display
	out.OverallLabel = proj.OverallLabel
	return out
}
