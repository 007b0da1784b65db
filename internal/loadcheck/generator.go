package loadcheck

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/okian/trackrank/pkg/logger"
)

// ErrNoData is returned when the service has no seasons or cut points to
// build probes from.
var ErrNoData = errors.New("no percentile data")

// generateProbes builds probes from the latest season's percentile table.
// Rows are visited round-robin so every event and gender is exercised
// before any cut point repeats.
func generateProbes(ctx context.Context, config *Config, stats *Stats) ([]Probe, error) {
	client := newHTTPClient(config.BaseURL, config.Timeout)

	var opts options
	if _, err := client.getJSON(ctx, "/percentiles/options", nil, &opts); err != nil {
		return nil, fmt.Errorf("failed to fetch options: %w", err)
	}
	if len(opts.Years) == 0 {
		return nil, ErrNoData
	}
	year := slices.Max(opts.Years)

	var tbl table
	q := url.Values{"years": {strconv.Itoa(year)}}
	if _, err := client.getJSON(ctx, "/percentiles", q, &tbl); err != nil {
		return nil, fmt.Errorf("failed to fetch percentiles: %w", err)
	}

	var pool [][]Probe
	for _, row := range tbl.Rows {
		if row.Count == 0 {
			continue
		}
		var probes []Probe
		for i, v := range row.Values {
			if v == "" || i >= len(tbl.Percentiles) {
				continue
			}
			probes = append(probes, Probe{
				Event:      row.Event,
				Gender:     row.Gender,
				Year:       year,
				Percentile: tbl.Percentiles[i],
				Value:      v,
			})
		}
		if len(probes) > 0 {
			pool = append(pool, probes)
		}
	}
	if len(pool) == 0 {
		return nil, ErrNoData
	}

	out := make([]Probe, 0, config.Probes)
	for i := 0; len(out) < config.Probes; i++ {
		row := pool[i%len(pool)]
		out = append(out, row[(i/len(pool))%len(row)])
	}

	stats.ProbesGenerated = len(out)
	logger.Get().Info(ctx, "generated probes",
		logger.Int("probes", len(out)),
		logger.Int("rows", len(pool)),
		logger.Int("year", year))
	return out, nil
}
