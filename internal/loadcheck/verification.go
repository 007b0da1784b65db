package loadcheck

import (
	"context"
	"fmt"

	"github.com/okian/trackrank/pkg/logger"
)

// verifyOutcomes checks that every answered probe echoes its mark in
// canonical form and carries an overall placement label. Cut points are
// already canonical, so any difference is a codec regression.
func verifyOutcomes(ctx context.Context, outcomes []Outcome, stats *Stats) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to verify")
	}

	for _, o := range outcomes {
		if o.Error != "" {
			continue
		}
		switch {
		case o.Display != o.Probe.Value:
			stats.Mismatches++
			logger.Get().Warn(ctx, "display mismatch",
				logger.String("event", o.Probe.Event),
				logger.String("sent", o.Probe.Value),
				logger.String("got", o.Display))
		case o.OverallLabel == "":
			stats.Mismatches++
			logger.Get().Warn(ctx, "missing overall placement",
				logger.String("event", o.Probe.Event),
				logger.String("value", o.Probe.Value))
		}
	}

	if stats.Mismatches > 0 {
		return fmt.Errorf("%d of %d probes answered inconsistently", stats.Mismatches, len(outcomes))
	}
	logger.Get().Info(ctx, "outcomes verified", logger.Int("outcomes", len(outcomes)))
	return nil
}
