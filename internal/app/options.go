package service

import (
	"github.com/okian/trackrank/internal/domain/badges"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of dashboard workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the dashboard queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxBatchSize caps the number of athletes in one Dashboards call.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// WithLeaderboardLimit sets how many rows each cohort leaderboard shows.
func WithLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.leaderboardLimit = limit
		}
	}
}

// WithEnrollmentBand sets the like-school tolerance, a fraction in (0, 1).
func WithEnrollmentBand(band float64) Option {
	return func(s *Service) {
		if band > 0 && band < 1 {
			s.band = band
		}
	}
}

// WithPlacerThreshold sets the podium size used for every stage.
func WithPlacerThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.thresholds = badges.Thresholds{
				model.MeetSectional: n,
				model.MeetRegional:  n,
				model.MeetState:     n,
			}
		}
	}
}

// WithPersonalBestSinceYear sets the first season counted for personal bests.
func WithPersonalBestSinceYear(year int) Option {
	return func(s *Service) {
		if year > 0 {
			s.bestsSince = year
		}
	}
}

// WithDefaultMeetType sets the meet type projections use when none is given.
func WithDefaultMeetType(t model.MeetType) Option {
	return func(s *Service) {
		if t != "" {
			s.defaultMeetType = t
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func defaultThresholds() badges.Thresholds {
	return badges.Thresholds{
		model.MeetSectional: badges.DefaultPlacerThreshold,
		model.MeetRegional:  badges.DefaultPlacerThreshold,
		model.MeetState:     badges.DefaultPlacerThreshold,
	}
}
