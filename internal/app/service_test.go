package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/trackrank/internal/app"
	"github.com/okian/trackrank/internal/adapters/repository"
	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/percentile"
	"github.com/okian/trackrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const fixture = "../adapters/repository/testdata/fixture.yaml"

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	store, err := repository.OpenMemory(context.Background(), fixture, repository.WithMetricsUpdateInterval(0))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return service.New(store, opts...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService(t, service.WithWorkerCount(2), service.WithQueueSize(16))

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats["started"], ShouldEqual, false)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 16)
			})
		})

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["years"], ShouldResemble, []int{2024, 2023})
				svc.Stop()
			})

			Convey("And when stopping the service", func() {
				svc.Stop()
				svc.Stop()

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats()["started"], ShouldEqual, false)
				})
			})
		})
	})
}

func TestService_Convert(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService(t)
		ctx := context.Background()

		Convey("When converting a time by event", func() {
			out, err := svc.Convert(ctx, "100 Meters", "", "10.9")
			So(err, ShouldBeNil)
			So(out.Category, ShouldEqual, model.CategoryTrack)
			So(out.Value, ShouldEqual, 10.9)
			So(out.Display, ShouldEqual, "10.90")
		})

		Convey("When converting a distance by category", func() {
			out, err := svc.Convert(ctx, "", model.CategoryField, `20' 6"`)
			So(err, ShouldBeNil)
			So(out.Value, ShouldEqual, 246)
			So(out.Display, ShouldEqual, `20' 6"`)
		})

		Convey("When the input is malformed", func() {
			_, err := svc.Convert(ctx, "100 Meters", "", "fast")
			So(errors.Is(err, codec.ErrFormat), ShouldBeTrue)
		})

		Convey("When the event is unknown", func() {
			out, err := svc.Convert(ctx, "Javelin", "", "150")
			So(err, ShouldBeNil)
			So(out, ShouldBeNil)
		})

		Convey("When neither event nor category is given", func() {
			_, err := svc.Convert(ctx, "", "", "10.9")
			So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
		})
	})
}

func TestService_ResultRankings(t *testing.T) {
	Convey("Given a service over the fixture", t, func() {
		svc := newService(t)
		ctx := context.Background()

		Convey("When ranking an individual sectional final", func() {
			out, err := svc.ResultRankings(ctx, 101, 10, "100 Meters", model.KindFinal)
			So(err, ShouldBeNil)
			So(out, ShouldNotBeNil)

			Convey("Then the target is described", func() {
				So(out.Relay, ShouldBeFalse)
				So(out.Context.MeetType, ShouldEqual, model.MeetSectional)
				So(out.Target.Name, ShouldEqual, "Alex Smith")
				So(out.Target.SchoolName, ShouldEqual, "Carmel")
				So(*out.Target.Enrollment, ShouldEqual, 5000)
				So(*out.Target.Place, ShouldEqual, 2)
			})

			Convey("Then each cohort ranks the final only", func() {
				So(out.Rankings.Overall.Rank, ShouldEqual, 2)
				So(out.Rankings.Overall.Total, ShouldEqual, 4)
				So(out.Rankings.Overall.Leaderboard[0].Name, ShouldEqual, "Chris Lee")
				So(out.Rankings.LikeSchools.Rank, ShouldEqual, 1)
				So(out.Rankings.LikeSchools.Total, ShouldEqual, 2)
				So(out.Rankings.LikeSchools.Criteria.Min, ShouldEqual, 3750)
				So(out.Rankings.SameGrade.Rank, ShouldEqual, 2)
				So(out.Rankings.SameGrade.Total, ShouldEqual, 3)
			})

			Convey("Then the mark is projected against the meet", func() {
				So(out.WhereDoIRank.OverallLabel, ShouldEqual, "2nd")
				So(out.WhereDoIRank.ComparisonCount, ShouldEqual, 4)
			})
		})

		Convey("When ranking a relay", func() {
			out, err := svc.ResultRankings(ctx, 101, 10, "4x100 Relay", "")
			So(err, ShouldBeNil)
			So(out, ShouldNotBeNil)

			Convey("Then the team is ranked without a grade cohort", func() {
				So(out.Relay, ShouldBeTrue)
				So(out.Target.CompetitorID, ShouldEqual, 1)
				So(len(out.Target.Athletes), ShouldEqual, 4)
				So(out.Rankings.Overall.Rank, ShouldEqual, 1)
				So(out.Rankings.Overall.Total, ShouldEqual, 2)
				So(out.Rankings.LikeSchools.Total, ShouldEqual, 1)
				So(out.Rankings.SameGrade, ShouldBeNil)
			})
		})

		Convey("When nothing matches", func() {
			out, err := svc.ResultRankings(ctx, 9999, 10, "100 Meters", model.KindFinal)
			So(err, ShouldBeNil)
			So(out, ShouldBeNil)

			out, err = svc.ResultRankings(ctx, 102, 10, "100 Meters", model.KindPrelim)
			So(err, ShouldBeNil)
			So(out, ShouldBeNil)

			out, err = svc.ResultRankings(ctx, 101, 404, "100 Meters", model.KindFinal)
			So(err, ShouldBeNil)
			So(out, ShouldBeNil)
		})
	})
}

func TestService_WhereDoIRank(t *testing.T) {
	Convey("Given a service over the fixture", t, func() {
		svc := newService(t)
		ctx := context.Background()
		req := service.WhereDoIRankRequest{Event: "100 Meters", Gender: model.GenderBoys, Year: 2024}

		Convey("When projecting a mark inside the field", func() {
			req.Value = "11.00"
			out, err := svc.WhereDoIRank(ctx, req)
			So(err, ShouldBeNil)
			So(out.Scope.MeetType, ShouldEqual, model.MeetSectional)
			So(out.Overall.Value, ShouldEqual, 3)
			So(len(out.Meets), ShouldEqual, 1)
			So(out.Meets[0].Name, ShouldEqual, "Carmel (Meet 1)")
		})

		Convey("When projecting a sprint mark slower than everyone", func() {
			req.Value = "12.00"
			out, err := svc.WhereDoIRank(ctx, req)
			So(err, ShouldBeNil)
			So(out.Overall.DNQ, ShouldBeTrue)
		})

		Convey("When the mark is malformed", func() {
			req.Value = "abc"
			_, err := svc.WhereDoIRank(ctx, req)
			So(errors.Is(err, codec.ErrFormat), ShouldBeTrue)
		})

		Convey("When the event is unknown", func() {
			req.Event, req.Value = "Javelin", "150"
			out, err := svc.WhereDoIRank(ctx, req)
			So(err, ShouldBeNil)
			So(out, ShouldBeNil)
		})

		Convey("When the gender is left out", func() {
			req.Gender, req.Value = "", "12.00"
			out, err := svc.WhereDoIRank(ctx, req)
			So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
			So(out, ShouldBeNil)
		})

		Convey("When the year is left out", func() {
			req.Year, req.Value = 0, "12.00"
			out, err := svc.WhereDoIRank(ctx, req)
			So(err, ShouldBeNil)
			So(out.Scope.Year, ShouldEqual, 2024)
			So(out.Scope.Gender, ShouldEqual, model.GenderBoys)
			So(out.ComparisonCount, ShouldEqual, 4)
			So(len(out.Meets), ShouldEqual, 1)
			So(out.Meets[0].MeetID, ShouldEqual, 10)
		})
	})
}

func TestService_HypotheticalRankings(t *testing.T) {
	Convey("Given a service over the fixture", t, func() {
		svc := newService(t)
		ctx := context.Background()

		Convey("When ranking a hypothetical mark with every cohort", func() {
			out, err := svc.HypotheticalRankings(ctx, service.HypotheticalRequest{
				Event:      "100 Meters",
				Value:      "10.85",
				Gender:     model.GenderBoys,
				Enrollment: 4800,
				Grade:      "11",
			})
			So(err, ShouldBeNil)

			Convey("Then the latest season is used", func() {
				So(out.Context.Year, ShouldEqual, 2024)
				So(out.Display, ShouldEqual, "10.85")
			})

			Convey("Then the mark is placed in each cohort", func() {
				So(out.Rankings.Overall.Rank, ShouldEqual, 2)
				So(out.Rankings.Overall.Total, ShouldEqual, 5)
				So(out.Rankings.LikeSchools.Rank, ShouldEqual, 1)
				So(out.Rankings.LikeSchools.Total, ShouldEqual, 3)
				So(out.Rankings.SameGrade.Rank, ShouldEqual, 2)
				So(out.Rankings.SameGrade.Total, ShouldEqual, 4)
			})

			Convey("Then the projection is included", func() {
				So(out.WhereDoIRank.Overall.Value, ShouldEqual, 2)
			})
		})

		Convey("When a relay asks for a grade cohort", func() {
			_, err := svc.HypotheticalRankings(ctx, service.HypotheticalRequest{
				Event: "4x100 Relay", Value: "43.00", Gender: model.GenderBoys, Grade: "11",
			})
			So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
		})

		Convey("When the gender is missing", func() {
			_, err := svc.HypotheticalRankings(ctx, service.HypotheticalRequest{Event: "100 Meters", Value: "11.0"})
			So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
		})
	})
}

func TestService_Percentiles(t *testing.T) {
	Convey("Given a service over the fixture", t, func() {
		svc := newService(t)
		ctx := context.Background()

		Convey("When computing the median boys 100m", func() {
			table, err := svc.Percentiles(ctx, percentile.Request{
				Events:      []string{"100 Meters"},
				Genders:     []model.Gender{model.GenderBoys},
				Percentiles: []float64{50},
			})
			So(err, ShouldBeNil)
			So(len(table.Rows), ShouldEqual, 1)
			So(table.Rows[0].Count, ShouldEqual, 6)
			So(table.Rows[0].Values, ShouldResemble, []string{"11.00"})
		})

		Convey("When asking for girls' 110 hurdles", func() {
			table, err := svc.Percentiles(ctx, percentile.Request{
				Events:  []string{"110 Hurdles"},
				Genders: []model.Gender{model.GenderGirls},
			})
			So(err, ShouldBeNil)
			So(len(table.Rows), ShouldEqual, 1)
			So(table.Rows[0].Event, ShouldEqual, "100 Hurdles")
		})

		Convey("When a percentile is out of range", func() {
			_, err := svc.Percentiles(ctx, percentile.Request{Percentiles: []float64{0}})
			So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
		})

		Convey("When listing options", func() {
			opts, err := svc.PercentileOptions(ctx)
			So(err, ShouldBeNil)
			So(opts.Years, ShouldResemble, []int{2024, 2023})
			So(opts.DefaultPercentiles, ShouldResemble, []float64{25, 50, 75})
		})
	})
}

func TestService_Dashboard(t *testing.T) {
	Convey("Given a service over the fixture", t, func() {
		svc := newService(t)
		ctx := context.Background()

		Convey("When building a dashboard", func() {
			d, err := svc.Dashboard(ctx, 101)
			So(err, ShouldBeNil)
			So(d, ShouldNotBeNil)

			Convey("Then the header is filled", func() {
				So(d.Athlete.FullName, ShouldEqual, "Alex Smith")
				So(d.Athlete.School, ShouldEqual, "Carmel")
			})

			Convey("Then badges include relay legs", func() {
				So(len(d.Badges), ShouldEqual, 2)
				So(d.Badges[0].Label, ShouldEqual, "4 x Sectional Placer")
				So(d.Badges[1].Label, ShouldEqual, "Regional Placer")
			})

			Convey("Then the best sectional field percentile is reported", func() {
				So(d.SectionalPercentile.Label, ShouldEqual, "Top 40% Sectional")
				So(d.SectionalPercentile.FieldSize, ShouldEqual, 5)
			})

			Convey("Then playoff history has one row per season and event", func() {
				So(len(d.PlayoffHistory), ShouldEqual, 4)
				So(d.PlayoffHistory[0].Event, ShouldEqual, "100 Meters")
				So(d.PlayoffHistory[0].Cells[0].Text, ShouldEqual, "10.90 (2nd)")
				So(d.PlayoffHistory[0].Cells[2].Empty, ShouldBeTrue)
				So(d.PlayoffHistory[3].Year, ShouldEqual, 2023)
			})

			Convey("Then personal bests cover individual and relay events", func() {
				So(len(d.PersonalBests), ShouldEqual, 3)
				So(d.PersonalBests[0].Event, ShouldEqual, "100 Meters")
				So(d.PersonalBests[0].Value, ShouldEqual, 10.85)
				So(d.PersonalBests[0].StateRank.Rank, ShouldEqual, 2)
				So(d.PersonalBests[0].SchoolRank.Rank, ShouldEqual, 1)
				So(d.PersonalBests[1].Event, ShouldEqual, "4x100 Relay")
				So(d.PersonalBests[1].Result, ShouldEqual, "42.50")
				So(d.PersonalBests[2].Event, ShouldEqual, "Long Jump")
			})
		})

		Convey("When the athlete is unknown", func() {
			d, err := svc.Dashboard(ctx, 9999)
			So(err, ShouldBeNil)
			So(d, ShouldBeNil)
		})
	})
}

func TestService_Dashboards(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService(t, service.WithWorkerCount(2), service.WithMaxBatchSize(3))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		Convey("When it has not been started", func() {
			_, err := svc.Dashboards(ctx, []int64{101})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When it is started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then a batch keeps request order and reports misses", func() {
				items, err := svc.Dashboards(ctx, []int64{101, 9999, 101, 103})
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 3)
				So(items[0].Dashboard.Athlete.ID, ShouldEqual, 101)
				So(items[1].Dashboard, ShouldBeNil)
				So(items[1].Error, ShouldEqual, repository.ErrNotFound.Error())
				So(items[2].Dashboard.Athlete.FullName, ShouldEqual, "Chris Lee")
			})

			Convey("Then an oversized batch is rejected", func() {
				_, err := svc.Dashboards(ctx, []int64{101, 102, 103, 104})
				So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
			})

			Convey("Then stats count the work", func() {
				_, err := svc.Dashboards(ctx, []int64{101})
				So(err, ShouldBeNil)
				ops := svc.GetStats()["operations"].(map[string]int64)
				So(ops["dashboards"], ShouldEqual, 1)
			})
		})
	})
}
