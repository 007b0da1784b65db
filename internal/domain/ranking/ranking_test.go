package ranking_test

import (
	"errors"
	"testing"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func entry(id int64, value float64) ranking.Entry {
	return ranking.Entry{Key: ranking.Key{CompetitorID: id, MeetID: 1}, Value: value}
}

func TestRankWithin(t *testing.T) {
	Convey("Given the cohort 51, 51, 52, 53 for a timed event", t, func() {
		entries := []ranking.Entry{entry(4, 53), entry(2, 51), entry(3, 52), entry(1, 51)}

		Convey("When ranking the 52", func() {
			info := ranking.RankWithin(entries, ranking.Key{CompetitorID: 3, MeetID: 1}, true)

			Convey("Then it is third of four", func() {
				So(info, ShouldNotBeNil)
				So(info.Rank, ShouldEqual, 3)
				So(info.Total, ShouldEqual, 4)
			})

			Convey("Then the tied leaders share rank 1 in key order", func() {
				So(info.Leaderboard[0].CompetitorID, ShouldEqual, 1)
				So(info.Leaderboard[1].CompetitorID, ShouldEqual, 2)
				So(info.Leaderboard[0].Rank, ShouldEqual, 1)
				So(info.Leaderboard[1].Rank, ShouldEqual, 1)
				So(info.Leaderboard[2].IsTarget, ShouldBeTrue)
				So(info.Leaderboard[3].Rank, ShouldEqual, 4)
			})
		})

		Convey("When the target is absent", func() {
			info := ranking.RankWithin(entries, ranking.Key{CompetitorID: 99, MeetID: 1}, true)

			Convey("Then there is no rank", func() {
				So(info, ShouldBeNil)
			})
		})

		Convey("When the filter removes everything", func() {
			info := ranking.RankWithin(entries, ranking.Key{CompetitorID: 3, MeetID: 1}, true,
				ranking.WithFilter(func(ranking.Entry) bool { return false }))

			Convey("Then there is no rank", func() {
				So(info, ShouldBeNil)
			})
		})

		Convey("When the entry set is empty", func() {
			So(ranking.RankWithin(nil, ranking.Key{}, true), ShouldBeNil)
		})
	})

	Convey("Given a field event", t, func() {
		entries := []ranking.Entry{entry(1, 240), entry(2, 270), entry(3, 270), entry(4, 200)}

		Convey("Then larger marks rank first and ties skip ranks", func() {
			info := ranking.RankWithin(entries, ranking.Key{CompetitorID: 1, MeetID: 1}, false)
			So(info.Rank, ShouldEqual, 3)
			So(info.Leaderboard[0].Value, ShouldEqual, 270)
		})
	})
}

func TestRankWithinProperties(t *testing.T) {
	Convey("Given a cohort with several tie groups", t, func() {
		values := []float64{12.1, 11.9, 12.1, 12.4, 11.9, 11.9, 12.8, 12.4}
		entries := make([]ranking.Entry, len(values))
		for i, v := range values {
			entries[i] = entry(int64(i+1), v)
		}

		for _, lower := range []bool{true, false} {
			ranks := map[float64]int{}
			for i := range entries {
				info := ranking.RankWithin(entries, entries[i].Key, lower, ranking.WithLimit(0))
				So(info, ShouldNotBeNil)

				if r, ok := ranks[entries[i].Value]; ok {
					So(info.Rank, ShouldEqual, r)
				}
				ranks[entries[i].Value] = info.Rank

				better := 0
				for _, other := range values {
					if (lower && other < entries[i].Value) || (!lower && other > entries[i].Value) {
						better++
					}
				}
				So(info.Rank, ShouldEqual, better+1)
			}
		}
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given a cohort larger than the limit", t, func() {
		var entries []ranking.Entry
		for i := 1; i <= 15; i++ {
			entries = append(entries, entry(int64(i), float64(10+i)))
		}

		Convey("When the target is outside the top K", func() {
			info := ranking.RankWithin(entries, ranking.Key{CompetitorID: 14, MeetID: 1}, true, ranking.WithLimit(5))

			Convey("Then it is appended after the top K", func() {
				So(len(info.Leaderboard), ShouldEqual, 6)
				last := info.Leaderboard[5]
				So(last.IsTarget, ShouldBeTrue)
				So(last.Rank, ShouldEqual, 14)
			})
		})

		Convey("When the target is inside the top K", func() {
			info := ranking.RankWithin(entries, ranking.Key{CompetitorID: 2, MeetID: 1}, true)

			Convey("Then it is not duplicated", func() {
				So(len(info.Leaderboard), ShouldEqual, ranking.DefaultLimit)
				targets := 0
				for _, e := range info.Leaderboard {
					if e.IsTarget {
						targets++
					}
				}
				So(targets, ShouldEqual, 1)
			})
		})
	})
}

func TestCohorts(t *testing.T) {
	Convey("Given entries with enrollment and grade", t, func() {
		mk := func(id int64, v float64, enrollment int, grade string) ranking.Entry {
			e := entry(id, v)
			e.Enrollment = &enrollment
			e.Grade = grade
			return e
		}
		entries := []ranking.Entry{
			mk(1, 10.8, 1000, "SR"),
			mk(2, 10.9, 400, "JR"),
			mk(3, 11.0, 800, "JR"),
			mk(4, 11.1, 1250, "SR"),
			mk(5, 11.2, 1300, "JR"),
		}
		target := ranking.Key{CompetitorID: 3, MeetID: 1}

		Convey("When computing the three cohorts", func() {
			out, err := ranking.Cohorts(entries, target, true, ranking.CohortOptions{SameGrade: true})
			So(err, ShouldBeNil)

			Convey("Then overall ranks everyone", func() {
				So(out.Overall.Rank, ShouldEqual, 3)
				So(out.Overall.Total, ShouldEqual, 5)
			})

			Convey("Then like schools keeps 600..1000", func() {
				So(out.LikeSchools.Criteria.Min, ShouldEqual, 600)
				So(out.LikeSchools.Criteria.Max, ShouldEqual, 1000)
				So(out.LikeSchools.Total, ShouldEqual, 2)
				So(out.LikeSchools.Rank, ShouldEqual, 2)
			})

			Convey("Then same grade keeps juniors", func() {
				So(out.SameGrade.Criteria.Grade, ShouldEqual, "JR")
				So(out.SameGrade.Total, ShouldEqual, 3)
				So(out.SameGrade.Rank, ShouldEqual, 2)
			})
		})

		Convey("When a grade cohort is requested for a relay", func() {
			_, err := ranking.Cohorts(entries, target, true, ranking.CohortOptions{Relay: true, SameGrade: true})

			Convey("Then the scope is invalid", func() {
				So(errors.Is(err, model.ErrInvalidScope), ShouldBeTrue)
			})
		})

		Convey("When the target is missing", func() {
			out, err := ranking.Cohorts(entries, ranking.Key{CompetitorID: 42}, true, ranking.CohortOptions{})

			Convey("Then every cohort is empty", func() {
				So(err, ShouldBeNil)
				So(out.Overall, ShouldBeNil)
				So(out.LikeSchools, ShouldBeNil)
			})
		})
	})
}

func TestEnrollmentBand(t *testing.T) {
	Convey("Given school enrollments", t, func() {
		So(ranking.EnrollmentBand(1000, 0.25), ShouldResemble, ranking.Band{Enrollment: 1000, Min: 750, Max: 1250})
		b := ranking.EnrollmentBand(333, 0.25)
		So(b.Min, ShouldEqual, 250)
		So(b.Max, ShouldEqual, 416)
		So(b.Contains(416), ShouldBeTrue)
		So(b.Contains(417), ShouldBeFalse)
	})
}
