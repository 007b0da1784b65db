package selector_test

import (
	"testing"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/selector"
	. "github.com/smartystreets/goconvey/convey"
)

func result(kind model.Kind, place int, value float64) model.Result {
	r := model.Result{
		Source:       model.SourceIndividual,
		CompetitorID: 1,
		Meet:         model.Meet{ID: 10, Year: 2024},
		Event:        "100 Meters",
		Kind:         kind,
		Value:        model.Float(value),
	}
	if place > 0 {
		r.Place = model.Int(place)
	}
	return r
}

func TestSelect(t *testing.T) {
	Convey("Given results for one competitor at one meet", t, func() {
		Convey("When a Prelim won and the Final placed 6th", func() {
			prelim := result(model.KindPrelim, 1, 10.9)
			final := result(model.KindFinal, 6, 11.2)

			got, ok := selector.Select([]model.Result{prelim, final})

			Convey("Then the Final is canonical", func() {
				So(ok, ShouldBeTrue)
				So(got.Kind, ShouldEqual, model.KindFinal)
				So(*got.Place, ShouldEqual, 6)
			})
		})

		Convey("When unknown kinds compete with a Prelim", func() {
			semi := result(model.Kind("Semi"), 1, 10.8)
			prelim := result(model.KindPrelim, 4, 11.0)

			got, _ := selector.Select([]model.Result{semi, prelim})

			Convey("Then the Prelim wins on kind", func() {
				So(got.Kind, ShouldEqual, model.KindPrelim)
			})
		})

		Convey("When two results share a kind and both are placed", func() {
			a := result(model.KindFinal, 5, 11.0)
			b := result(model.KindFinal, 2, 11.1)

			got, _ := selector.Select([]model.Result{a, b})

			Convey("Then the lower place wins", func() {
				So(*got.Place, ShouldEqual, 2)
			})
		})

		Convey("When two results share a kind and one is unplaced", func() {
			a := result(model.KindFinal, 0, 11.0)
			b := result(model.KindFinal, 2, 11.1)

			got, _ := selector.Select([]model.Result{a, b})

			Convey("Then the first seen is kept", func() {
				So(got.Place, ShouldBeNil)
			})
		})

		Convey("When no results are given", func() {
			_, ok := selector.Select(nil)

			Convey("Then nothing is selected", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestSelectByValue(t *testing.T) {
	Convey("Given results with equal kind", t, func() {
		a := result(model.KindPrelim, 0, 11.0)
		b := result(model.KindPrelim, 0, 10.8)
		noMark := result(model.KindPrelim, 0, 0)
		noMark.Value = nil

		Convey("Then the better value wins for timed events", func() {
			got, ok := selector.SelectByValue([]model.Result{noMark, a, b}, true)
			So(ok, ShouldBeTrue)
			So(*got.Value, ShouldEqual, 10.8)
		})

		Convey("Then the larger value wins for field events", func() {
			got, _ := selector.SelectByValue([]model.Result{a, b}, false)
			So(*got.Value, ShouldEqual, 11.0)
		})

		Convey("Then kind still takes precedence over value", func() {
			final := result(model.KindFinal, 0, 12.0)
			got, _ := selector.SelectByValue([]model.Result{b, final}, true)
			So(got.Kind, ShouldEqual, model.KindFinal)
		})
	})
}

func TestCanonicalize(t *testing.T) {
	Convey("Given results for several competitors", t, func() {
		first := result(model.KindPrelim, 1, 10.9)
		second := result(model.KindPrelim, 2, 11.0)
		second.CompetitorID = 2
		firstFinal := result(model.KindFinal, 3, 10.95)

		out := selector.Canonicalize([]model.Result{first, second, firstFinal})

		Convey("Then each key keeps one result in first-seen order", func() {
			So(len(out), ShouldEqual, 2)
			So(out[0].CompetitorID, ShouldEqual, 1)
			So(out[0].Kind, ShouldEqual, model.KindFinal)
			So(out[1].CompetitorID, ShouldEqual, 2)
		})

		Convey("Then an empty input stays empty", func() {
			So(selector.Canonicalize(nil), ShouldBeEmpty)
		})
	})
}
