package model_test

import (
	"testing"

	"github.com/okian/trackrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	Convey("Given a catalog built from events", t, func() {
		catalog := model.NewCatalog([]model.Event{
			{Name: "100 Meters", Category: model.CategoryTrack},
			{Name: "4 x 400 Relay", Category: model.CategoryRelay},
			{Name: "Long Jump", Category: model.CategoryField},
		})

		Convey("Then known events resolve to their category", func() {
			So(catalog.Category("Long Jump"), ShouldEqual, model.CategoryField)
			So(catalog.Category("4 x 400 Relay").IsRelay(), ShouldBeTrue)

			cat, ok := catalog.Lookup("100 Meters")
			So(ok, ShouldBeTrue)
			So(cat, ShouldEqual, model.CategoryTrack)
		})

		Convey("Then unknown events fall back to Track", func() {
			So(catalog.Category("Steeplechase"), ShouldEqual, model.CategoryTrack)
			_, ok := catalog.Lookup("Steeplechase")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestResult(t *testing.T) {
	Convey("Given results for the same competitor, meet and event", t, func() {
		meet := model.Meet{ID: 7, Year: 2024, Gender: model.GenderBoys, Type: model.MeetSectional}
		prelim := model.Result{Source: model.SourceIndividual, CompetitorID: 1, Meet: meet, Event: "100 Meters", Kind: model.KindPrelim}
		final := prelim
		final.Kind = model.KindFinal

		Convey("Then they share a key", func() {
			So(prelim.Key(), ShouldResemble, final.Key())
		})

		Convey("Then a relay with the same ids has a different key", func() {
			relay := prelim
			relay.Source = model.SourceRelay
			So(relay.Key(), ShouldNotResemble, prelim.Key())
		})

		Convey("Then place helpers treat zero as absent", func() {
			So(prelim.HasPlace(), ShouldBeFalse)
			So(prelim.PlaceOr(-1), ShouldEqual, -1)
			prelim.Place = model.Int(0)
			So(prelim.HasPlace(), ShouldBeFalse)
			prelim.Place = model.Int(3)
			So(prelim.HasPlace(), ShouldBeTrue)
			So(prelim.PlaceOr(-1), ShouldEqual, 3)
		})
	})
}

func TestMeetHelpers(t *testing.T) {
	Convey("Given gender and stage helpers", t, func() {
		Convey("Then genders parse case-insensitively", func() {
			g, ok := model.ParseGender(" girls ")
			So(ok, ShouldBeTrue)
			So(g, ShouldEqual, model.GenderGirls)
			_, ok = model.ParseGender("mixed")
			So(ok, ShouldBeFalse)
		})

		Convey("Then only postseason tiers are stages", func() {
			So(model.MeetState.IsStage(), ShouldBeTrue)
			So(model.MeetType("Invitational").IsStage(), ShouldBeFalse)
		})

		Convey("Then athlete names are joined", func() {
			a := model.Athlete{First: "Ada", Last: "Lovelace"}
			So(a.FullName(), ShouldEqual, "Ada Lovelace")
		})
	})
}
