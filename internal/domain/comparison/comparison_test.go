package comparison_test

import (
	"math"
	"testing"

	"github.com/okian/pacer/internal/domain/comparison"
	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_Compare(t *testing.T) {
	Convey("Given an engine over the built-in table", t, func() {
		engine := comparison.NewEngine(nil)

		Convey("When a javelin throw of 85 is compared", func() {
			res := engine.Compare("javelin", 85)

			Convey("Then higher-is-better math and the elite band apply", func() {
				So(res.Known, ShouldBeTrue)
				So(res.Better, ShouldEqual, types.Higher)
				So(res.Delta, ShouldAlmostEqual, 4.94, 1e-9)
				So(res.PctOfLead, ShouldEqual, 94.51)
				So(res.Tier, ShouldEqual, comparison.TierElite)
				So(res.HeuristicFeedback, ShouldEqual, "Elite release and run-up — well done!")
			})
		})

		Convey("When a javelin throw lands in each band", func() {
			So(engine.Compare("javelin", 80).Tier, ShouldEqual, comparison.TierElite)
			So(engine.Compare("javelin", 60).HeuristicFeedback, ShouldEqual, "Good base — work on speed and angle (36–38°).")
			So(engine.Compare("javelin", 59.99).HeuristicFeedback, ShouldEqual, "Focus on technique drills and approach consistency.")
		})

		Convey("When a 400m time of 44 is compared", func() {
			res := engine.Compare("sprint400", 44)

			Convey("Then the direction should be inverted", func() {
				So(res.Better, ShouldEqual, types.Lower)
				So(res.Delta, ShouldAlmostEqual, -1.21, 1e-9)
				So(res.PctOfLead, ShouldEqual, 102.75)
				So(res.Tier, ShouldEqual, comparison.TierElite)
				So(res.HeuristicFeedback, ShouldEqual, "Excellent split control — strong finish!")
			})
		})

		Convey("When 400m times land in the slower bands", func() {
			So(engine.Compare("sprint400", 55).HeuristicFeedback, ShouldEqual, "Solid pace — build aerobic capacity and lactic tolerance.")
			So(engine.Compare("sprint400", 55.01).HeuristicFeedback, ShouldEqual, "Work on rhythm and stride efficiency.")
		})

		Convey("When a 400m time is zero", func() {
			res := engine.Compare("sprint400", 0)

			Convey("Then pctOfLead should be zero instead of infinite", func() {
				So(res.PctOfLead, ShouldEqual, 0)
			})
		})

		Convey("When a weightlifting total of 150 is compared", func() {
			res := engine.Compare("weightlifting", 150)

			Convey("Then the middle tier applies", func() {
				So(res.Tier, ShouldEqual, comparison.TierSolid)
				So(res.HeuristicFeedback, ShouldEqual, "Good base — strengthen leg drive and turnover speed.")
				So(res.PctOfLead, ShouldEqual, 71.77)
			})
		})

		Convey("When a sport without bands is compared", func() {
			res := engine.Compare("discus", 50)

			Convey("Then the generic message applies", func() {
				So(res.Tier, ShouldEqual, comparison.TierGeneric)
				So(res.HeuristicFeedback, ShouldEqual, comparison.GenericFeedback)
				So(res.PctOfLead, ShouldEqual, 75.09)
			})
		})

		Convey("When an unknown sport is compared", func() {
			res := engine.Compare("quidditch", 12)

			Convey("Then it resolves to the placeholder without failing", func() {
				So(res.Known, ShouldBeFalse)
				So(res.Lead.AthleteName, ShouldEqual, leads.PlaceholderName)
				So(res.Better, ShouldEqual, types.Higher)
				So(res.PctOfLead, ShouldEqual, 0)
				So(res.Delta, ShouldEqual, -12)
				So(res.HeuristicFeedback, ShouldEqual, comparison.GenericFeedback)
			})
		})

		Convey("When the reported metric is not finite", func() {
			res := engine.Compare("javelin", math.NaN())

			Convey("Then it is treated as zero", func() {
				So(res.PctOfLead, ShouldEqual, 0)
				So(res.Delta, ShouldEqual, 89.94)
			})
		})

		Convey("When the reported metric is negative", func() {
			res := engine.Compare("javelin", -10)

			Convey("Then pctOfLead is never negative", func() {
				So(res.PctOfLead, ShouldEqual, 0)
			})
		})
	})

	Convey("Given custom bands", t, func() {
		engine := comparison.NewEngine(leads.Default(), comparison.WithBands(map[string]comparison.Band{
			"discus": {Elite: 60, Solid: 50, EliteMsg: "e", SolidMsg: "s", DevelopMsg: "d"},
		}))

		Convey("Then they replace the built-in set", func() {
			So(engine.Compare("discus", 55).HeuristicFeedback, ShouldEqual, "s")
			So(engine.Compare("javelin", 85).Tier, ShouldEqual, comparison.TierGeneric)
		})
	})
}

func TestMeasureProperties(t *testing.T) {
	Convey("Given arbitrary lead and reported values", t, func() {
		values := []float64{0, 0.001, 1, 7.5, 45.21, 89.94, 1e6, -3, math.Inf(1)}

		Convey("Then pctOfLead is finite, non-negative and two-decimal rounded", func() {
			for _, dir := range []types.Direction{types.Higher, types.Lower} {
				for _, lead := range values {
					for _, reported := range values {
						_, pct := comparison.Measure(dir, lead, reported)
						So(math.IsNaN(pct) || math.IsInf(pct, 0), ShouldBeFalse)
						So(pct, ShouldBeGreaterThanOrEqualTo, 0)
						So(comparison.Round2(pct), ShouldEqual, pct)
					}
				}
			}
		})

		Convey("Then a zero lead always yields zero", func() {
			_, pct := comparison.Measure(types.Higher, 0, 50)
			So(pct, ShouldEqual, 0)
			_, pct = comparison.Measure(types.Lower, 0, 50)
			So(pct, ShouldEqual, 0)
		})
	})
}

func TestProgress(t *testing.T) {
	Convey("Given two sessions", t, func() {
		cases := []struct {
			last, current float64
			msg           string
		}{
			{0, 10, "Phenomenal — well done!"},
			{100, 115, "Phenomenal — well done!"},
			{100, 107, "Great progress — keep it up!"},
			{100, 100, "You did good — steady gains."},
			{100, 96, "Slight dip — you got this."},
			{100, 95, "Tough session — review & bounce back."},
		}
		for _, c := range cases {
			So(comparison.Progress(c.last, c.current).Message, ShouldEqual, c.msg)
		}
		So(comparison.Progress(80, 85).Pct, ShouldEqual, 6.25)
	})
}
