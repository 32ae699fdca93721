package validate_test

import (
	"context"
	"testing"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/validate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOutboundClassifier(t *testing.T) {
	Convey("Given the outbound-confirmation classifier", t, func() {
		c := validate.New()
		ctx := context.Background()

		Convey("When an event carries an outbound confirmation", func() {
			v := c.Classify(ctx, model.LeadEvent{
				Action:      model.ActionOutboundConfirmed,
				UTM:         model.UTM{Source: "yandex"},
				DwellTimeMS: 45_000,
			})

			Convey("Then it is genuine", func() {
				So(v.Genuine, ShouldBeTrue)
				So(v.Reason, ShouldEqual, validate.ReasonOutboundConfirmed)
			})
		})

		Convey("When an event is a bare button click", func() {
			v := c.Classify(ctx, model.LeadEvent{
				Action:      model.ActionButtonClick,
				DwellTimeMS: 2_000,
			})

			Convey("Then it is a false positive", func() {
				So(v.Genuine, ShouldBeFalse)
				So(v.Reason, ShouldEqual, validate.ReasonNoFollowThrough)
			})
		})

		Convey("When UTM fields are missing entirely", func() {
			v := c.Classify(ctx, model.LeadEvent{Action: model.ActionOutboundConfirmed})

			Convey("Then the verdict is unaffected", func() {
				So(v.Genuine, ShouldBeTrue)
			})
		})

		Convey("When dwell time is long but no confirmation arrived", func() {
			v := c.Classify(ctx, model.LeadEvent{
				Action:      model.ActionButtonClick,
				DwellTimeMS: 600_000,
			})

			Convey("Then dwell time does not rescue the event", func() {
				So(v.Genuine, ShouldBeFalse)
			})
		})
	})
}
