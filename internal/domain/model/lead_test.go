package model_test

import (
	"testing"

	"github.com/okian/leadgate/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAction(t *testing.T) {
	Convey("Given the action enum", t, func() {
		Convey("Then known actions are valid", func() {
			So(model.ActionButtonClick.Valid(), ShouldBeTrue)
			So(model.ActionOutboundConfirmed.Valid(), ShouldBeTrue)
		})

		Convey("Then unknown actions are invalid", func() {
			So(model.Action("").Valid(), ShouldBeFalse)
			So(model.Action("page_view").Valid(), ShouldBeFalse)
		})
	})
}

func TestLeadEventConfirmed(t *testing.T) {
	Convey("Given a pending button click", t, func() {
		e := model.LeadEvent{
			ClickID: "1001",
			Event:   model.EventTelegramClick,
			Action:  model.ActionButtonClick,
		}

		Convey("When it is confirmed via telegram", func() {
			got := e.Confirmed(model.MessengerTelegram)

			Convey("Then the copy is promoted and the original is untouched", func() {
				So(got.Action, ShouldEqual, model.ActionOutboundConfirmed)
				So(got.Messenger, ShouldEqual, model.MessengerTelegram)
				So(got.ClickID, ShouldEqual, "1001")
				So(e.Action, ShouldEqual, model.ActionButtonClick)
				So(e.Messenger, ShouldBeEmpty)
			})
		})
	})
}
