package collect

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/leadgate/internal/domain/model"
)

type stubResolver struct {
	cities map[string]string
}

func (s stubResolver) City(ip string) string { return s.cities[ip] }

func TestAssemble(t *testing.T) {
	Convey("Given a collector with a geo resolver", t, func() {
		c := New(stubResolver{cities: map[string]string{"203.0.113.7": "Moscow"}})

		Convey("When assembling a fully populated payload", func() {
			p := Payload{
				EventID:       "evt-1",
				SessionID:     "sess-1",
				PageCity:      "moscow",
				LandingPageID: "lp-windows",
				UTMSource:     "yandex",
				UTMMedium:     "cpc",
				UTMCampaign:   "spring",
				UTMContent:    "banner_a",
				UTMTerm:       "plastic windows",
				TimeOnPageMS:  42000,
				Referrer:      "https://yandex.ru/",
			}
			meta := RequestMeta{IP: "203.0.113.7", UserAgent: "Mozilla/5.0"}

			e := c.Assemble(model.EventTelegramClick, model.ActionButtonClick, p, meta)

			Convey("Then every field lands in the event", func() {
				So(e.EventID, ShouldEqual, "evt-1")
				So(e.Event, ShouldEqual, model.EventTelegramClick)
				So(e.Action, ShouldEqual, model.ActionButtonClick)
				So(e.UTM.Source, ShouldEqual, "yandex")
				So(e.UTM.Term, ShouldEqual, "plastic windows")
				So(e.DwellTimeMS, ShouldEqual, 42000)
				So(e.IP, ShouldEqual, "203.0.113.7")
				So(e.GeoCity, ShouldEqual, "Moscow")
				So(e.UserAgent, ShouldEqual, "Mozilla/5.0")
				So(e.OccurredAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When the payload omits optional marketing fields", func() {
			e := c.Assemble(model.EventFormSubmit, model.ActionOutboundConfirmed, Payload{}, RequestMeta{})

			Convey("Then the event is still assembled with empty fields", func() {
				So(e.UTM.Source, ShouldEqual, "")
				So(e.PageCity, ShouldEqual, "")
				So(e.GeoCity, ShouldEqual, "")
			})

			Convey("Then a missing event id is generated", func() {
				So(e.EventID, ShouldNotEqual, "")
			})
		})

		Convey("When the payload carries no referrer", func() {
			meta := RequestMeta{Referrer: "https://google.com/"}
			e := c.Assemble(model.EventFormSubmit, model.ActionOutboundConfirmed, Payload{}, meta)

			Convey("Then the header referrer is used as fallback", func() {
				So(e.Referrer, ShouldEqual, "https://google.com/")
			})
		})

		Convey("When the payload carries form fields", func() {
			p := Payload{Form: &FormInput{Name: "Anna", Phone: "+79990001122"}}
			e := c.Assemble(model.EventFormSubmit, model.ActionOutboundConfirmed, p, RequestMeta{})

			Convey("Then they are copied into the event", func() {
				So(e.Form, ShouldNotBeNil)
				So(e.Form.Name, ShouldEqual, "Anna")
				So(e.Form.Phone, ShouldEqual, "+79990001122")
			})
		})

		Convey("When the IP is unknown to the resolver", func() {
			e := c.Assemble(model.EventFormSubmit, model.ActionOutboundConfirmed, Payload{}, RequestMeta{IP: "198.51.100.1"})

			Convey("Then the geo city stays empty", func() {
				So(e.GeoCity, ShouldEqual, "")
			})
		})
	})

	Convey("Given a collector without a geo resolver", t, func() {
		c := New(nil)

		Convey("When assembling an event", func() {
			e := c.Assemble(model.EventFormSubmit, model.ActionOutboundConfirmed, Payload{}, RequestMeta{IP: "203.0.113.7"})

			Convey("Then the geo city stays empty", func() {
				So(e.GeoCity, ShouldEqual, "")
			})
		})
	})
}
