package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/leadgate/internal/adapters/http/api"
	"github.com/okian/leadgate/internal/domain/collect"
	"github.com/okian/leadgate/internal/domain/model"
	logging "github.com/okian/leadgate/pkg/logger"
)

// recordingWriter captures appended rows and messenger updates.
type recordingWriter struct {
	mu       sync.Mutex
	appended []model.LeadEvent
	rows     map[string]string // clickID -> messenger
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{rows: make(map[string]string)}
}

func (w *recordingWriter) Append(_ context.Context, e model.LeadEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.appended = append(w.appended, e)
	w.rows[e.ClickID] = e.Messenger
	return nil
}

func (w *recordingWriter) UpdateMessenger(_ context.Context, clickID, messenger string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.rows[clickID]; !ok {
		return false, nil
	}
	w.rows[clickID] = messenger
	return true, nil
}

func (w *recordingWriter) appendedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.appended)
}

func (w *recordingWriter) lastAppended() (model.LeadEvent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.appended) == 0 {
		return model.LeadEvent{}, false
	}
	return w.appended[len(w.appended)-1], true
}

func newStartedService(t *testing.T, w *recordingWriter) *Service {
	t.Helper()
	_ = logging.Init()

	svc := New(
		WithWorkerCount(1),
		WithQueueSize(16),
		WithWriter(w),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("service start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	convey.Convey("Given a new service", t, func() {
		_ = logging.Init()
		svc := New(WithWorkerCount(1), WithQueueSize(4))

		convey.Convey("When starting it twice", func() {
			err1 := svc.Start(context.Background())
			err2 := svc.Start(context.Background())
			defer svc.Stop()

			convey.Convey("Then both calls succeed", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
			})
		})

		convey.Convey("When stopping without starting", func() {
			convey.Convey("Then nothing panics", func() {
				convey.So(svc.Stop, convey.ShouldNotPanic)
			})
		})
	})
}

func TestSubmitFlowsToWriter(t *testing.T) {
	convey.Convey("Given a started service with a recording writer", t, func() {
		w := newRecordingWriter()
		svc := newStartedService(t, w)
		ctx := context.Background()

		convey.Convey("When a genuine event is submitted", func() {
			e := svc.Assemble(model.EventFormSubmit, model.ActionOutboundConfirmed, collect.Payload{
				SessionID: "sess-1",
				UTMSource: "yandex",
				Form:      &collect.FormInput{Name: "Anna", Phone: "+7999"},
			}, collect.RequestMeta{IP: "203.0.113.7"})

			ok := svc.Submit(ctx, e)
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then the worker appends exactly one row", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(w.appendedCount(), convey.ShouldEqual, 1)

				row, found := w.lastAppended()
				convey.So(found, convey.ShouldBeTrue)
				convey.So(row.UTM.Source, convey.ShouldEqual, "yandex")
			})
		})
	})
}

func TestConfirmPromotesPendingClick(t *testing.T) {
	convey.Convey("Given a pending telegram click", t, func() {
		w := newRecordingWriter()
		svc := newStartedService(t, w)
		ctx := context.Background()

		e := svc.Assemble(model.EventTelegramClick, model.ActionButtonClick, collect.Payload{
			SessionID: "sess-1",
			UTMSource: "google",
		}, collect.RequestMeta{})
		e.ClickID = svc.NextClickID(ctx)
		svc.RegisterPending(ctx, e)

		convey.Convey("When the click is confirmed", func() {
			err := svc.Confirm(ctx, e.ClickID, model.MessengerTelegram)
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then the promoted event is written with the messenger set", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.appendedCount(), convey.ShouldEqual, 1)

				row, _ := w.lastAppended()
				convey.So(row.ClickID, convey.ShouldEqual, e.ClickID)
				convey.So(row.Action, convey.ShouldEqual, model.ActionOutboundConfirmed)
				convey.So(row.Messenger, convey.ShouldEqual, model.MessengerTelegram)
				convey.So(row.UTM.Source, convey.ShouldEqual, "google")
			})

			convey.Convey("And a second confirmation falls back to the sheet update", func() {
				err := svc.Confirm(ctx, e.ClickID, model.MessengerWhatsApp)
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a click was never pending", func() {
			convey.Convey("And no row exists, then the id is unknown", func() {
				err := svc.Confirm(ctx, "777777", model.MessengerTelegram)
				convey.So(errors.Is(err, api.ErrUnknownClickID), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pending click was dropped but its row exists", func() {
			w.rows["424242"] = ""
			err := svc.Confirm(ctx, "424242", model.MessengerWhatsApp)

			convey.Convey("Then the messenger cell is patched in place", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.rows["424242"], convey.ShouldEqual, model.MessengerWhatsApp)
			})
		})

		convey.Convey("When the click is never confirmed", func() {
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then no row is ever written", func() {
				convey.So(w.appendedCount(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		w := newRecordingWriter()
		svc := newStartedService(t, w)

		convey.Convey("When requesting stats", func() {
			stats := svc.GetStats()

			convey.Convey("Then the pipeline gauges are present", func() {
				convey.So(stats["started"], convey.ShouldEqual, true)
				convey.So(stats, convey.ShouldContainKey, "queueLength")
				convey.So(stats, convey.ShouldContainKey, "pendingClicks")
				convey.So(stats, convey.ShouldContainKey, "dedupeEntries")
			})
		})
	})
}

func TestDedupeRoundTrip(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		w := newRecordingWriter()
		svc := newStartedService(t, w)
		ctx := context.Background()

		convey.Convey("When recording and releasing an event id", func() {
			first := svc.SeenAndRecord(ctx, "evt-1")
			second := svc.SeenAndRecord(ctx, "evt-1")
			svc.Unrecord(ctx, "evt-1")
			third := svc.SeenAndRecord(ctx, "evt-1")

			convey.Convey("Then only the recorded id is reported as seen", func() {
				convey.So(first, convey.ShouldBeFalse)
				convey.So(second, convey.ShouldBeTrue)
				convey.So(third, convey.ShouldBeFalse)
			})
		})
	})
}
