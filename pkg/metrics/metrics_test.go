package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording event metrics", func() {
			Convey("Then it should record received and classified events", func() {
				So(func() {
					RecordEventReceived("telegram_click")
					RecordEventReceived("form_submit")
					RecordEventGenuine()
					RecordEventRejected()
					RecordEventDuplicate()
					RecordClickLinkIssued("telegram")
					RecordClickLinkIssued("whatsapp")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording sheet writer metrics", func() {
			Convey("Then it should record appends, retries and updates", func() {
				So(func() {
					RecordSheetAppend()
					RecordSheetAppendRetry()
					RecordSheetAppendError()
					RecordSheetAppendLatency(120.0)
					RecordSheetUpdate()
					RecordSheetUpdateError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording CRM forwarder metrics", func() {
			So(func() {
				RecordCRMForward()
				RecordCRMForwardError()
				RecordCRMForwardLatency(45.0)
			}, ShouldNotPanic)
		})

		Convey("When recording operational metrics", func() {
			Convey("Then it should update queue gauges", func() {
				So(func() {
					UpdateQueueSize(100)
					UpdateQueueCapacity(1000)
					UpdateQueueUtilization(0.1)
					RecordQueueEnqueue()
					RecordQueueEnqueueError()
					RecordQueueDequeue()
				}, ShouldNotPanic)
			})

			Convey("And it should update worker metrics", func() {
				So(func() {
					UpdateWorkerCount(4)
					RecordWorkerProcessingLatency(250.0)
					RecordWorkerError()
				}, ShouldNotPanic)
			})

			Convey("And it should update registry metrics", func() {
				So(func() {
					UpdatePendingClicks(12)
					RecordRegistryEviction()
					RecordRegistryPromotion()
					RecordRegistryConfirmMiss()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/events", "POST", "202")
				RecordHTTPRequestDuration("/events", "POST", "202", 10.0)
				RecordErrorByEndpoint("/events", "POST", "client_error")
				RecordErrorByComponent("queue", "capacity_exceeded")
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(1.5)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global metrics registry", t, func() {
		registry := GetRegistry()

		Convey("Then it should not be nil", func() {
			So(registry, ShouldNotBeNil)
		})

		Convey("And gathering should succeed", func() {
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeNil)
		})
	})
}
