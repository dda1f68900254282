package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_messages_handled_total",
			Help: "Messages addressed to the bot, by platform and classified intent",
		},
		[]string{"platform", "intent"},
	)

	replyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_reply_errors_total",
			Help: "Errors converted into chat replies, by kind",
		},
		[]string{"kind"},
	)

	duplicateMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_duplicate_messages_total",
			Help: "Redelivered messages that were skipped",
		},
		[]string{"platform"},
	)

	remoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventbot_humanitix_request_duration_seconds",
			Help:    "Duration of calls to the Humanitix API",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"operation", "status"},
	)

	auditPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_audit_publish_failures_total",
			Help: "Capacity change records that could not be published",
		},
		[]string{"driver"},
	)
)

func MessageHandled(platform, intent string) {
	messagesHandled.WithLabelValues(platform, intent).Inc()
}

func ReplyError(kind string) {
	replyErrors.WithLabelValues(kind).Inc()
}

func DuplicateMessage(platform string) {
	duplicateMessages.WithLabelValues(platform).Inc()
}

// RemoteRequest records one HTTP round trip; status 0 means the request
// never got a response.
func RemoteRequest(operation string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	remoteRequestDuration.WithLabelValues(operation, label).Observe(d.Seconds())
}

func AuditPublishFailure(driver string) {
	auditPublishFailures.WithLabelValues(driver).Inc()
}
