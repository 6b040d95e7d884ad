package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(PaymentCounter.WithLabelValues("approved"))
	RecordPayment("approved")
	assert.Equal(t, before+1, testutil.ToFloat64(PaymentCounter.WithLabelValues("approved")))

	before = testutil.ToFloat64(WebhookCounter.WithLabelValues("payphone", "invalid_secret"))
	RecordWebhook("payphone", "invalid_secret")
	assert.Equal(t, before+1, testutil.ToFloat64(WebhookCounter.WithLabelValues("payphone", "invalid_secret")))

	before = testutil.ToFloat64(BotRequestCounter.WithLabelValues("get.contact", "ok"))
	RecordBotRequest("get.contact", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(BotRequestCounter.WithLabelValues("get.contact", "ok")))
}

func TestTrackDBOperation(t *testing.T) {
	done := TrackDBOperation("test_query")
	done(time.Now())
	assert.Equal(t, 1, testutil.CollectAndCount(DBOperationDuration, "aoe_db_operation_duration_seconds"))
}
