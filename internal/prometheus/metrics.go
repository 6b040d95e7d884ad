package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// Contracts created through the public form
	ContractsCreatedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_contracts_created_total",
			Help: "Total number of contracts created",
		},
		[]string{"type"},
	)

	// Payment lifecycle events
	PaymentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_payments_total",
			Help: "Total number of payment events by outcome",
		},
		[]string{"outcome"}, // initiated, approved, pending, cancelled, error
	)

	// Webhook deliveries by authorisation result
	WebhookCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_webhooks_total",
			Help: "Total number of webhook calls by source and auth result",
		},
		[]string{"source", "result"},
	)

	DocumentsGeneratedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_documents_generated_total",
			Help: "Total number of documents rendered",
		},
		[]string{"format"},
	)

	CalculatorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_calculator_requests_total",
			Help: "Total number of calculator requests by calculator",
		},
		[]string{"calculator"},
	)

	BotRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_bot_requests_total",
			Help: "Total number of bot API requests by query type and status",
		},
		[]string{"type", "status"},
	)

	LeadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_leads_total",
			Help: "Total number of captured leads by source",
		},
		[]string{"source"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aoe_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)
)

// Histogram metrics
var (
	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aoe_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aoe_payphone_request_duration_seconds",
			Help:    "Duration of PayPhone API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(ContractsCreatedCounter)
	prometheus.MustRegister(PaymentCounter)
	prometheus.MustRegister(WebhookCounter)
	prometheus.MustRegister(DocumentsGeneratedCounter)
	prometheus.MustRegister(CalculatorCounter)
	prometheus.MustRegister(BotRequestCounter)
	prometheus.MustRegister(LeadCounter)
	prometheus.MustRegister(AuthErrorCounter)

	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(GatewayDuration)
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(endTime.Sub(startTime).Seconds())
	}
}

// TrackGatewayCall measures one PayPhone round trip
func TrackGatewayCall(endpoint string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		GatewayDuration.With(prometheus.Labels{
			"endpoint": endpoint,
		}).Observe(endTime.Sub(startTime).Seconds())
	}
}

// RecordPayment records a payment lifecycle event
func RecordPayment(outcome string) {
	PaymentCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordWebhook records a webhook call and how it was authorised
func RecordWebhook(source, result string) {
	WebhookCounter.With(prometheus.Labels{"source": source, "result": result}).Inc()
}

// RecordCalculator records one calculator request
func RecordCalculator(calculator string) {
	CalculatorCounter.With(prometheus.Labels{"calculator": calculator}).Inc()
}

// RecordBotRequest records one bot API request
func RecordBotRequest(queryType, status string) {
	BotRequestCounter.With(prometheus.Labels{"type": queryType, "status": status}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordLead records a captured lead
func RecordLead(source string) {
	LeadCounter.With(prometheus.Labels{"source": source}).Inc()
}

// RecordDocument records a rendered document
func RecordDocument(format string) {
	DocumentsGeneratedCounter.With(prometheus.Labels{"format": format}).Inc()
}

// RecordContractCreated records a new contract
func RecordContractCreated(contractType string) {
	ContractsCreatedCounter.With(prometheus.Labels{"type": contractType}).Inc()
}
