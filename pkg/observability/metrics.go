package observability

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// CardMetrics counts card token lifecycle events
type CardMetrics struct {
	issued    metric.Int64Counter
	revoked   metric.Int64Counter
	refreshed metric.Int64Counter
	deleted   metric.Int64Counter
}

// NewCardMetrics registers the lifecycle counters on the global meter
// provider. Call after InitTelemetry.
func NewCardMetrics(serviceName string) (*CardMetrics, error) {
	meter := otel.Meter(serviceName)

	issued, err := meter.Int64Counter("card_tokens_issued_total",
		metric.WithDescription("Number of card tokens issued"))
	if err != nil {
		return nil, err
	}

	revoked, err := meter.Int64Counter("card_tokens_revoked_total",
		metric.WithDescription("Number of card tokens revoked"))
	if err != nil {
		return nil, err
	}

	refreshed, err := meter.Int64Counter("card_tokens_refreshed_total",
		metric.WithDescription("Number of card tokens refreshed"))
	if err != nil {
		return nil, err
	}

	deleted, err := meter.Int64Counter("card_tokens_deleted_total",
		metric.WithDescription("Number of card tokens deleted"))
	if err != nil {
		return nil, err
	}

	return &CardMetrics{
		issued:    issued,
		revoked:   revoked,
		refreshed: refreshed,
		deleted:   deleted,
	}, nil
}

func (m *CardMetrics) TokenIssued(ctx context.Context)    { m.issued.Add(ctx, 1) }
func (m *CardMetrics) TokenRevoked(ctx context.Context)   { m.revoked.Add(ctx, 1) }
func (m *CardMetrics) TokenRefreshed(ctx context.Context) { m.refreshed.Add(ctx, 1) }
func (m *CardMetrics) TokenDeleted(ctx context.Context)   { m.deleted.Add(ctx, 1) }
