package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SalesMetrics records register activity for the /metrics endpoint.
type SalesMetrics struct {
	completed *prometheus.CounterVec
	amount    *prometheus.CounterVec
	gateway   *prometheus.CounterVec
	lowStock  prometheus.Gauge
}

// NewSalesMetrics registers the sales metrics on the provided registerer.
func NewSalesMetrics(reg prometheus.Registerer) *SalesMetrics {
	if reg == nil {
		return &SalesMetrics{}
	}
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Completed sales by payment method.",
	}, []string{"method"})
	amount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_amount_total",
		Help: "Gross amount of completed sales by payment method.",
	}, []string{"method"})
	gateway := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_outcomes_total",
		Help: "Payment gateway attempt outcomes.",
	}, []string{"method", "status"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_low_stock_products",
		Help: "Products at or below their low-stock threshold.",
	})
	reg.MustRegister(completed, amount, gateway, lowStock)
	return &SalesMetrics{
		completed: completed,
		amount:    amount,
		gateway:   gateway,
		lowStock:  lowStock,
	}
}

// ObserveSale increments the completion counters for the given method.
func (m *SalesMetrics) ObserveSale(method string, amount float64) {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.WithLabelValues(normalizeLabel(method)).Inc()
	m.amount.WithLabelValues(normalizeLabel(method)).Add(amount)
}

// ObserveGateway counts one gateway attempt outcome.
func (m *SalesMetrics) ObserveGateway(method, status string) {
	if m == nil || m.gateway == nil {
		return
	}
	m.gateway.WithLabelValues(normalizeLabel(method), normalizeLabel(status)).Inc()
}

// SetLowStock updates the low-stock gauge.
func (m *SalesMetrics) SetLowStock(count int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
