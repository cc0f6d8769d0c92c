package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// RefundTotal counts refund computation outcomes.
	RefundTotal *prometheus.CounterVec
	// TaxRecalcTotal counts line-tax recalculation outcomes.
	TaxRecalcTotal *prometheus.CounterVec
	// SumMismatchTotal counts detected money-sum invariant violations.
	// Any increment here indicates a bug, not load.
	SumMismatchTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors. Passing a nil registerer uses the default one.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RefundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refund_total",
			Help:      "Count of refund computation outcomes.",
		}, []string{"result"})
		TaxRecalcTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_recalc_total",
			Help:      "Count of line tax recalculation outcomes.",
		}, []string{"result"})
		SumMismatchTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sum_mismatch_total",
			Help:      "Count of money component sums that failed invariant validation.",
		})
		reg.MustRegister(RefundTotal, TaxRecalcTotal, SumMismatchTotal)
	})
}

// IncRefund records a refund outcome if metrics are registered.
func IncRefund(result string) {
	if RefundTotal != nil {
		RefundTotal.WithLabelValues(result).Inc()
	}
}

// IncTaxRecalc records a tax recalculation outcome if metrics are registered.
func IncTaxRecalc(result string) {
	if TaxRecalcTotal != nil {
		TaxRecalcTotal.WithLabelValues(result).Inc()
	}
}

// IncSumMismatch records an invariant violation if metrics are registered.
func IncSumMismatch() {
	if SumMismatchTotal != nil {
		SumMismatchTotal.Inc()
	}
}
