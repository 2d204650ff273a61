package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "homestay"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	cartOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Cart mutations by operation.",
		},
		[]string{"op"},
	)

	cartItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_items",
			Help:      "Number of bookings currently in the cart.",
		},
	)

	cartTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_total",
			Help:      "Sum of booking totals currently in the cart.",
		},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, cartOperations, cartItems, cartTotal, checkouts)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncCartOp(op string) {
	cartOperations.WithLabelValues(op).Inc()
}

// SetCart mirrors the current cart badge and total.
func SetCart(count int, total int64) {
	cartItems.Set(float64(count))
	cartTotal.Set(float64(total))
}

// IncCheckout counts a checkout attempt; result is "success" or "failed".
func IncCheckout(result string) {
	checkouts.WithLabelValues(result).Inc()
}
