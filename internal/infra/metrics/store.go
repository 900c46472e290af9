package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storeOperationsTotal) }

var storeOperationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "store_operations_total",
		Help: "Key-value store operations by driver, operation and result.",
	},
	[]string{"driver", "op", "result"}, // result: ok|miss|error
)

func IncStoreOp(driver, op, result string) {
	storeOperationsTotal.WithLabelValues(norm(driver), norm(op), norm(result)).Inc()
}
