package service

import "github.com/prometheus/client_golang/prometheus"

const MetricsNamespace = "sslib_signer"

var (
	MetricSignTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "signatures_total",
		Help:      "Count of signature requests by client, key, status and error",
	}, []string{"client", "key", "status", "error"})

	MetricPublicKeyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "publickey_requests_total",
		Help:      "Count of public key requests by client, key and status",
	}, []string{"client", "key", "status"})
)
