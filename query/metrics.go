/*
Copyright 2017 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package query

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/component-base/metrics"
	"k8s.io/component-base/metrics/legacyregistry"
)

var (
	apiMetric = metrics.NewHistogramVec(
		&metrics.HistogramOpts{
			Name:           "aws_query_request_duration_seconds",
			Help:           "Latency of AWS query API calls",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"request"})

	apiErrorMetric = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Name:           "aws_query_request_errors",
			Help:           "AWS query API errors",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"request"})

	apiRetriesMetric = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Name:           "aws_query_retried_requests_total",
			Help:           "AWS query API requests retried after a 500/503 response",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"operation_name"})
)

func recordMetric(operation string, timeTaken float64, err error) {
	registerMetrics()
	if err != nil {
		apiErrorMetric.With(prometheus.Labels{"request": operation}).Inc()
	} else {
		apiMetric.With(prometheus.Labels{"request": operation}).Observe(timeTaken)
	}
}

func recordRetryMetric(operation string) {
	registerMetrics()
	apiRetriesMetric.With(prometheus.Labels{"operation_name": operation}).Inc()
}

var registerOnce sync.Once

func registerMetrics() {
	registerOnce.Do(func() {
		legacyregistry.MustRegister(apiMetric)
		legacyregistry.MustRegister(apiErrorMetric)
		legacyregistry.MustRegister(apiRetriesMetric)
	})
}
