// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cv

import (
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const LabelAlgorithm = "algorithm"

// Metrics of cross validation, kept in a private registry so that concurrent
// validations never collide.
type Metrics struct {
	registry   *prometheus.Registry
	Accuracy   *prometheus.GaugeVec
	FitSeconds *prometheus.HistogramVec
	Failures   *prometheus.CounterVec
	Runs       prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "msd",
			Subsystem: "cv",
			Name:      "accuracy",
			Help:      "Mean accuracy of recommenders over completed runs.",
		}, []string{LabelAlgorithm}),
		FitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "msd",
			Subsystem: "cv",
			Name:      "fit_seconds",
			Help:      "Time spent fitting and recommending in a run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{LabelAlgorithm}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msd",
			Subsystem: "cv",
			Name:      "failures_total",
			Help:      "Number of failed recommenders.",
		}, []string{LabelAlgorithm}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "msd",
			Subsystem: "cv",
			Name:      "runs_total",
			Help:      "Number of completed runs.",
		}),
	}
	m.registry.MustRegister(m.Accuracy, m.FitSeconds, m.Failures, m.Runs)
	return m
}

// WriteToTextfile writes metrics in the text exposition format.
func (m *Metrics) WriteToTextfile(path string) error {
	return errors.Trace(prometheus.WriteToTextfile(path, m.registry))
}
