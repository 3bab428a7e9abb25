// Copyright 2026 godepindex authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds the Prometheus metrics for the parsing
// pipeline, registered once on first use.
type metricsPipeline struct {
	once sync.Once

	packagesIndexed prometheus.Counter
	packagesSkipped prometheus.Counter
	packagesFailed  prometheus.Counter
	itemsExtracted  prometheus.Counter

	parseDuration prometheus.Histogram
	writeDuration prometheus.Histogram
}

var metrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.packagesIndexed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "godepindex_pipeline_packages_indexed_total", Help: "Packages successfully indexed",
		})
		m.packagesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "godepindex_pipeline_packages_skipped_total", Help: "Packages skipped because they were already indexed",
		})
		m.packagesFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "godepindex_pipeline_packages_failed_total", Help: "Packages that failed to parse entirely",
		})
		m.itemsExtracted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "godepindex_pipeline_items_extracted_total", Help: "Items extracted across all packages",
		})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "godepindex_pipeline_parse_seconds", Help: "Per-package parse duration", Buckets: buckets,
		})
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "godepindex_pipeline_write_seconds", Help: "Per-batch write duration", Buckets: buckets,
		})

		prometheus.MustRegister(
			m.packagesIndexed, m.packagesSkipped, m.packagesFailed, m.itemsExtracted,
			m.parseDuration, m.writeDuration,
		)
	})
}

func recordIndexed()         { metrics.init(); metrics.packagesIndexed.Inc() }
func recordSkipped()         { metrics.init(); metrics.packagesSkipped.Inc() }
func recordFailed()          { metrics.init(); metrics.packagesFailed.Inc() }
func recordItems(n int)      { metrics.init(); metrics.itemsExtracted.Add(float64(n)) }
func observeParse(secs float64) { metrics.init(); metrics.parseDuration.Observe(secs) }
func observeWrite(secs float64) { metrics.init(); metrics.writeDuration.Observe(secs) }
