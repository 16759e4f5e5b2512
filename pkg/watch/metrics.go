// Copyright 2025 Tom Barlow
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

package watch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// watcherReloads tracks completed configuration reloads
	watcherReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracetag_watcher_reloads_total",
			Help: "Total configuration reloads triggered by change signals",
		},
	)

	// watcherFailures tracks watch failures by stage
	watcherFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracetag_watcher_failures_total",
			Help: "Total watch failures by stage (open, signal)",
		},
		[]string{"stage"},
	)

	// watcherActive tracks whether the watcher is currently running
	watcherActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracetag_watcher_active",
			Help: "1 while the change watcher is running, 0 otherwise",
		},
	)
)

// recordReload increments the reload counter
func recordReload() {
	watcherReloads.Inc()
}

// recordFailure increments the failure counter for a stage
func recordFailure(stage string) {
	watcherFailures.WithLabelValues(stage).Inc()
}
