/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package modulegraph

import "time"

// MetricsCollector abstracts metrics collection so a Builder caller can
// observe a build without changing the builder's control flow. Builder
// reports the build duration, the DFS depth and a lazy-load counter; it
// reports no parse-cache hit rate or resolver latency. Purely observational: no
// implementation of this interface affects graph-building semantics.
type MetricsCollector interface {
	IncrementCounter(name string)
	RecordDuration(name string, duration time.Duration)
	SetGauge(name string, value int64)
	AddHistogramValue(name string, value float64)
}

// noOpMetricsCollector discards everything; used when a Builder is
// constructed without a collector so call sites never need a nil check.
type noOpMetricsCollector struct{}

func (noOpMetricsCollector) IncrementCounter(name string)                {}
func (noOpMetricsCollector) RecordDuration(name string, d time.Duration) {}
func (noOpMetricsCollector) SetGauge(name string, value int64)           {}
func (noOpMetricsCollector) AddHistogramValue(name string, value float64) {
}
