// seehuhn.de/go/pdfmerge - a library for merging PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Values of the "result" label of pdfmerge_merges_total.
const (
	resultOK          = "ok"
	resultBadRequest  = "bad_request"
	resultUnsupported = "unsupported"
	resultNoPageTree  = "no_page_tree"
	resultError       = "error"
)

type metrics struct {
	merges    *prometheus.CounterVec
	pages     prometheus.Counter
	duration  prometheus.Histogram
	cacheHits prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfmerge_merges_total",
			Help: "Number of merge requests, by result.",
		}, []string{"result"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfmerge_pages_total",
			Help: "Number of pages in all merged documents.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdfmerge_merge_duration_seconds",
			Help:    "Time taken to merge the uploaded files.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfmerge_count_cache_hits_total",
			Help: "Number of page count requests answered from the cache.",
		}),
	}
	reg.MustRegister(
		m.merges, m.pages, m.duration, m.cacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, result := range []string{resultOK, resultBadRequest, resultUnsupported, resultError} {
		m.merges.WithLabelValues(result)
	}
	return m
}
