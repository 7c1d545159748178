/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

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

package netflow

import "github.com/prometheus/client_golang/prometheus"

// Decoder-wide metrics, registered globally so that multiple Decoder
// instances in the same process aggregate into one set of series.
var (
	PacketsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_decoder_decoded_packets_total",
		Help: "Total number of decoded packets in decoder, by protocol version",
	}, []string{"version"})
	ErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_decoder_errors_total",
		Help: "Total number of decode errors, by error kind",
	}, []string{"kind"})
	DurationMicroseconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netflow_decoder_duration_microseconds",
		Help:    "Duration of decoding a single packet in microseconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	DecodedFlowSets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_decoder_decoded_flowsets_total",
		Help: "Total number of decoded data flowsets (kind=data); template and options-template flowsets are not counted",
	}, []string{"kind"})
	DecodedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_decoder_decoded_records_total",
		Help: "Total number of decoded data records, by protocol version (kind label)",
	}, []string{"kind"})
)

// Template store metrics, one series set per store name (== scope key rendered to string).
var (
	TemplateHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_template_store_hits_total",
		Help: "Total number of successful template lookups",
	}, []string{"store"})
	TemplateMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_template_store_misses_total",
		Help: "Total number of template lookups for an id not currently cached",
	}, []string{"store"})
	TemplateInsertions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_template_store_insertions_total",
		Help: "Total number of templates inserted (including refreshes and collisions)",
	}, []string{"store"})
	TemplateRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_template_store_refreshes_total",
		Help: "Total number of templates re-inserted with an identical field list",
	}, []string{"store"})
	TemplateCollisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_template_store_collisions_total",
		Help: "Total number of templates re-inserted with a different field list than previously cached",
	}, []string{"store"})
	TemplateEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_template_store_evictions_total",
		Help: "Total number of templates evicted by LRU capacity pressure",
	}, []string{"store"})
	TemplateExpirations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_template_store_expirations_total",
		Help: "Total number of templates expired by TTL",
	}, []string{"store"})
)

// UDP collector metrics, used by the cmd/collector demo.
var (
	UDPPacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netflow_udp_listener_packets_total",
		Help: "Total number of packets received via UDP listener",
	})
	UDPErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netflow_udp_listener_errors_total",
		Help: "Total number of errors encountered in the UDP listener",
	})
	UDPPacketBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netflow_udp_listener_packet_bytes",
		Help: "Total number of bytes read in the UDP listener",
	})
)
