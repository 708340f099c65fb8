// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DomainReport is one reporting bucket: a primary domain and the outcomes
// of every URL that grouped under it, sorted ascending by URL.
type DomainReport struct {
	Domain string    `json:"domain" yaml:"domain"`
	URLs   []Outcome `json:"urls" yaml:"urls"`
}

// Report is the final payload delivered to the webhook: domain buckets
// sorted ascending by domain. It is built once after the batch completes
// and never mutated.
type Report []DomainReport

// Run is one recorded batch run in the history ledger.
type Run struct {
	ID         string            `json:"id" yaml:"id"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`
	DestDir    string            `json:"dest_dir" yaml:"dest_dir"`
	Backend    ConversionBackend `json:"backend" yaml:"backend"`
	Mode       RunMode           `json:"mode" yaml:"mode"`
	Succeeded  int               `json:"succeeded" yaml:"succeeded"`
	Failed     int               `json:"failed" yaml:"failed"`
	TimedOut   int               `json:"timed_out" yaml:"timed_out"`
	Notified   bool              `json:"notified" yaml:"notified"`
}
