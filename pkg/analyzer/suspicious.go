package analyzer

import (
	"bytes"
	"encoding/json"
)

// SuspiciousOptions holds the thresholds of the suspicious activity heuristics.
type SuspiciousOptions struct {
	// VolumeMultiplier flags IPs above this multiple of the mean per-IP count.
	VolumeMultiplier float64

	// VolumeFloor is the request count an IP must also exceed to be high volume.
	VolumeFloor int

	// MinRequestsForErrorRate is the request count an IP must exceed before its
	// error fraction is judged.
	MinRequestsForErrorRate int

	// ErrorFraction is the error share (0-1) an IP must exceed.
	ErrorFraction float64

	// MaxBots caps the potential bot list.
	MaxBots int
}

// DefaultSuspiciousOptions returns the standard thresholds.
func DefaultSuspiciousOptions() SuspiciousOptions {
	return SuspiciousOptions{
		VolumeMultiplier:        10,
		VolumeFloor:             100,
		MinRequestsForErrorRate: 10,
		ErrorFraction:           0.5,
		MaxBots:                 10,
	}
}

// IPErrorStats describes an IP with a high error fraction.
type IPErrorStats struct {
	IP            string  `json:"-"`
	ErrorCount    int     `json:"error_count"`
	TotalRequests int     `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
}

// ErrorIPs is an ordered list that marshals to an object keyed by IP.
type ErrorIPs []IPErrorStats

// MarshalJSON encodes the list as {"ip": {...}} preserving order.
func (e ErrorIPs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.IP)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SuspiciousActivity holds the informational findings of the heuristics.
type SuspiciousActivity struct {
	HighVolumeIPs Counts   `json:"high_volume_ips"`
	HighErrorIPs  ErrorIPs `json:"high_error_ips"`
	PotentialBots Counts   `json:"potential_bots"`
}

// Empty reports whether nothing was flagged.
func (s *SuspiciousActivity) Empty() bool {
	return len(s.HighVolumeIPs) == 0 && len(s.HighErrorIPs) == 0 && len(s.PotentialBots) == 0
}

// DetectSuspiciousActivity applies the volume, error-rate and bot heuristics.
// Zero fields in opts fall back to DefaultSuspiciousOptions.
func (a *Analytics) DetectSuspiciousActivity(opts SuspiciousOptions) *SuspiciousActivity {
	opts = withSuspiciousDefaults(opts)

	perIP := newTally()
	errorsPerIP := newTally()
	bots := newTally()
	for _, e := range a.entries {
		perIP.add(e.IPAddress)
		if e.IsError() {
			errorsPerIP.add(e.IPAddress)
		}
		if e.UserAgent != "" && IsBotUserAgent(e.UserAgent) {
			bots.add(e.IPAddress)
		}
	}

	result := &SuspiciousActivity{
		HighVolumeIPs: Counts{},
		HighErrorIPs:  ErrorIPs{},
		PotentialBots: bots.top(opts.MaxBots),
	}

	if len(perIP.order) > 0 {
		mean := float64(len(a.entries)) / float64(len(perIP.order))
		threshold := mean * opts.VolumeMultiplier
		for _, item := range perIP.all() {
			if float64(item.Count) > threshold && item.Count > opts.VolumeFloor {
				result.HighVolumeIPs = append(result.HighVolumeIPs, item)
			}
		}
	}

	for _, item := range errorsPerIP.all() {
		total := perIP.counts[item.Key]
		fraction := float64(item.Count) / float64(total)
		if total > opts.MinRequestsForErrorRate && fraction > opts.ErrorFraction {
			result.HighErrorIPs = append(result.HighErrorIPs, IPErrorStats{
				IP:            item.Key,
				ErrorCount:    item.Count,
				TotalRequests: total,
				ErrorRate:     fraction * 100,
			})
		}
	}

	return result
}

func withSuspiciousDefaults(opts SuspiciousOptions) SuspiciousOptions {
	def := DefaultSuspiciousOptions()
	if opts.VolumeMultiplier <= 0 {
		opts.VolumeMultiplier = def.VolumeMultiplier
	}
	if opts.VolumeFloor <= 0 {
		opts.VolumeFloor = def.VolumeFloor
	}
	if opts.MinRequestsForErrorRate <= 0 {
		opts.MinRequestsForErrorRate = def.MinRequestsForErrorRate
	}
	if opts.ErrorFraction <= 0 {
		opts.ErrorFraction = def.ErrorFraction
	}
	if opts.MaxBots <= 0 {
		opts.MaxBots = def.MaxBots
	}
	return opts
}
