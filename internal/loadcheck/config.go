package loadcheck

import "time"

// Config holds configuration for a load check run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Probes     int           // Number of where-do-i-rank probes to send
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for probe results; empty skips saving
	Verbose    bool          // Log every failed probe
}

// Probe is one where-do-i-rank query built from a percentile cut point.
type Probe struct {
	Event      string  `json:"event"`
	Gender     string  `json:"gender"`
	Year       int     `json:"year"`
	Percentile float64 `json:"percentile"`
	Value      string  `json:"value"`
}

// Outcome is a probe together with the service's answer.
type Outcome struct {
	Probe        Probe  `json:"probe"`
	Status       int    `json:"status"`
	Display      string `json:"display,omitempty"`
	OverallLabel string `json:"overall_place_label,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	ProbesGenerated int
	ProbesSent      int
	ProbesOK        int
	ProbesFailed    int
	Mismatches      int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// options mirrors GET /percentiles/options.
type options struct {
	Years []int `json:"years"`
}

// table mirrors GET /percentiles.
type table struct {
	Percentiles []float64 `json:"percentiles"`
	Rows        []struct {
		Gender string   `json:"gender"`
		Event  string   `json:"event"`
		Count  int      `json:"count"`
		Values []string `json:"values"`
	} `json:"rows"`
}

// projection mirrors the fields of GET /where-do-i-rank the check reads.
type projection struct {
	Display      string `json:"display"`
	OverallLabel string `json:"overall_place_label"`
}
