package models

// -----------------------------------------------------------------------------
// Intraday (micro) confluence
// -----------------------------------------------------------------------------

type ImpactLevel string

const (
	ImpactNone     ImpactLevel = "none"
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactExtreme  ImpactLevel = "extreme"
	ImpactVeryHigh ImpactLevel = "very_high"
	ImpactMaximum  ImpactLevel = "maximum"
)

// MMicroConfluence lists the intraday candles closing at one session offset.
type MMicroConfluence struct {
	MinutesSinceOpen int         `json:"minutes_since_open"`
	Fixed            []Timeframe `json:"fixed"`
	Fibonacci        []Timeframe `json:"fibonacci"`
	AllClosing       []Timeframe `json:"all_closing"`
	ConfluenceScore  int         `json:"confluence_score"`
	ImpactLevel      ImpactLevel `json:"impact_level"`
}

// -----------------------------------------------------------------------------
// Temporal clusters
// -----------------------------------------------------------------------------

// Intensity is ordinal: compare with < and >.
type Intensity int

const (
	IntensityQuiet Intensity = iota
	IntensityLow
	IntensityModerate
	IntensityStrong
	IntensityVeryStrong
	IntensityExplosive
)

var intensityNames = [...]string{"quiet", "low", "moderate", "strong", "very_strong", "explosive"}

func (i Intensity) String() string {
	if i < IntensityQuiet || i > IntensityExplosive {
		return "quiet"
	}
	return intensityNames[i]
}

func (i Intensity) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Intensity) UnmarshalText(b []byte) error {
	for n, name := range intensityNames {
		if name == string(b) {
			*i = Intensity(n)
			return nil
		}
	}
	*i = IntensityQuiet
	return nil
}

// MCloseCandidate is one timeframe's distance to its next close.
type MCloseCandidate struct {
	Timeframe      Timeframe `json:"timeframe"`
	MinutesToClose float64   `json:"minutes_to_close"`
	Weight         float64   `json:"weight"`
}

// MTemporalCluster groups timeframes closing within a tolerance of each other.
type MTemporalCluster struct {
	Active               bool        `json:"active"`
	CenterMinutesToClose float64     `json:"center_minutes_to_close"`
	SpanMinutes          float64     `json:"span_minutes"`
	Members              []Timeframe `json:"members"`
	Size                 int         `json:"size"`
	WeightedScore        float64     `json:"weighted_score"`
	Intensity            Intensity   `json:"intensity"`
	Score                int         `json:"score"` // 0-100 display score derived from Intensity
}

// Contains reports whether tf is a member of the cluster.
func (c MTemporalCluster) Contains(tf Timeframe) bool {
	for _, m := range c.Members {
		if m == tf {
			return true
		}
	}
	return false
}

// MClusterResult is the detector output.
type MClusterResult struct {
	MainCluster MTemporalCluster   `json:"main_cluster"`
	AllClusters []MTemporalCluster `json:"all_clusters"`
}

// -----------------------------------------------------------------------------
// Decompression windows
// -----------------------------------------------------------------------------

type WindowPhase string

const (
	WindowNotStarted WindowPhase = "not_started"
	WindowActive     WindowPhase = "active"
	WindowImminent   WindowPhase = "imminent"
)

type MDecompressionStatus struct {
	Timeframe          Timeframe   `json:"timeframe"`
	IsInWindow         bool        `json:"is_in_window"`
	MinutesToClose     float64     `json:"minutes_to_close"`
	WindowStartMinutes float64     `json:"window_start_minutes"`
	Phase              WindowPhase `json:"phase"`
}

// -----------------------------------------------------------------------------
// Macro cycles
// -----------------------------------------------------------------------------

type MMacroConfluence struct {
	DateKey         string      `json:"date_key"`
	ClosingCycles   []Timeframe `json:"closing_cycles"`
	ConfluenceScore int         `json:"confluence_score"`
	ImpactLevel     ImpactLevel `json:"impact_level"`
}

// Has reports whether tf closes on this day.
func (m MMacroConfluence) Has(tf Timeframe) bool {
	for _, c := range m.ClosingCycles {
		if c == tf {
			return true
		}
	}
	return false
}
