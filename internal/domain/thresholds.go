package domain

// Thresholds collects every agronomic constant used by the core. The
// values are read-only after initialization; a copy is embedded in each
// Engine so fields evaluated in parallel never share mutable state.
type Thresholds struct {
	// Accumulated temperature.
	BaseTemperature    float64 // °C subtracted before clamping
	ElevationLapseRate float64 // °C per meter of elevation difference

	// Blast disease.
	BlastHighHours        float64 // wet run length for high risk
	BlastModerateHours    float64 // wet run length for moderate risk
	BlastOptimalTempMin   float64 // lower bound of infection-favorable band
	BlastOptimalTempMax   float64 // upper bound of infection-favorable band
	BlastHumidity         float64 // default humidity threshold (%)
	BlastHumidityPanicle  float64 // lowered threshold during panicle-sensitive stages
	AdvisoryLookbackDays  int     // pest-advisory recency window

	// Heat stress.
	HeatHighTemp      float64 // post-heading mean for high risk
	HeatModerateTemp  float64 // post-heading mean for moderate risk
	HeatNightHighTemp float64 // nighttime (minimum) mean that escalates moderate to high
	HeatEvalDays      int     // evaluation window after heading

	// Establishment water temperature.
	WaterTempThreshold float64 // estimated water temp below this flags risk
	EstablishmentDays  int     // days after transplant counted as establishment

	// Drain timing.
	MaturityRawAccum float64 // raw post-heading °C·d at harvest readiness
	DrainLeadDaysMin int     // drain window ends this many days before harvest
	DrainLeadDaysMax int     // drain window starts this many days before harvest
}

// DefaultThresholds returns the operational values used in production.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BaseTemperature:    10.0,
		ElevationLapseRate: 0.006,

		BlastHighHours:       10.0,
		BlastModerateHours:   6.0,
		BlastOptimalTempMin:  20.0,
		BlastOptimalTempMax:  28.0,
		BlastHumidity:        90.0,
		BlastHumidityPanicle: 85.0,
		AdvisoryLookbackDays: 14,

		HeatHighTemp:      27.0,
		HeatModerateTemp:  26.0,
		HeatNightHighTemp: 23.0,
		HeatEvalDays:      20,

		WaterTempThreshold: 15.0,
		EstablishmentDays:  10,

		MaturityRawAccum: 1000.0,
		DrainLeadDaysMin: 7,
		DrainLeadDaysMax: 10,
	}
}
