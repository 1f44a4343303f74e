package settings

// Keys referenced from code. Reactive control groups additionally expose
// <prefix>Intensity, <prefix>BassWeight, <prefix>MidWeight and
// <prefix>HighWeight, read through reactive.ControlFromSettings.
const (
	KeyBassSensitivity = "bassSensitivity"
	KeyMidSensitivity  = "midSensitivity"
	KeyHighSensitivity = "highSensitivity"
	KeySmoothing       = "smoothing"
	KeyScene           = "scene"
	KeyParticleCount   = "particleCount"
	KeyLinkDistance    = "linkDistance"
	KeyOrbitSpeed      = "orbitSpeed"
	KeyBloomThreshold  = "bloomThreshold"
	KeyBloomRadius     = "bloomRadius"
	KeyShowStats       = "showStats"
)

// Reactive control group prefixes.
const (
	GroupSpawn      = "spawn"
	GroupTurbulence = "turbulence"
	GroupSize       = "size"
	GroupSpeed      = "speed"
	GroupBloom      = "bloom"
)

func defaultEntries() []Entry {
	entries := []Entry{
		{Key: KeyBassSensitivity, Value: 1.0, Min: 0, Max: 5, HasBounds: true, Label: "Bass Sensitivity"},
		{Key: KeyMidSensitivity, Value: 1.0, Min: 0, Max: 5, HasBounds: true, Label: "Mid Sensitivity"},
		{Key: KeyHighSensitivity, Value: 1.0, Min: 0, Max: 5, HasBounds: true, Label: "High Sensitivity"},
		{Key: KeySmoothing, Value: 0.25, Min: 0.05, Max: 0.9, HasBounds: true, Label: "Smoothing"},
		{Key: KeyScene, Value: "linked-particles", Label: "Scene", Options: []string{
			"linked-particles", "flowing-points", "point-cloud",
		}},
		{Key: KeyParticleCount, Value: 2000.0, Min: 100, Max: 10000, HasBounds: true, Label: "Particle Count"},
		{Key: KeyLinkDistance, Value: 90.0, Min: 10, Max: 200, HasBounds: true, Label: "Link Distance"},
		{Key: KeyOrbitSpeed, Value: 0.3, Min: 0, Max: 2, HasBounds: true, Label: "Orbit Speed"},
		{Key: KeyBloomThreshold, Value: 0.4, Min: 0, Max: 1, HasBounds: true, Label: "Bloom Threshold"},
		{Key: KeyBloomRadius, Value: 0.8, Min: 0, Max: 2, HasBounds: true, Label: "Bloom Radius"},
		{Key: KeyShowStats, Value: false, Label: "Show Stats"},
	}

	entries = append(entries, controlGroup(GroupSpawn, "Spawn", 60, 80, 20, 0)...)
	entries = append(entries, controlGroup(GroupTurbulence, "Turbulence", 40, 30, 60, 20)...)
	entries = append(entries, controlGroup(GroupSize, "Size", 50, 70, 10, 10)...)
	entries = append(entries, controlGroup(GroupSpeed, "Speed", 45, 40, 40, 30)...)
	entries = append(entries, controlGroup(GroupBloom, "Bloom", 45, 60, 20, 40)...)

	return entries
}

func controlGroup(prefix, label string, intensity, bassWeight, midWeight, highWeight float64) []Entry {
	return []Entry{
		{Key: prefix + "Intensity", Value: intensity, Min: 0, Max: 100, HasBounds: true, Label: label + " Intensity"},
		{Key: prefix + "BassWeight", Value: bassWeight, Min: 0, Max: 100, HasBounds: true, Label: label + " Bass Weight"},
		{Key: prefix + "MidWeight", Value: midWeight, Min: 0, Max: 100, HasBounds: true, Label: label + " Mid Weight"},
		{Key: prefix + "HighWeight", Value: highWeight, Min: 0, Max: 100, HasBounds: true, Label: label + " High Weight"},
	}
}
