package config

import "sort"

var Presets = map[string]ProblemConfig{
	"reference": {K: 0.5, Y0: 2.0, TStart: 0.0, TEnd: 1.0, H: 0.2},
	"fine":      {K: 0.5, Y0: 2.0, TStart: 0.0, TEnd: 1.0, H: 0.1},
	"coarse":    {K: 0.5, Y0: 2.0, TStart: 0.0, TEnd: 1.0, H: 0.5},
	"long":      {K: 0.5, Y0: 2.0, TStart: 0.0, TEnd: 10.0, H: 0.25},
	"growth":    {K: -0.5, Y0: 2.0, TStart: 0.0, TEnd: 1.0, H: 0.2},
	"unstable":  {K: 12.0, Y0: 2.0, TStart: 0.0, TEnd: 1.0, H: 0.2},
}

// GetPreset returns a default config using the named problem, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Problem = p
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
