package config

import "sort"

var Presets = map[string]map[string]Overrides{
	"pendulum": {
		"small": {
			U0: map[string]float64{"theta": 0.2, "omega": 0.0},
		},
		"large": {
			U0: map[string]float64{"theta": 2.5, "omega": 0.0},
		},
		"spinning": {
			U0: map[string]float64{"theta": 0.1, "omega": 8.0},
		},
		"undamped": {
			P: map[string]float64{"c": 0.0},
		},
	},
	"spring_mass": {
		"bounce": {
			U0: map[string]float64{"x": 2.0, "v": 0.0},
		},
		"fast": {
			U0: map[string]float64{"x": 1.0, "v": 5.0},
		},
		"damped": {
			P: map[string]float64{"c": 0.5},
		},
	},
	"lorenz": {
		"classic": {
			P: map[string]float64{"sigma": 10, "rho": 28, "beta": 8.0 / 3.0},
		},
		"stable": {
			P: map[string]float64{"rho": 14},
		},
	},
	"vanderpol": {
		"relaxation": {
			P: map[string]float64{"mu": 5.0},
		},
		"harmonic": {
			P: map[string]float64{"mu": 0.1},
		},
	},
	"duffing": {
		"chaotic": {
			P: map[string]float64{"gamma": 0.5, "omega": 1.2},
		},
		"unforced": {
			P: map[string]float64{"gamma": 0.0},
		},
	},
	"coupled": {
		"stiff": {
			P: map[string]float64{"kc": 50.0},
		},
		"opposed": {
			U0: map[string]float64{"left₊x": 1.0, "right₊x": -1.0},
		},
	},
	"rosenbrock": {
		"origin": {
			U0: map[string]float64{"x": 0, "y": 0},
		},
		"minimum": {
			U0: map[string]float64{"x": 1, "y": 1},
		},
	},
}

func GetPreset(model, preset string) *Overrides {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	o, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return &o
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
