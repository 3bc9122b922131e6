package entity

import "github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

const (
	PRESET_COOL    = "Cool"
	PRESET_ECO     = "eco"
	PRESET_COMFORT = "comfort"
)

var presetTable = []struct {
	preset string
	mode   xcomfort.RctMode
}{
	{PRESET_COOL, xcomfort.RctModeCool},
	{PRESET_ECO, xcomfort.RctModeEco},
	{PRESET_COMFORT, xcomfort.RctModeComfort},
}

func PresetToMode(preset string) (xcomfort.RctMode, bool) {
	for _, row := range presetTable {
		if row.preset == preset {
			return row.mode, true
		}
	}
	return 0, false
}

func ModeToPreset(mode xcomfort.RctMode) (string, bool) {
	for _, row := range presetTable {
		if row.mode == mode {
			return row.preset, true
		}
	}
	return "", false
}

func PresetModes() []string {
	presets := make([]string, 0, len(presetTable))
	for _, row := range presetTable {
		presets = append(presets, row.preset)
	}
	return presets
}
