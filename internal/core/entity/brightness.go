package entity

import "math"

const (
	HOST_BRIGHTNESS_MAX = 255
	DEVICE_DIMM_MAX     = 99
)

// ToDeviceBrightness converts a host brightness (0-255) to a bridge dim value
// (0-99). Both directions round to nearest so a round trip stays within one
// step of the original value. A non-zero brightness never maps to 0, which
// the bridge treats as off.
func ToDeviceBrightness(brightness int) int {
	brightness = clamp(brightness, 0, HOST_BRIGHTNESS_MAX)
	dimmValue := int(math.Round(float64(brightness) * DEVICE_DIMM_MAX / HOST_BRIGHTNESS_MAX))
	if brightness > 0 && dimmValue == 0 {
		return 1
	}
	return dimmValue
}

// ToHostBrightness converts a bridge dim value (0-99) to host brightness (0-255).
func ToHostBrightness(dimmValue int) int {
	dimmValue = clamp(dimmValue, 0, DEVICE_DIMM_MAX)
	return int(math.Round(float64(dimmValue) * HOST_BRIGHTNESS_MAX / DEVICE_DIMM_MAX))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
