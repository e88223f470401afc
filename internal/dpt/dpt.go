package dpt

import (
	"fmt"
	"strconv"
	"strings"
)

// DPT represents a KNX Datapoint Type identifier.
//
// Format: "major.minor" (e.g., "1.001", "9.001")
type DPT string

// Common DPT identifiers used in building automation.
const (
	// 1-bit types (DPT 1.xxx)
	Switch    DPT = "1.001" // 0=Off, 1=On
	Bool      DPT = "1.002" // 0=False, 1=True
	Enable    DPT = "1.003" // 0=Disable, 1=Enable
	Step      DPT = "1.007" // 0=Decrease, 1=Increase
	UpDown    DPT = "1.008" // 0=Up, 1=Down
	OpenClose DPT = "1.009" // 0=Open, 1=Close
	Start     DPT = "1.010" // 0=Stop, 1=Start
	Trigger   DPT = "1.017" // 1=Trigger

	// 4-bit types (DPT 3.xxx)
	DimmingControl DPT = "3.007" // Direction + steps
	BlindControl   DPT = "3.008" // Direction + steps

	// 1-byte unsigned types (DPT 5.xxx)
	Percentage DPT = "5.001" // 0-100%
	Angle      DPT = "5.003" // 0-360°
	PercentU8  DPT = "5.004" // 0-255 raw

	// 2-byte float types (DPT 9.xxx)
	Temperature DPT = "9.001" // -273 to 670760 °C
	Lux         DPT = "9.004" // 0 to 670760 lux
	Speed       DPT = "9.005" // m/s
	Humidity    DPT = "9.007" // 0-100%
	AirQuality  DPT = "9.008" // ppm

	// 1-byte scene types (DPT 17/18.xxx)
	SceneNumber  DPT = "17.001" // 0-63 scene number
	SceneControl DPT = "18.001" // Scene + learn bit

	// 3-byte colour types (DPT 232.xxx)
	ColourRGB DPT = "232.600" // R, G, B
)

// boolLabels are the [false, true] words for 1-bit subtypes.
var boolLabels = map[DPT][2]string{
	Switch:    {"Off", "On"},
	Bool:      {"False", "True"},
	Enable:    {"Disable", "Enable"},
	Step:      {"Decrease", "Increase"},
	UpDown:    {"Up", "Down"},
	OpenClose: {"Open", "Close"},
	Start:     {"Stop", "Start"},
	Trigger:   {"Trigger", "Trigger"},
}

// units for 9.xxx subtypes.
var floatUnits = map[DPT]string{
	Temperature: "°C",
	Lux:         "lx",
	Speed:       "m/s",
	Humidity:    "%",
	AirQuality:  "ppm",
}

// Parse validates a "major.minor" identifier. The minor part may be
// omitted ("9" means "9.001"), and is zero-padded to three digits.
//
// Returns:
//   - DPT: Normalised identifier
//   - error: ErrUnknownDPT if the main type is not supported
func Parse(s string) (DPT, error) {
	major, minor, found := strings.Cut(strings.TrimSpace(s), ".")
	if !found {
		minor = "1"
	}
	maj, err := strconv.Atoi(major)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownDPT, s)
	}
	mnr, err := strconv.Atoi(minor)
	if err != nil || mnr < 0 || mnr > 999 {
		return "", fmt.Errorf("%w: %q", ErrUnknownDPT, s)
	}

	d := DPT(fmt.Sprintf("%d.%03d", maj, mnr))
	if _, err := d.kind(); err != nil {
		return "", err
	}
	return d, nil
}

// Major returns the main type number, or -1 if d is malformed.
func (d DPT) Major() int {
	major, _, _ := strings.Cut(string(d), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return -1
	}
	return n
}

// Short reports whether values of d fit in the six APCI data bits.
func (d DPT) Short() bool {
	m := d.Major()
	return m == 1 || m == 3
}

type kind int

const (
	kindBool kind = iota
	kindControl
	kindPercent
	kindAngle
	kindUnsigned
	kindFloat
	kindScene
	kindSceneControl
	kindRGB
)

func (d DPT) kind() (kind, error) {
	switch d.Major() {
	case 1:
		return kindBool, nil
	case 3:
		if d == DimmingControl || d == BlindControl {
			return kindControl, nil
		}
	case 5:
		switch d {
		case Percentage:
			return kindPercent, nil
		case Angle:
			return kindAngle, nil
		default:
			return kindUnsigned, nil
		}
	case 9:
		return kindFloat, nil
	case 17:
		if d == SceneNumber {
			return kindScene, nil
		}
	case 18:
		if d == SceneControl {
			return kindSceneControl, nil
		}
	case 232:
		if d == ColourRGB {
			return kindRGB, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDPT, string(d))
}
