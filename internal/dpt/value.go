package dpt

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a decoded datapoint.
//
// Raw holds the Go value: bool, float64, uint8, Control, Scene or RGB.
type Value struct {
	DPT  DPT    `json:"dpt"`
	Raw  any    `json:"value"`
	Unit string `json:"unit,omitempty"`
	Text string `json:"text"`
}

// String returns the display text, e.g. "21.5 °C" or "On".
func (v Value) String() string {
	return v.Text
}

// Float returns a numeric form for time-series storage. Booleans map to
// 0 and 1; structured values have no numeric form.
func (v Value) Float() (float64, bool) {
	switch raw := v.Raw.(type) {
	case bool:
		if raw {
			return 1, true
		}
		return 0, true
	case float64:
		return raw, true
	case uint8:
		return float64(raw), true
	default:
		return 0, false
	}
}

// Decode interprets payload as d.
//
// For short types (1.xxx, 3.xxx) payload is the single octet holding the
// APCI data bits; for the others it is the octets following the APCI.
//
// Returns:
//   - Value: Decoded value with display text
//   - error: ErrUnknownDPT or ErrDecodingFailed
func Decode(d DPT, payload []byte) (Value, error) {
	k, err := d.kind()
	if err != nil {
		return Value{}, err
	}

	v := Value{DPT: d}
	switch k {
	case kindBool:
		b, err := DecodeBool(payload)
		if err != nil {
			return Value{}, err
		}
		v.Raw, v.Text = b, boolText(d, b)
	case kindControl:
		c, err := DecodeControl(payload)
		if err != nil {
			return Value{}, err
		}
		v.Raw, v.Text = c, controlText(d, c)
	case kindPercent:
		p, err := DecodePercent(payload)
		if err != nil {
			return Value{}, err
		}
		v.Raw, v.Unit = p, "%"
		v.Text = formatFloat(p, 1) + " %"
	case kindAngle:
		a, err := DecodeAngle(payload)
		if err != nil {
			return Value{}, err
		}
		v.Raw, v.Unit = a, "°"
		v.Text = formatFloat(a, 1) + " °"
	case kindUnsigned:
		if err := need(payload, 1, "DPT5"); err != nil {
			return Value{}, err
		}
		v.Raw, v.Text = payload[0], strconv.Itoa(int(payload[0]))
	case kindFloat:
		f, err := DecodeFloat(payload)
		if err != nil {
			return Value{}, err
		}
		v.Raw, v.Unit = f, floatUnits[d]
		v.Text = formatFloat(f, 2)
		if v.Unit != "" {
			v.Text += " " + v.Unit
		}
	case kindScene:
		s, err := DecodeScene(payload)
		if err != nil {
			return Value{}, err
		}
		// Scenes are numbered from 1 on the user side.
		v.Raw, v.Text = s, fmt.Sprintf("scene %d", int(s)+1)
	case kindSceneControl:
		s, err := DecodeSceneControl(payload)
		if err != nil {
			return Value{}, err
		}
		v.Raw = s
		v.Text = fmt.Sprintf("recall scene %d", int(s.Number)+1)
		if s.Learn {
			v.Text = fmt.Sprintf("learn scene %d", int(s.Number)+1)
		}
	case kindRGB:
		c, err := DecodeRGB(payload)
		if err != nil {
			return Value{}, err
		}
		v.Raw, v.Text = c, fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return v, nil
}

// Encode parses text as a value of d.
//
// Accepted text per type:
//   - 1.xxx: 0, 1, true, false, on, off or the subtype labels (up, close, ...)
//   - 3.xxx: signed steps -7..7, positive increases, 0 stops
//   - 5.001, 5.003, 9.xxx: decimal number
//   - 5.xxx, 17.001: integer (scenes are 1-64)
//   - 18.001: scene number, optionally followed by ":learn"
//   - 232.600: #rrggbb
//
// Returns:
//   - []byte: Payload (one octet of APCI data bits when d.Short())
//   - error: ErrUnknownDPT or ErrEncodingFailed
func Encode(d DPT, text string) ([]byte, error) {
	k, err := d.kind()
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	fail := func(what string) error {
		return fmt.Errorf("%w: %q is not a valid %s for %s", ErrEncodingFailed, text, what, d)
	}

	switch k {
	case kindBool:
		b, ok := parseBool(d, text)
		if !ok {
			return nil, fail("boolean")
		}
		return []byte{EncodeBool(b)}, nil
	case kindControl:
		n, err := strconv.Atoi(text)
		if err != nil || n < -7 || n > 7 {
			return nil, fail("step count")
		}
		c := Control{Increase: n > 0, Steps: uint8(abs(n))} //nolint:gosec // bounded to 0-7
		return []byte{EncodeControl(c)}, nil
	case kindPercent, kindAngle:
		f, err := strconv.ParseFloat(strings.TrimRight(text, " %°"), 64)
		if err != nil {
			return nil, fail("number")
		}
		if k == kindAngle {
			return []byte{EncodeAngle(f)}, nil
		}
		return []byte{EncodePercent(f)}, nil
	case kindUnsigned:
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return nil, fail("0-255 integer")
		}
		return []byte{uint8(n)}, nil
	case kindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fail("number")
		}
		return EncodeFloat(f)
	case kindScene:
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil || n < 1 {
			return nil, fail("scene number")
		}
		b, err := EncodeScene(uint8(n - 1))
		if err != nil {
			return nil, err
		}
		return []byte{b}, nil
	case kindSceneControl:
		num, learn := strings.CutSuffix(text, ":learn")
		n, err := strconv.ParseUint(num, 10, 8)
		if err != nil || n < 1 {
			return nil, fail("scene number")
		}
		b, err := EncodeSceneControl(Scene{Number: uint8(n - 1), Learn: learn})
		if err != nil {
			return nil, err
		}
		return []byte{b}, nil
	case kindRGB:
		hexText, ok := strings.CutPrefix(text, "#")
		if !ok || len(hexText) != 6 {
			return nil, fail("#rrggbb colour")
		}
		n, err := strconv.ParseUint(hexText, 16, 32)
		if err != nil {
			return nil, fail("#rrggbb colour")
		}
		return EncodeRGB(RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDPT, string(d))
}

func boolText(d DPT, b bool) string {
	labels, ok := boolLabels[d]
	if !ok {
		labels = [2]string{"0", "1"}
	}
	if b {
		return labels[1]
	}
	return labels[0]
}

func parseBool(d DPT, text string) (bool, bool) {
	switch strings.ToLower(text) {
	case "1", "true", "on":
		return true, true
	case "0", "false", "off":
		return false, true
	}
	if labels, ok := boolLabels[d]; ok {
		switch {
		case strings.EqualFold(text, labels[1]):
			return true, true
		case strings.EqualFold(text, labels[0]):
			return false, true
		}
	}
	return false, false
}

func controlText(d DPT, c Control) string {
	if c.Steps == 0 {
		return "stop"
	}
	dir := "decrease"
	switch {
	case d == BlindControl && c.Increase:
		dir = "down"
	case d == BlindControl:
		dir = "up"
	case c.Increase:
		dir = "increase"
	}
	return fmt.Sprintf("%s %d", dir, c.Steps)
}

// formatFloat trims trailing zeros: 21.50 becomes "21.5".
func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
