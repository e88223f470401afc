package dpt

import (
	"fmt"
	"math"
)

// Encoding constants.
const (
	// unsignedMax is the maximum raw value for DPT5 (1-byte unsigned).
	unsignedMax = 255

	// angleMax is the maximum angle in degrees for DPT5.003.
	angleMax = 360

	// floatMaxExponent is the maximum exponent for DPT9 2-byte float.
	floatMaxExponent = 15

	// floatMantissaMask is the mask for extracting mantissa from DPT9.
	floatMantissaMask = 0x07FF

	// floatInvalid is the "invalid data" sentinel for all DPT 9.xxx types.
	floatInvalid = 0x7FFF

	// sceneMax is the maximum scene number for DPT17/18.
	sceneMax = 63

	// sceneMask is the mask for extracting scene number.
	sceneMask = 0x3F

	// rgbBytes is the number of bytes for DPT232 RGB colour.
	rgbBytes = 3
)

// Control is a DPT 3.007/3.008 relative control value. Steps 0 means stop.
type Control struct {
	Increase bool  `json:"increase"`
	Steps    uint8 `json:"steps"`
}

// Scene is a DPT 18.001 scene control value.
type Scene struct {
	Number uint8 `json:"number"`
	Learn  bool  `json:"learn"`
}

// RGB represents an RGB colour value.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func need(data []byte, n int, name string) error {
	if len(data) < n {
		return fmt.Errorf("%w: %s requires %d byte(s), got %d", ErrDecodingFailed, name, n, len(data))
	}
	return nil
}

// EncodeBool encodes a 1-bit value.
func EncodeBool(value bool) byte {
	if value {
		return 0x01
	}
	return 0x00
}

// DecodeBool decodes a 1-bit value. Only bit 0 is significant.
func DecodeBool(data []byte) (bool, error) {
	if err := need(data, 1, "DPT1"); err != nil {
		return false, err
	}
	return (data[0] & 0x01) != 0, nil
}

// EncodeControl encodes a dimming/blind control value. Steps above 7 are
// masked.
func EncodeControl(c Control) byte {
	var value byte
	if c.Increase {
		value = 0x08 // Bit 3 = direction (1=increase)
	}
	return value | (c.Steps & 0x07)
}

// DecodeControl decodes a dimming/blind control value.
func DecodeControl(data []byte) (Control, error) {
	if err := need(data, 1, "DPT3"); err != nil {
		return Control{}, err
	}
	return Control{Increase: (data[0] & 0x08) != 0, Steps: data[0] & 0x07}, nil
}

// EncodePercent scales 0-100 % to 0-255. Out of range values are clamped.
func EncodePercent(percent float64) byte {
	percent = max(0, min(100, percent))
	return uint8(math.Round(percent * unsignedMax / 100))
}

// DecodePercent scales 0-255 to 0-100 %.
func DecodePercent(data []byte) (float64, error) {
	if err := need(data, 1, "DPT5"); err != nil {
		return 0, err
	}
	return float64(data[0]) * 100 / unsignedMax, nil
}

// EncodeAngle scales 0-360 ° to 0-255. Out of range values are clamped.
func EncodeAngle(angle float64) byte {
	angle = max(0, min(angleMax, angle))
	return uint8(math.Round(angle * unsignedMax / angleMax))
}

// DecodeAngle scales 0-255 to 0-360 °.
func DecodeAngle(data []byte) (float64, error) {
	if err := need(data, 1, "DPT5 angle"); err != nil {
		return 0, err
	}
	return float64(data[0]) * angleMax / unsignedMax, nil
}

// EncodeFloat encodes a 2-byte KNX floating point value.
//
// KNX 2-byte float format:
//
//	Byte 0: SEEE EMMM (Sign, Exponent, Mantissa high)
//	Byte 1: MMMM MMMM (Mantissa low)
//
// Value = (0.01 × Mantissa) × 2^Exponent, with the mantissa in two's
// complement.
//
// Returns:
//   - []byte: Two bytes in KNX format
//   - error: ErrEncodingFailed if value is out of range
func EncodeFloat(value float64) ([]byte, error) {
	if math.IsNaN(value) || value < -671088.64 || value > 670760.96 {
		return nil, fmt.Errorf("%w: DPT9 value out of range: %.2f (valid: -671088.64 to 670760.96)", ErrEncodingFailed, value)
	}

	mantissa := math.Round(value * 100)
	exp := 0
	for mantissa < -2048 || mantissa > 2047 {
		mantissa = math.Round(mantissa / 2)
		exp++
	}
	if exp > floatMaxExponent {
		return nil, fmt.Errorf("%w: DPT9 exponent overflow for value %.2f", ErrEncodingFailed, value)
	}

	m := int16(mantissa)
	var sign uint16
	if m < 0 {
		sign = 0x8000
	}
	encoded := sign | uint16(exp)<<11 | uint16(m)&floatMantissaMask //nolint:gosec // exp bounded, mantissa 12-bit two's complement
	return []byte{byte(encoded >> 8), byte(encoded)}, nil
}

// DecodeFloat decodes a 2-byte KNX floating point value.
//
// Returns:
//   - float64: Decoded value
//   - error: ErrDecodingFailed if data is short or holds the 0x7FFF
//     invalid-data sentinel
func DecodeFloat(data []byte) (float64, error) {
	if err := need(data, 2, "DPT9"); err != nil {
		return 0, err
	}

	raw := uint16(data[0])<<8 | uint16(data[1])
	if raw == floatInvalid {
		return 0, fmt.Errorf("%w: DPT9 invalid value 0x7FFF (sensor error or not available)", ErrDecodingFailed)
	}

	exp := (raw >> 11) & 0x0F
	mantissa := int16(raw & floatMantissaMask) //nolint:gosec // 11-bit value fits in int16
	if raw&0x8000 != 0 {
		mantissa |= -0x800 // Sign extend (0xF800 as int16 = -2048)
	}

	value := float64(mantissa) * 0.01 * math.Pow(2, float64(exp))
	return math.Round(value*100) / 100, nil
}

// EncodeScene encodes a scene number (0-63).
func EncodeScene(scene uint8) (byte, error) {
	if scene > sceneMax {
		return 0, fmt.Errorf("%w: DPT17 scene must be 0-%d, got %d", ErrEncodingFailed, sceneMax, scene)
	}
	return scene & sceneMask, nil
}

// DecodeScene decodes a scene number.
func DecodeScene(data []byte) (uint8, error) {
	if err := need(data, 1, "DPT17"); err != nil {
		return 0, err
	}
	return data[0] & sceneMask, nil
}

// EncodeSceneControl encodes a scene recall (Learn false) or store.
func EncodeSceneControl(s Scene) (byte, error) {
	if s.Number > sceneMax {
		return 0, fmt.Errorf("%w: DPT18 scene must be 0-%d, got %d", ErrEncodingFailed, sceneMax, s.Number)
	}
	value := s.Number & sceneMask
	if s.Learn {
		value |= 0x80
	}
	return value, nil
}

// DecodeSceneControl decodes a scene control value.
func DecodeSceneControl(data []byte) (Scene, error) {
	if err := need(data, 1, "DPT18"); err != nil {
		return Scene{}, err
	}
	return Scene{Number: data[0] & sceneMask, Learn: (data[0] & 0x80) != 0}, nil
}

// EncodeRGB encodes an RGB colour to 3 bytes.
func EncodeRGB(rgb RGB) []byte {
	return []byte{rgb.R, rgb.G, rgb.B}
}

// DecodeRGB decodes a 3-byte RGB colour value.
func DecodeRGB(data []byte) (RGB, error) {
	if err := need(data, rgbBytes, "DPT232"); err != nil {
		return RGB{}, err
	}
	return RGB{R: data[0], G: data[1], B: data[2]}, nil
}
