package dpt

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		dpt     DPT
		payload []byte
		want    Value
	}{
		{name: "switch on", dpt: Switch, payload: []byte{0x01}, want: Value{DPT: Switch, Raw: true, Text: "On"}},
		{name: "up/down", dpt: UpDown, payload: []byte{0x00}, want: Value{DPT: UpDown, Raw: false, Text: "Up"}},
		{name: "generic 1-bit", dpt: "1.099", payload: []byte{0x01}, want: Value{DPT: "1.099", Raw: true, Text: "1"}},
		{name: "dimming", dpt: DimmingControl, payload: []byte{0x0B}, want: Value{DPT: DimmingControl, Raw: Control{Increase: true, Steps: 3}, Text: "increase 3"}},
		{name: "blind stop", dpt: BlindControl, payload: []byte{0x08}, want: Value{DPT: BlindControl, Raw: Control{Increase: true}, Text: "stop"}},
		{name: "blind up", dpt: BlindControl, payload: []byte{0x01}, want: Value{DPT: BlindControl, Raw: Control{Steps: 1}, Text: "up 1"}},
		{name: "percent", dpt: Percentage, payload: []byte{0xFF}, want: Value{DPT: Percentage, Raw: 100.0, Unit: "%", Text: "100 %"}},
		{name: "angle", dpt: Angle, payload: []byte{0x80}, want: Value{DPT: Angle, Raw: 128.0 * 360 / 255, Unit: "°", Text: "180.7 °"}},
		{name: "counter", dpt: PercentU8, payload: []byte{0x2A}, want: Value{DPT: PercentU8, Raw: uint8(42), Text: "42"}},
		{name: "temperature", dpt: Temperature, payload: []byte{0x0C, 0x33}, want: Value{DPT: Temperature, Raw: 21.5, Unit: "°C", Text: "21.5 °C"}},
		{name: "generic float", dpt: "9.020", payload: []byte{0x0C, 0x1A}, want: Value{DPT: "9.020", Raw: 21.0, Text: "21"}},
		{name: "scene", dpt: SceneNumber, payload: []byte{0x00}, want: Value{DPT: SceneNumber, Raw: uint8(0), Text: "scene 1"}},
		{name: "scene learn", dpt: SceneControl, payload: []byte{0x84}, want: Value{DPT: SceneControl, Raw: Scene{Number: 4, Learn: true}, Text: "learn scene 5"}},
		{name: "colour", dpt: ColourRGB, payload: []byte{0xFF, 0x80, 0x00}, want: Value{DPT: ColourRGB, Raw: RGB{R: 0xFF, G: 0x80}, Text: "#ff8000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.dpt, tt.payload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode("14.056", []byte{0, 0, 0, 0}); !errors.Is(err, ErrUnknownDPT) {
		t.Errorf("unknown DPT error = %v, want ErrUnknownDPT", err)
	}
	if _, err := Decode(Temperature, []byte{0x0C}); !errors.Is(err, ErrDecodingFailed) {
		t.Errorf("short payload error = %v, want ErrDecodingFailed", err)
	}
	if _, err := Decode(PercentU8, nil); !errors.Is(err, ErrDecodingFailed) {
		t.Errorf("empty payload error = %v, want ErrDecodingFailed", err)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		dpt  DPT
		text string
		want []byte
	}{
		{name: "switch on", dpt: Switch, text: "on", want: []byte{0x01}},
		{name: "switch label", dpt: Switch, text: "Off", want: []byte{0x00}},
		{name: "open/close label", dpt: OpenClose, text: "close", want: []byte{0x01}},
		{name: "dim up", dpt: DimmingControl, text: "3", want: []byte{0x0B}},
		{name: "dim down", dpt: DimmingControl, text: "-7", want: []byte{0x07}},
		{name: "percent", dpt: Percentage, text: "50 %", want: []byte{0x80}},
		{name: "angle", dpt: Angle, text: "360", want: []byte{0xFF}},
		{name: "counter", dpt: PercentU8, text: "42", want: []byte{0x2A}},
		{name: "temperature", dpt: Temperature, text: "21.5", want: []byte{0x0C, 0x33}},
		{name: "scene", dpt: SceneNumber, text: "1", want: []byte{0x00}},
		{name: "scene learn", dpt: SceneControl, text: "5:learn", want: []byte{0x84}},
		{name: "scene recall", dpt: SceneControl, text: "64", want: []byte{0x3F}},
		{name: "colour", dpt: ColourRGB, text: "#ff8000", want: []byte{0xFF, 0x80, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.dpt, tt.text)
			if err != nil {
				t.Fatalf("Encode(%q) error = %v", tt.text, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Encode(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name string
		dpt  DPT
		text string
	}{
		{name: "switch word", dpt: Switch, text: "maybe"},
		{name: "dim range", dpt: DimmingControl, text: "8"},
		{name: "percent text", dpt: Percentage, text: "half"},
		{name: "counter range", dpt: PercentU8, text: "256"},
		{name: "temperature range", dpt: Temperature, text: "1e9"},
		{name: "scene zero", dpt: SceneNumber, text: "0"},
		{name: "scene range", dpt: SceneNumber, text: "65"},
		{name: "colour format", dpt: ColourRGB, text: "ff8000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Encode(tt.dpt, tt.text); !errors.Is(err, ErrEncodingFailed) {
				t.Errorf("Encode(%q) error = %v, want ErrEncodingFailed", tt.text, err)
			}
		})
	}
	if _, err := Encode("14.056", "1"); !errors.Is(err, ErrUnknownDPT) {
		t.Errorf("unknown DPT error = %v, want ErrUnknownDPT", err)
	}
}

func TestValueFloat(t *testing.T) {
	tests := []struct {
		in     Value
		want   float64
		wantOK bool
	}{
		{in: Value{Raw: true}, want: 1, wantOK: true},
		{in: Value{Raw: false}, want: 0, wantOK: true},
		{in: Value{Raw: 21.5}, want: 21.5, wantOK: true},
		{in: Value{Raw: uint8(7)}, want: 7, wantOK: true},
		{in: Value{Raw: RGB{}}, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := tt.in.Float()
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Float(%v) = %v, %v, want %v, %v", tt.in.Raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
