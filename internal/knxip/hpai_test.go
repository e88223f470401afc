package knxip

import (
	"errors"
	"net/netip"
	"testing"
)

func TestDecodeHPAI(t *testing.T) {
	data := []byte{0x08, 0x01, 0xC0, 0xA8, 0x2A, 0x01, 0x84, 0x95}

	got, n, err := DecodeHPAI(data)
	if err != nil {
		t.Fatalf("DecodeHPAI() unexpected error: %v", err)
	}
	if n != hpaiLength {
		t.Errorf("DecodeHPAI() consumed %d bytes, want %d", n, hpaiLength)
	}

	want := HPAI{IP: netip.MustParseAddr("192.168.42.1"), Port: 33941}
	if got != want {
		t.Errorf("DecodeHPAI() = %v, want %v", got, want)
	}

	encoded, err := got.AppendKNX(nil)
	if err != nil {
		t.Fatalf("AppendKNX() unexpected error: %v", err)
	}
	if string(encoded) != string(data) {
		t.Errorf("AppendKNX() = %X, want %X", encoded, data)
	}
}

func TestDecodeHPAIErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "seven bytes", data: []byte{0x08, 0x01, 0xC0, 0xA8, 0x2A, 0x01, 0x84}},
		{name: "wrong length byte", data: []byte{0x07, 0x01, 0xC0, 0xA8, 0x2A, 0x01, 0x84, 0x95}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeHPAI(tt.data); !errors.Is(err, ErrMalformedBody) {
				t.Errorf("DecodeHPAI() error = %v, want ErrMalformedBody", err)
			}
		})
	}
}

func TestHPAIAppendRejectsIPv6(t *testing.T) {
	h := HPAI{IP: netip.MustParseAddr("fe80::1"), Port: 3671}
	if _, err := h.AppendKNX(nil); !errors.Is(err, ErrInvalidField) {
		t.Errorf("AppendKNX() error = %v, want ErrInvalidField", err)
	}

	if _, err := (HPAI{}).AppendKNX(nil); !errors.Is(err, ErrInvalidField) {
		t.Errorf("AppendKNX() on zero HPAI error = %v, want ErrInvalidField", err)
	}
}

func TestParseHPAI(t *testing.T) {
	tests := []struct {
		input   string
		want    HPAI
		wantErr bool
	}{
		{input: "192.168.42.1:3671", want: HPAI{IP: netip.MustParseAddr("192.168.42.1"), Port: 3671}},
		{input: "0.0.0.0:0", want: RouteBack},
		{input: "[fe80::1]:3671", wantErr: true},
		{input: "192.168.42.1", wantErr: true},
		{input: "not-an-address:1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHPAI(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidField) {
					t.Errorf("ParseHPAI(%q) error = %v, want ErrInvalidField", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHPAI(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHPAI(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}
