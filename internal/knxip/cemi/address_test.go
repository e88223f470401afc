package cemi

import (
	"errors"
	"testing"
)

func TestParseGroupAddress(t *testing.T) {
	tests := []struct {
		input   string
		want    GroupAddress
		wantErr bool
	}{
		{input: "1/2/3", want: GroupAddress{Main: 1, Middle: 2, Sub: 3}},
		{input: "31/7/255", want: GroupAddress{Main: 31, Middle: 7, Sub: 255}},
		{input: "0/0/0", want: GroupAddress{}},
		{input: "32/0/0", wantErr: true},
		{input: "0/8/0", wantErr: true},
		{input: "0/0/256", wantErr: true},
		{input: "1/2", wantErr: true},
		{input: "a/b/c", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGroupAddress(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("ParseGroupAddress(%q) error = %v, want ErrInvalidAddress", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGroupAddress(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseGroupAddress(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestGroupAddressUint16(t *testing.T) {
	tests := []struct {
		ga   GroupAddress
		want uint16
	}{
		{ga: GroupAddress{Main: 1, Middle: 2, Sub: 3}, want: 0x0A03},
		{ga: GroupAddress{Main: 5, Middle: 0, Sub: 1}, want: 0x2801},
		{ga: GroupAddress{Main: 31, Middle: 7, Sub: 255}, want: 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.ga.String(), func(t *testing.T) {
			if got := tt.ga.ToUint16(); got != tt.want {
				t.Errorf("ToUint16() = %#04x, want %#04x", got, tt.want)
			}
			if got := GroupAddressFromUint16(tt.want); got != tt.ga {
				t.Errorf("GroupAddressFromUint16(%#04x) = %v, want %v", tt.want, got, tt.ga)
			}
		})
	}
}

func TestIndividualAddress(t *testing.T) {
	tests := []struct {
		input   string
		want    IndividualAddress
		wantErr bool
	}{
		{input: "1.1.1", want: 0x1101},
		{input: "15.15.255", want: 0xFFFF},
		{input: "0.0.0", want: 0},
		{input: "16.0.0", wantErr: true},
		{input: "1.16.0", wantErr: true},
		{input: "1.1.256", wantErr: true},
		{input: "1.1", wantErr: true},
		{input: "1/1/1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIndividualAddress(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("ParseIndividualAddress(%q) error = %v, want ErrInvalidAddress", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIndividualAddress(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseIndividualAddress(%q) = %#04x, want %#04x", tt.input, uint16(got), uint16(tt.want))
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}
