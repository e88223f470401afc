package cemi

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupAddress is a destination in 3-level notation main/middle/sub.
// On the wire it is MMMMMIII SSSSSSSS: main 0-31, middle 0-7, sub 0-255.
type GroupAddress struct {
	Main   uint8
	Middle uint8
	Sub    uint8
}

// IndividualAddress identifies a physical device on the bus. The wire
// value is AAAALLLL DDDDDDDD (area, line, device).
type IndividualAddress uint16

// Address component limits.
const (
	maxMain   = 31
	maxMiddle = 7
	maxSub    = 255

	maxArea   = 15
	maxLine   = 15
	maxDevice = 255
)

var (
	groupLimits      = [3]uint64{maxMain, maxMiddle, maxSub}
	individualLimits = [3]uint64{maxArea, maxLine, maxDevice}
	groupLevelNames  = [3]string{"main", "middle", "sub"}
	deviceLevelNames = [3]string{"area", "line", "device"}
)

// parseLevels splits s into exactly three decimal parts within limits.
func parseLevels(s, sep string, limits [3]uint64, names [3]string) ([3]uint64, error) {
	var out [3]uint64
	parts := strings.Split(s, sep)
	if len(parts) != len(out) {
		return out, fmt.Errorf("%w: %q is not %s", ErrInvalidAddress, s, strings.Join(names[:], sep))
	}
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 8)
		if err != nil || v > limits[i] {
			return out, fmt.Errorf("%w: %s %q in %q must be 0-%d", ErrInvalidAddress, names[i], part, s, limits[i])
		}
		out[i] = v
	}
	return out, nil
}

// ParseGroupAddress parses "main/middle/sub", e.g. "1/2/3".
func ParseGroupAddress(s string) (GroupAddress, error) {
	v, err := parseLevels(s, "/", groupLimits, groupLevelNames)
	if err != nil {
		return GroupAddress{}, err
	}
	return GroupAddress{Main: uint8(v[0]), Middle: uint8(v[1]), Sub: uint8(v[2])}, nil //nolint:gosec // Bounded by groupLimits
}

func (ga GroupAddress) String() string {
	return strconv.Itoa(int(ga.Main)) + "/" + strconv.Itoa(int(ga.Middle)) + "/" + strconv.Itoa(int(ga.Sub))
}

// ToUint16 returns the wire value. Out-of-range parts are truncated.
func (ga GroupAddress) ToUint16() uint16 {
	return uint16(ga.Main&maxMain)<<11 | uint16(ga.Middle&maxMiddle)<<8 | uint16(ga.Sub)
}

// GroupAddressFromUint16 is the inverse of ToUint16.
func GroupAddressFromUint16(value uint16) GroupAddress {
	return GroupAddress{
		Main:   uint8(value>>11) & maxMain,
		Middle: uint8(value>>8) & maxMiddle,
		Sub:    uint8(value), //nolint:gosec // Low byte
	}
}

// IsValid reports whether every part fits the 3-level layout.
func (ga GroupAddress) IsValid() bool {
	return ga.Main <= maxMain && ga.Middle <= maxMiddle
}

// ParseIndividualAddress parses "area.line.device", e.g. "1.1.10".
func ParseIndividualAddress(s string) (IndividualAddress, error) {
	v, err := parseLevels(s, ".", individualLimits, deviceLevelNames)
	if err != nil {
		return 0, err
	}
	return IndividualAddress(v[0]<<12 | v[1]<<8 | v[2]), nil //nolint:gosec // Bounded by individualLimits
}

// Area returns the high nibble.
func (ia IndividualAddress) Area() uint8 {
	return uint8(ia >> 12) //nolint:gosec // 4 bits
}

func (ia IndividualAddress) Line() uint8 {
	return uint8(ia>>8) & maxLine //nolint:gosec // 4 bits
}

func (ia IndividualAddress) Device() uint8 {
	return uint8(ia) //nolint:gosec // Low byte
}

func (ia IndividualAddress) String() string {
	return fmt.Sprintf("%d.%d.%d", ia.Area(), ia.Line(), ia.Device())
}
