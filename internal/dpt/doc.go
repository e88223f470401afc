// Package dpt decodes and encodes KNX datapoint type (DPT) values carried in
// group telegrams.
//
// A group telegram does not say which DPT its payload uses; that is a
// property of the group address agreed at commissioning time. A Registry
// maps group addresses to DPTs so a monitor can render "21.5 °C" instead of
// "0c1a".
//
// Supported main types:
//
//	1.xxx    1-bit boolean (switch, up/down, open/close, ...)
//	3.007    dimming control (direction + steps)
//	3.008    blind control (direction + steps)
//	5.001    percentage 0-100 %
//	5.003    angle 0-360 °
//	5.xxx    unsigned 8-bit count
//	9.xxx    2-byte float (temperature, lux, humidity, ...)
//	17.001   scene number
//	18.001   scene control (scene + learn)
//	232.600  RGB colour
//
// Short APDU types (1.xxx and 3.xxx) fit into the six data bits of the APCI
// octet; the payload passed to Decode is then a single octet holding those
// bits.
package dpt
