// Package phy simulates a physical serial link.
//
// Devices attach to a shared Medium and assert voltages on it. The Medium
// adds up the voltages of all attached devices, so every device reads the
// same aggregate voltage.
//
// An Endpoint transmits a Frame as a sequence of pulses, one pulse width
// each. Every byte is preceded by a low gap of 4 pulses and a single high
// start pulse, followed by 8 data bits, most significant bit first, high
// for 1 and low for 0. Payload bytes equal to Terminator or Escape are
// prefixed by Escape, and an unescaped Terminator ends the frame.
//
// The receiving side samples the aggregate voltage once per pulse width.
// There is no collision detection: only one device may transmit at a time.
package phy
