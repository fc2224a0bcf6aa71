package phy

// Reserved bytes on the wire.
const (
	Terminator byte = 0x7e
	Escape     byte = 0x7d
)

// NeedsEscape tells if b must be prefixed by Escape inside a payload.
func NeedsEscape(b byte) bool {
	return b == Terminator || b == Escape
}

// Stuff returns the bytes sent on the wire for payload: every reserved
// byte is prefixed by Escape and the result ends with Terminator.
func Stuff(payload []byte) []byte {
	wire := make([]byte, 0, len(payload)+1)
	for _, b := range payload {
		if NeedsEscape(b) {
			wire = append(wire, Escape)
		}
		wire = append(wire, b)
	}
	return append(wire, Terminator)
}

// Unstuffer reverses Stuff one wire byte at a time.
type Unstuffer struct {
	payload []byte
	escaped bool
}

// Feed consumes one wire byte and reports whether it ended the frame.
// An escaped byte is always kept literally.
func (u *Unstuffer) Feed(b byte) bool {
	if u.escaped {
		u.escaped = false
		u.payload = append(u.payload, b)
		return false
	}
	switch b {
	case Escape:
		u.escaped = true
	case Terminator:
		return true
	default:
		u.payload = append(u.payload, b)
	}
	return false
}

// Escaped tells if the next byte will be taken literally.
func (u *Unstuffer) Escaped() bool {
	return u.escaped
}

// Payload returns the bytes collected so far.
func (u *Unstuffer) Payload() []byte {
	return u.payload
}

// Reset drops collected bytes.
func (u *Unstuffer) Reset() {
	u.payload, u.escaped = nil, false
}

// Unstuff decodes the first frame in wire. It returns the payload and the
// number of wire bytes consumed including the terminator, or ok == false
// if wire holds no complete frame.
func Unstuff(wire []byte) (payload []byte, n int, ok bool) {
	var u Unstuffer
	for n < len(wire) {
		b := wire[n]
		n++
		if u.Feed(b) {
			if payload = u.Payload(); payload == nil {
				payload = []byte{}
			}
			return payload, n, true
		}
	}
	return nil, n, false
}

// Bits returns the bits of b, most significant first.
func Bits(b byte) (bits [8]bool) {
	for n := range bits {
		bits[n] = b&0x80 != 0
		b <<= 1
	}
	return
}

// BitFromVoltage interprets a sampled voltage.
func BitFromVoltage(v float64) bool {
	return v > 0
}
