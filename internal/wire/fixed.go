package wire

// Fixed is a 24.8 fixed-point number, the encoding used for surface
// coordinates that cross the wire (spec section 6).
type Fixed int32

// FromFloat64 converts a floating point coordinate to wire fixed-point.
func FromFloat64(v float64) Fixed {
	return Fixed(int32(v * 256))
}

// Float64 converts wire fixed-point back to a float64.
func (f Fixed) Float64() float64 {
	return float64(f) / 256
}
