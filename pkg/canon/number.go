package canon

import "strconv"

// Number is a canonical numeric value: either an exact integer or a
// floating point value, encoded in its shortest exact round-trip form.
// Keeping the two representations distinct avoids the classic JSON
// pitfall of an integer like 1700000000 being re-encoded as
// 1.7e+09 by a naive float-based encoder.
type Number struct {
	isInt bool
	i     int64
	f     float64
}

func Int(i int64) Value {
	return Value{kind: KindNumber, num: Number{isInt: true, i: i}}
}

func Float(f float64) Value {
	return Value{kind: KindNumber, num: Number{isInt: false, f: f}}
}

func (n Number) IsInt() bool    { return n.isInt }
func (n Number) Int() int64     { return n.i }
func (n Number) Float() float64 { return n.f }

// String renders n in its canonical textual form.
func (n Number) String() string {
	if n.isInt {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}
