// Package i64 implements 64-bit two's-complement arithmetic for hosts whose
// native integer width is 32 bits.
//
// All operations wrap silently on overflow, exactly like Go's int64, and shift
// amounts are always masked to their low 6 bits. The only failing operations
// are Div and Rem, which return ErrDivideByZero instead of trapping.
//
// On the host side a 64-bit value travels as two 32-bit words; Split and Join
// convert between that pair and an int64.
package i64

import "errors"

// ErrDivideByZero is returned by Div and Rem when the divisor is zero.
var ErrDivideByZero = errors.New("i64: division by zero")

// shiftMask limits shift amounts to 0..63.
const shiftMask = 63

// Add returns a + b, wrapping on overflow: Add(math.MaxInt64, 1) is math.MinInt64.
func Add(a, b int64) int64 { return a + b }

// Sub returns a - b, wrapping on overflow.
func Sub(a, b int64) int64 { return a - b }

// Mul returns the low 64 bits of a * b.
func Mul(a, b int64) int64 { return a * b }

// Neg returns -a. Neg(math.MinInt64) is math.MinInt64.
func Neg(a int64) int64 { return -a }

// Div returns a / b truncated toward zero.
// Div(math.MinInt64, -1) wraps to math.MinInt64.
func Div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

// Rem returns the remainder of a / b; the result takes the sign of a.
func Rem(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

// Shl shifts a left by amount&63.
func Shl(a int64, amount int32) int64 {
	return a << (uint32(amount) & shiftMask)
}

// Shr shifts a right by amount&63, replicating the sign bit.
func Shr(a int64, amount int32) int64 {
	return a >> (uint32(amount) & shiftMask)
}

// Ushr shifts a right by amount&63, filling with zeros.
func Ushr(a int64, amount int32) int64 {
	return int64(uint64(a) >> (uint32(amount) & shiftMask))
}

// Cmp returns -1, 0 or +1 as a is less than, equal to or greater than b.
func Cmp(a, b int64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Split returns the low and high 32-bit words of v.
func Split(v int64) (lo, hi int32) {
	return int32(uint32(v)), int32(uint64(v) >> 32)
}

// Join assembles a 64-bit value from its low and high words.
func Join(lo, hi int32) int64 {
	return int64(uint64(uint32(hi))<<32 | uint64(uint32(lo)))
}
