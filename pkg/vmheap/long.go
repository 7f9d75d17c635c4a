package vmheap

import (
	"fmt"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/pkg/i64"
)

// 64-bit arithmetic at the host boundary. Each operand address points at a
// two-word value (low word at +0, high word at +4) and the result is
// written to out. On error out is left untouched.

func (c *Context) binary(op string, out, a, b heap.Address, fn func(x, y int64) int64) error {
	x, y, err := c.operands(op, a, b)
	if err != nil {
		return err
	}
	return c.result(op, out, fn(x, y))
}

func (c *Context) operands(op string, a, b heap.Address) (int64, int64, error) {
	x, err := c.mem.Load64(a)
	if err != nil {
		return 0, 0, fmt.Errorf("vmheap: %s lhs: %w", op, err)
	}
	y, err := c.mem.Load64(b)
	if err != nil {
		return 0, 0, fmt.Errorf("vmheap: %s rhs: %w", op, err)
	}
	return x, y, nil
}

func (c *Context) result(op string, out heap.Address, v int64) error {
	if err := c.mem.Store64(out, v); err != nil {
		return fmt.Errorf("vmheap: %s out: %w", op, err)
	}
	return nil
}

// LAdd stores *a + *b at out (wrapping).
func (c *Context) LAdd(out, a, b heap.Address) error { return c.binary("lAdd", out, a, b, i64.Add) }

// LSub stores *a - *b at out (wrapping).
func (c *Context) LSub(out, a, b heap.Address) error { return c.binary("lSub", out, a, b, i64.Sub) }

// LMul stores *a * *b at out (wrapping).
func (c *Context) LMul(out, a, b heap.Address) error { return c.binary("lMul", out, a, b, i64.Mul) }

// LDiv stores *a / *b at out, truncated toward zero.
func (c *Context) LDiv(out, a, b heap.Address) error {
	return c.checked("lDiv", out, a, b, i64.Div)
}

// LRem stores *a % *b at out.
func (c *Context) LRem(out, a, b heap.Address) error {
	return c.checked("lRem", out, a, b, i64.Rem)
}

func (c *Context) checked(op string, out, a, b heap.Address, fn func(x, y int64) (int64, error)) error {
	x, y, err := c.operands(op, a, b)
	if err != nil {
		return err
	}
	v, err := fn(x, y)
	if err != nil {
		return fmt.Errorf("vmheap: %s: %w", op, err)
	}
	return c.result(op, out, v)
}

// LCmp stores -1, 0 or 1 as a single word at out.
func (c *Context) LCmp(out, a, b heap.Address) error {
	x, y, err := c.operands("lCmp", a, b)
	if err != nil {
		return err
	}
	if err := c.mem.Store32(out, uint32(i64.Cmp(x, y))); err != nil {
		return fmt.Errorf("vmheap: lCmp out: %w", err)
	}
	return nil
}

// LNeg stores -*a at out.
func (c *Context) LNeg(out, a heap.Address) error {
	x, err := c.mem.Load64(a)
	if err != nil {
		return fmt.Errorf("vmheap: lNeg: %w", err)
	}
	return c.result("lNeg", out, i64.Neg(x))
}

func (c *Context) shift(op string, out, a heap.Address, amount int32, fn func(int64, int32) int64) error {
	x, err := c.mem.Load64(a)
	if err != nil {
		return fmt.Errorf("vmheap: %s: %w", op, err)
	}
	return c.result(op, out, fn(x, amount))
}

// LShl stores *a << (shift & 63) at out.
func (c *Context) LShl(out, a heap.Address, shift int32) error {
	return c.shift("lShl", out, a, shift, i64.Shl)
}

// LShr stores the arithmetic *a >> (shift & 63) at out.
func (c *Context) LShr(out, a heap.Address, shift int32) error {
	return c.shift("lShr", out, a, shift, i64.Shr)
}

// LUshr stores the logical *a >>> (shift & 63) at out.
func (c *Context) LUshr(out, a heap.Address, shift int32) error {
	return c.shift("lUshr", out, a, shift, i64.Ushr)
}
