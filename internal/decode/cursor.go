package decode

import (
	"encoding/binary"
	"fmt"
)

// cursor is a bounds-checked, forward-only reader over a shared byte slice,
// scoped to [start, end). Every read advances pos and fails if it would
// cross end.
type cursor struct {
	data []byte
	pos  uint64
	end  uint64
}

func newCursor(data []byte, start, end uint64) *cursor {
	return &cursor{data: data, pos: start, end: end}
}

func (c *cursor) require(n uint64) error {
	// Compare against the remaining span rather than c.pos+n: n comes
	// straight from untrusted length fields and can be near MaxUint64,
	// which would overflow c.pos+n and wrap past the bounds check.
	if n > c.end-c.pos || n > uint64(len(c.data))-c.pos {
		return fmt.Errorf("need %d bytes at offset %d, have %d", n, c.pos, c.end-c.pos)
	}
	return nil
}

func (c *cursor) bytes(n uint64) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) skip(n uint64) error {
	_, err := c.bytes(n)
	return err
}

func (c *cursor) u32be() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) u32le() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64be() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}
