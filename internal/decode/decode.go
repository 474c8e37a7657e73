// Package decode walks a CHNKExta chunk's sub-block sequence and
// reassembles the concatenated raw tile bytes for one layer's external-data
// payload.
package decode

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"

	log "github.com/rs/zerolog/log"

	"github.com/rkuga/clipraster/internal/envelope"
	"github.com/rkuga/clipraster/internal/errs"
)

// blStatusSentinel is 0x0042006C, the UTF-16BE encoding of "Bl". Seeing it
// in the second framing word means the two words are actually the first
// four bytes of a name-only sub-block, not a (data_len, name_len) pair.
const blStatusSentinel = 0x0042006C

// maxNameLen guards against runaway reads from a corrupt or unrecognized
// sub-block name length.
const maxNameLen = 256

// ExternalID reads the leading identifier string out of a CHNKExta chunk.
func ExternalID(data []byte, chunk envelope.Chunk) (string, error) {
	r := newCursor(data, chunk.Start+16, chunk.End)

	idLen, err := r.u64be()
	if err != nil {
		return "", fmt.Errorf("%w: reading identifier length: %v", errs.ErrTruncatedChunk, err)
	}

	idBytes, err := r.bytes(idLen)
	if err != nil {
		return "", fmt.Errorf("%w: reading identifier: %v", errs.ErrTruncatedChunk, err)
	}

	return string(idBytes), nil
}

// Find locates the CHNKExta chunk whose leading identifier matches id. The
// first match, in chunk-table order, wins.
func Find(env *envelope.Envelope, id string) (envelope.Chunk, bool, error) {
	for _, chunk := range env.ExternalChunks() {
		got, err := ExternalID(env.Data, chunk)
		if err != nil {
			return envelope.Chunk{}, false, err
		}
		if got == id {
			return chunk, true, nil
		}
	}
	return envelope.Chunk{}, false, nil
}

// Result is the product of walking one CHNKExta chunk's sub-blocks.
type Result struct {
	// Raw is the concatenated raw pixel bytes, in tile encounter order.
	Raw []byte
	// Checksums holds the six raw u32 fields of every BlockCheckSum
	// sub-block encountered, opaque and unverified, in encounter order.
	// Nothing currently validates them; they are kept so a verifier can be
	// added later without re-walking the chunk.
	Checksums [][6]uint32
}

// Decode walks the named sub-blocks of a CHNKExta chunk and returns the
// concatenated raw pixel bytes, in the order the tile blocks were
// encountered. Block-length and decompressed-size mismatches are logged,
// not returned as errors: decoding proceeds on a best-effort basis to match
// observed files that carry slightly inaccurate length fields.
func Decode(data []byte, chunk envelope.Chunk) (*Result, error) {
	r := newCursor(data, chunk.Start+16, chunk.End)

	idLen, err := r.u64be()
	if err != nil {
		return nil, fmt.Errorf("%w: reading identifier length: %v", errs.ErrTruncatedChunk, err)
	}
	if err := r.skip(idLen); err != nil {
		return nil, fmt.Errorf("%w: skipping identifier: %v", errs.ErrTruncatedChunk, err)
	}
	// 8-byte "external data size" field: present but unused, matching
	// observed files where it disagrees with the chunk's true bounds.
	if err := r.skip(8); err != nil {
		return nil, fmt.Errorf("%w: skipping external data size field: %v", errs.ErrTruncatedChunk, err)
	}

	result := &Result{}
	var out bytes.Buffer

	for r.pos < r.end {
		blockStart := r.pos

		a, err := r.u32be()
		if err != nil {
			return nil, fmt.Errorf("%w: reading sub-block header: %v", errs.ErrTruncatedChunk, err)
		}
		b, err := r.u32be()
		if err != nil {
			return nil, fmt.Errorf("%w: reading sub-block header: %v", errs.ErrTruncatedChunk, err)
		}

		var nameLen, dataLen uint32
		if b == blStatusSentinel {
			nameLen = a
			dataLen = 0
			r.pos = blockStart + 4
		} else {
			nameLen = b
			dataLen = a
		}

		if nameLen >= maxNameLen {
			return nil, fmt.Errorf("%w: sub-block name length %d at offset %d", errs.ErrTruncatedChunk, nameLen, blockStart)
		}

		nameBytes, err := r.bytes(uint64(nameLen) * 2)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sub-block name: %v", errs.ErrTruncatedChunk, err)
		}
		name := decodeUTF16BE(nameBytes)

		dataStart := r.pos

		switch name {
		case "BlockDataBeginChunk":
			dataEnd, err := decodeTileBlock(r, dataStart, &out)
			if err != nil {
				return nil, err
			}
			r.pos = dataEnd
		case "BlockCheckSum":
			fields, err := readSixU32(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading %s sub-block: %v", errs.ErrTruncatedChunk, name, err)
			}
			result.Checksums = append(result.Checksums, fields)
		case "BlockStatus":
			// Six big-endian u32 fields, bookkeeping the reassembler does
			// not need.
			if err := r.skip(24); err != nil {
				return nil, fmt.Errorf("%w: reading %s sub-block: %v", errs.ErrTruncatedChunk, name, err)
			}
		case "BlockDataEndChunk":
			// Terminator marker; no payload, cursor does not advance
			// beyond the name it already consumed.
		default:
			// Sub-block types this reader doesn't interpret carry an
			// explicit data length; skip straight to the next sub-block.
			if err := r.skip(uint64(dataLen)); err != nil {
				return nil, fmt.Errorf("%w: skipping %q sub-block: %v", errs.ErrTruncatedChunk, name, err)
			}
		}
	}

	result.Raw = out.Bytes()
	return result, nil
}

// readSixU32 reads six consecutive big-endian u32 fields, as BlockStatus
// and BlockCheckSum sub-blocks both carry.
func readSixU32(r *cursor) ([6]uint32, error) {
	var fields [6]uint32
	for i := range fields {
		v, err := r.u32be()
		if err != nil {
			return fields, err
		}
		fields[i] = v
	}
	return fields, nil
}

// decodeTileBlock reads a BlockDataBeginChunk payload starting at
// dataStart, appends the decompressed tile bytes (or a zero-filled
// placeholder) to out, and returns the absolute offset where the next
// sub-block begins.
func decodeTileBlock(r *cursor, dataStart uint64, out *bytes.Buffer) (nextOffset uint64, err error) {
	r.pos = dataStart

	if err := r.skip(4); err != nil { // block_index, unused
		return 0, fmt.Errorf("%w: reading block index: %v", errs.ErrTruncatedChunk, err)
	}

	uncompressedSize, err := r.u32be()
	if err != nil {
		return 0, fmt.Errorf("%w: reading uncompressed size: %v", errs.ErrTruncatedChunk, err)
	}

	if err := r.skip(8); err != nil { // block_width, block_height, unused
		return 0, fmt.Errorf("%w: reading block dimensions: %v", errs.ErrTruncatedChunk, err)
	}

	existFlag, err := r.u32be()
	if err != nil {
		return 0, fmt.Errorf("%w: reading exist flag: %v", errs.ErrTruncatedChunk, err)
	}

	if existFlag == 0 {
		out.Write(make([]byte, uncompressedSize))
		return dataStart + 20, nil
	}

	blockLen, err := r.u32be()
	if err != nil {
		return 0, fmt.Errorf("%w: reading block length: %v", errs.ErrTruncatedChunk, err)
	}

	// block_len_2 is little-endian: this is a deliberate file-format quirk,
	// not a mistake. It is the authoritative zlib payload length.
	blockLen2, err := r.u32le()
	if err != nil {
		return 0, fmt.Errorf("%w: reading block length 2: %v", errs.ErrTruncatedChunk, err)
	}

	if int64(blockLen2) < int64(blockLen)-4 {
		log.Warn().
			Uint32("block_len", blockLen).
			Uint32("block_len_2", blockLen2).
			Msg("block length mismatch")
	}

	compressed, err := r.bytes(uint64(blockLen2))
	if err != nil {
		return 0, fmt.Errorf("%w: reading compressed tile payload: %v", errs.ErrTruncatedChunk, err)
	}

	decompressed, err := inflate(compressed)
	if err != nil {
		log.Error().Err(err).Msg("tile decompression failure")
		return 0, fmt.Errorf("%w: %v", errs.ErrDecompressionFailure, err)
	}

	if uint32(len(decompressed)) != uncompressedSize {
		log.Warn().
			Int("got", len(decompressed)).
			Uint32("want", uncompressedSize).
			Msg("uncompressed size mismatch")
	}

	out.Write(decompressed)

	return dataStart + 24 + uint64(blockLen), nil
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func decodeUTF16BE(raw []byte) string {
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(raw[2*i : 2*i+2])
	}
	return string(utf16.Decode(units))
}
