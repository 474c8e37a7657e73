// Package envelope parses the outer CSFCHUNK chunk framing of a .clip file:
// it validates the magic header, enumerates the chunk table, and isolates
// the embedded relational-database blob. It does not interpret chunk
// payloads beyond the CHNKSQLi/CHNKExta framing needed to locate them.
package envelope

import (
	"encoding/binary"
	"fmt"

	log "github.com/rs/zerolog/log"

	"github.com/rkuga/clipraster/internal/errs"
)

// Envelope holds the chunk table and the raw file bytes it was parsed from.
// Chunk offsets are absolute into Data.
type Envelope struct {
	Chunks []Chunk
	Data   []byte

	// Database is the embedded relational-database blob: file bytes from
	// the CHNKSQLi chunk's start+16 through end-of-file. This intentionally
	// extends past the chunk's declared payload size, since writers have
	// been observed leaving it inaccurate for this particular chunk.
	Database []byte
}

// Parse scans the chunk envelope of a .clip file's raw bytes.
func Parse(data []byte) (*Envelope, error) {
	if len(data) < len(Magic)+headerReservedSize {
		return nil, fmt.Errorf("%w: file too short for header", errs.ErrInvalidMagic)
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: got %q", errs.ErrInvalidMagic, data[:len(Magic)])
	}

	offset := uint64(len(Magic) + headerReservedSize)
	size := uint64(len(data))

	var chunks []Chunk
	sqliteStart := int64(-1)
	sawSQLite := false

	for offset < size {
		chunkStart := offset

		if offset+chunkHeaderSize > size {
			return nil, fmt.Errorf("%w: chunk header at %d exceeds file size %d", errs.ErrTruncatedChunk, offset, size)
		}

		chunkType := string(data[offset : offset+8])
		offset += 8

		payloadSize := binary.BigEndian.Uint64(data[offset : offset+8])
		offset += 8

		end := offset + payloadSize
		if end > size {
			return nil, fmt.Errorf("%w: chunk %q at %d declares payload size %d exceeding file size %d",
				errs.ErrTruncatedChunk, chunkType, chunkStart, payloadSize, size)
		}
		offset = end

		chunk := Chunk{
			Type:        chunkType,
			PayloadSize: payloadSize,
			Start:       chunkStart,
			End:         end,
		}
		chunks = append(chunks, chunk)

		if chunkType == typeSQLi {
			if sawSQLite {
				log.Warn().Msgf("duplicate CHNKSQLi chunk at offset %d; keeping the last one encountered", chunkStart)
			}
			sawSQLite = true
			sqliteStart = int64(chunkStart)
		}
	}

	if !sawSQLite {
		return nil, errs.ErrMissingSQLiteChunk
	}

	dbOffset := uint64(sqliteStart) + chunkHeaderSize
	if dbOffset > size {
		return nil, fmt.Errorf("%w: CHNKSQLi chunk at %d too short for its 16-byte header", errs.ErrTruncatedChunk, sqliteStart)
	}

	log.Debug().Int("chunks", len(chunks)).Msg("parsed CSFCHUNK envelope")

	return &Envelope{
		Chunks:   chunks,
		Data:     data,
		Database: data[dbOffset:],
	}, nil
}

// Find returns the first chunk of the given type, or false if none exists.
func (e *Envelope) Find(chunkType string) (Chunk, bool) {
	for _, c := range e.Chunks {
		if c.Type == chunkType {
			return c, true
		}
	}
	return Chunk{}, false
}

// ExternalChunks returns all CHNKExta chunks in encounter order.
func (e *Envelope) ExternalChunks() []Chunk {
	var result []Chunk
	for _, c := range e.Chunks {
		if c.Type == typeExta {
			result = append(result, c)
		}
	}
	return result
}
