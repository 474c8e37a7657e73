package envelope

// Chunk describes one typed, length-prefixed segment of the outer CSFCHUNK
// envelope. Created once during the initial scan and immutable afterward.
type Chunk struct {
	// Type is the 8-byte ASCII chunk type tag, e.g. "CHNKHead", "CHNKExta".
	Type string
	// PayloadSize is the chunk's declared payload length in bytes.
	PayloadSize uint64
	// Start is the absolute offset of the chunk's type tag.
	Start uint64
	// End is one past the chunk's payload (Start + 16 + PayloadSize).
	End uint64
}

const (
	// Magic is the fixed 8-byte ASCII header every CSFCHUNK file begins with.
	Magic = "CSFCHUNK"

	headerReservedSize = 16
	chunkHeaderSize    = 16 // 8-byte type tag + 8-byte big-endian payload size

	typeHead = "CHNKHead"
	typeExta = "CHNKExta"
	typeSQLi = "CHNKSQLi"
	typeFoot = "CHNKFoot"
)
