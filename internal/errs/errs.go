// Package errs collects the sentinel error Kinds shared by every layer of
// the .clip read path, in the style of go-hdf5's hdf5/errors.go. Callers
// use errors.Is against these values; call sites wrap them with
// fmt.Errorf("...: %w", ...) for context.
package errs

import "errors"

var (
	// ErrNotClipFile is returned when the path extension is not ".clip".
	ErrNotClipFile = errors.New("not a Clip Studio Paint file (extension is not \".clip\")")

	// ErrInvalidMagic is returned when the 8-byte header magic isn't "CSFCHUNK".
	ErrInvalidMagic = errors.New("invalid CSFCHUNK magic header")

	// ErrTruncatedChunk is returned when a chunk or sub-block declares a
	// size extending past its container.
	ErrTruncatedChunk = errors.New("truncated chunk")

	// ErrMissingSQLiteChunk is returned when no CHNKSQLi chunk is present.
	ErrMissingSQLiteChunk = errors.New("no CHNKSQLi chunk present")

	// ErrDBOpenFailure is returned when the embedded database blob cannot
	// be opened or queried.
	ErrDBOpenFailure = errors.New("failed to open embedded database")

	// ErrLayerNotFound is returned when the requested (canvas, layer) pair
	// has no matching Layer record at all.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrExternalIDNotFound is returned when an external-data identifier
	// doesn't resolve to any CHNKExta chunk.
	ErrExternalIDNotFound = errors.New("external data identifier not found")

	// ErrUnsupportedGrayscale is returned when the decoded payload size
	// matches the single-plane (grayscale) layout, which this module does
	// not decode.
	ErrUnsupportedGrayscale = errors.New("unsupported grayscale external data")

	// ErrSizeMismatch is logged when the decoded payload size is neither
	// the grayscale nor the expected BGRA-plus-alpha layout. It is not
	// returned: decoding still proceeds on a best-effort basis.
	ErrSizeMismatch = errors.New("decoded external data size mismatch")

	// ErrDecompressionFailure is returned when a zlib tile payload fails
	// to decompress.
	ErrDecompressionFailure = errors.New("tile decompression failure")
)
