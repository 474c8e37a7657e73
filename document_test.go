package clipraster

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rkuga/clipraster/internal/errs"
	"github.com/rkuga/clipraster/internal/raster"
)

// buildSampleDatabase creates a real SQLite file with the six expected
// tables, populated with one fully-linked layer (Background, canvas 1,
// layer 10) and one layer with no rendered mipmap (Sketch, layer 11), and
// returns its raw file bytes.
func buildSampleDatabase(t *testing.T) []byte {
	t.Helper()

	tmp, err := os.CreateTemp("", "clipraster-fixture-*.sqlite")
	require.NoError(t, err)
	path := tmp.Name()
	require.NoError(t, tmp.Close())
	defer os.Remove(path)

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE CanvasPreview (MainId INTEGER, CanvasId INTEGER, ImageData BLOB, ImageWidth INTEGER, ImageHeight INTEGER)`,
		`CREATE TABLE Layer (MainId INTEGER, CanvasId INTEGER, LayerName TEXT, LayerUuid TEXT, LayerRenderMipmap INTEGER, LayerRenderThumbnail INTEGER)`,
		`CREATE TABLE LayerThumbnail (MainId INTEGER, CanvasId INTEGER, LayerId INTEGER, ThumbnailCanvasWidth INTEGER, ThumbnailCanvasHeight INTEGER, ThumbnailOffscreen INTEGER)`,
		`CREATE TABLE Offscreen (MainId INTEGER, CanvasId INTEGER, LayerId INTEGER, BlockData TEXT)`,
		`CREATE TABLE Mipmap (MainId INTEGER, CanvasId INTEGER, LayerId INTEGER, MipmapCount INTEGER, BaseMipmapInfo INTEGER)`,
		`CREATE TABLE MipmapInfo (MainId INTEGER, CanvasId INTEGER, LayerId INTEGER, ThisScale REAL, Offscreen INTEGER, NextIndex INTEGER)`,
	}
	for _, stmt := range schema {
		_, err := conn.Exec(stmt)
		require.NoError(t, err)
	}

	inserts := []struct {
		stmt string
		args []any
	}{
		{`INSERT INTO Layer VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{int64(10), int64(1), "Background", "badbadba-dbad-badb-adba-dbadbadbadba", int64(100), int64(0)}},
		{`INSERT INTO Layer VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{int64(11), int64(1), "Sketch", "not-a-valid-uuid", int64(999), int64(0)}},
		{`INSERT INTO LayerThumbnail VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{int64(10), int64(1), int64(10), int64(256), int64(256), int64(0)}},
		{`INSERT INTO Mipmap VALUES (?, ?, ?, ?, ?)`,
			[]any{int64(100), int64(1), int64(10), int64(4), int64(200)}},
		{`INSERT INTO MipmapInfo VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{int64(200), int64(1), int64(10), 1.0, int64(300), int64(0)}},
		{`INSERT INTO Offscreen VALUES (?, ?, ?, ?)`,
			[]any{int64(300), int64(1), int64(10), "ext-1"}},
	}
	for _, ins := range inserts {
		_, err := conn.Exec(ins.stmt, ins.args...)
		require.NoError(t, err)
	}

	require.NoError(t, conn.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func putU32be(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func putU64be(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUTF16BEName(buf *bytes.Buffer, name string) {
	units := utf16.Encode([]rune(name))
	putU32be(buf, uint32(len(units)))
	for _, u := range units {
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], u)
		buf.Write(tmp[:])
	}
}

// buildExternalDataPayload assembles one CHNKExta chunk's payload: leading
// identifier, an unused external-data-size field, one exist-flag-zero tile
// block sized for a single 256x256 canvas, and a terminator sub-block.
func buildExternalDataPayload(id string) []byte {
	var buf bytes.Buffer

	idBytes := []byte(id)
	putU64be(&buf, uint64(len(idBytes)))
	buf.Write(idBytes)
	putU64be(&buf, 0) // external data size, unused

	writeUTF16BEName(&buf, "BlockDataBeginChunk")
	putU32be(&buf, 0)                          // block_index
	putU32be(&buf, uint32(raster.TileStride))  // uncompressed_size
	putU32be(&buf, 256)                        // block_width
	putU32be(&buf, 256)                        // block_height
	putU32be(&buf, 0)                          // exist_flag: no pixel data, zero-filled

	writeUTF16BEName(&buf, "BlockDataEndChunk")

	return buf.Bytes()
}

// buildClipFile assembles a complete CSFCHUNK file: an 8-byte magic header
// plus 16 reserved bytes, one CHNKExta chunk, then a CHNKSQLi chunk whose
// payload is dbBytes. The CHNKSQLi chunk must be last, since its Database
// field is read to end-of-file rather than its declared payload size.
func buildClipFile(t *testing.T, extPayload []byte, dbBytes []byte) []byte {
	t.Helper()

	var file bytes.Buffer
	file.WriteString("CSFCHUNK")
	file.Write(make([]byte, 16)) // reserved header bytes

	file.WriteString("CHNKExta")
	putU64be(&file, uint64(len(extPayload)))
	file.Write(extPayload)

	file.WriteString("CHNKSQLi")
	putU64be(&file, uint64(len(dbBytes)))
	file.Write(dbBytes)

	return file.Bytes()
}

func writeTempClipFile(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.clip")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpen_RejectsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	require.NoError(t, os.WriteFile(path, []byte("not a clip file"), 0o600))

	_, err := Open(path)
	assert.ErrorIs(t, err, errs.ErrNotClipFile)
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	path := writeTempClipFile(t, []byte("not the right header at all, padded out"))

	_, err := Open(path)
	assert.ErrorIs(t, err, errs.ErrInvalidMagic)
}

func TestLayers_ListsEveryLayer(t *testing.T) {
	dbBytes := buildSampleDatabase(t)
	extPayload := buildExternalDataPayload("ext-1")
	path := writeTempClipFile(t, buildClipFile(t, extPayload, dbBytes))

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	layers := doc.Layers()
	require.Len(t, layers, 2)

	names := []string{layers[0].Name, layers[1].Name}
	assert.Contains(t, names, "Background")
	assert.Contains(t, names, "Sketch")
}

func TestLayerSummary_StringFormat(t *testing.T) {
	s := LayerSummary{CanvasID: 1, LayerID: 10, Name: "Background"}
	assert.Equal(t, "Background (Canvas ID:1 Layer ID:10)", s.String())
}

func TestRaster_FullChainProducesCanvasSizedPlanes(t *testing.T) {
	dbBytes := buildSampleDatabase(t)
	extPayload := buildExternalDataPayload("ext-1")
	path := writeTempClipFile(t, buildClipFile(t, extPayload, dbBytes))

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	result, err := doc.Raster(1, 10)
	require.NoError(t, err)

	assert.Equal(t, 256, result.BGR.Bounds().Dx())
	assert.Equal(t, 256, result.BGR.Bounds().Dy())
	assert.Equal(t, 256, result.Alpha.Bounds().Dx())
	assert.Equal(t, 256, result.Alpha.Bounds().Dy())

	bgra := result.BGRA()
	assert.Equal(t, 256, bgra.Bounds().Dx())
	assert.Equal(t, 256, bgra.Bounds().Dy())
}

func TestRaster_LayerWithNoMipmapIsNotFound(t *testing.T) {
	dbBytes := buildSampleDatabase(t)
	extPayload := buildExternalDataPayload("ext-1")
	path := writeTempClipFile(t, buildClipFile(t, extPayload, dbBytes))

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.Raster(1, 11)
	assert.ErrorIs(t, err, errs.ErrExternalIDNotFound)
}

func TestRaster_UnknownLayerIsNotFoundError(t *testing.T) {
	dbBytes := buildSampleDatabase(t)
	extPayload := buildExternalDataPayload("ext-1")
	path := writeTempClipFile(t, buildClipFile(t, extPayload, dbBytes))

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.Raster(1, 999)
	assert.ErrorIs(t, err, errs.ErrLayerNotFound)
}
