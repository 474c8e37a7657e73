package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkuga/clipraster/internal/errs"
)

// buildTile fills one tile_stride-sized block: alpha plane constant, BGRA
// plane with B=blue, G=green, R=red, A=255 for every pixel.
func buildTile(alphaValue, blue, green, red byte) []byte {
	tile := make([]byte, TileStride)
	for i := 0; i < AlphaPlane; i++ {
		tile[i] = alphaValue
	}
	for i := 0; i < TilePx*TilePx; i++ {
		off := AlphaPlane + i*4
		tile[off] = blue
		tile[off+1] = green
		tile[off+2] = red
		tile[off+3] = 255
	}
	return tile
}

func TestReassemble_SingleTileUniformFill(t *testing.T) {
	data := buildTile(0x7F, 0x7F, 0x7F, 0x7F)

	bgr, alpha, err := Reassemble(data, TilePx, TilePx)
	require.NoError(t, err)

	for y := 0; y < TilePx; y++ {
		for x := 0; x < TilePx; x++ {
			c := bgr.At(x, y)
			r, g, b, _ := c.RGBA()
			assert.Equal(t, uint32(0x7F7F), r)
			assert.Equal(t, uint32(0x7F7F), g)
			assert.Equal(t, uint32(0x7F7F), b)
			assert.Equal(t, uint8(0x7F), alpha.GrayAt(x, y).Y)
		}
	}
}

func TestReassemble_PaddingCropNonMultipleOf256(t *testing.T) {
	w, h := 300, 200
	cols := ceilDiv(w, TilePx)
	rows := ceilDiv(h, TilePx)

	data := make([]byte, 0, rows*cols*TileStride)
	for i := 0; i < rows*cols; i++ {
		data = append(data, buildTile(byte(i), byte(i), byte(i), byte(i))...)
	}

	bgr, alpha, err := Reassemble(data, w, h)
	require.NoError(t, err)

	assert.Equal(t, w, bgr.Bounds().Dx())
	assert.Equal(t, h, bgr.Bounds().Dy())
	assert.Equal(t, w, alpha.Bounds().Dx())
	assert.Equal(t, h, alpha.Bounds().Dy())
}

func TestReassemble_TileGridPositionsPreserved(t *testing.T) {
	cols, rows := 2, 2
	w, h := cols*TilePx, rows*TilePx

	var data []byte
	for i := 0; i < rows*cols; i++ {
		x := i % cols
		y := i / cols
		fill := byte(x + y)
		data = append(data, buildTile(fill, fill, fill, fill)...)
	}

	bgr, alpha, err := Reassemble(data, w, h)
	require.NoError(t, err)

	for i := 0; i < rows*cols; i++ {
		tx := i % cols
		ty := i / cols
		want := uint8(tx + ty)

		px := tx*TilePx + 10
		py := ty*TilePx + 10
		assert.Equal(t, want, alpha.GrayAt(px, py).Y)

		r, _, _, _ := bgr.At(px, py).RGBA()
		assert.Equal(t, uint32(want)*0x101, r)
	}
}

func TestReassemble_GrayscaleSizedPayloadRejected(t *testing.T) {
	w, h := 512, 512
	data := make([]byte, w*h) // exactly padded_w*padded_h, the grayscale layout

	_, _, err := Reassemble(data, w, h)
	assert.ErrorIs(t, err, errs.ErrUnsupportedGrayscale)
}

func TestReassemble_ShortPayloadLeavesTrailingTilesBlank(t *testing.T) {
	w, h := 512, 256 // 2x1 tile grid
	data := buildTile(0xAA, 0xAA, 0xAA, 0xAA) // only one tile's worth of data

	bgr, alpha, err := Reassemble(data, w, h)
	require.NoError(t, err)

	assert.Equal(t, uint8(0xAA), alpha.GrayAt(10, 10).Y)
	assert.Equal(t, uint8(0), alpha.GrayAt(300, 10).Y)

	r, _, _, _ := bgr.At(300, 10).RGBA()
	assert.Equal(t, uint32(0), r)
}
