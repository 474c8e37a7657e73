// Package raster reshapes the concatenated raw bytes produced by
// internal/decode into full-canvas BGR and alpha images.
package raster

import (
	"image"

	log "github.com/rs/zerolog/log"

	"github.com/rkuga/clipraster/internal/errs"
)

// Tile layout constants for one 256x256 block: one alpha plane followed by
// one BGRA plane.
const (
	TilePx     = 256
	AlphaPlane = TilePx * TilePx
	BGRAPlane  = TilePx * TilePx * 4
	TileStride = AlphaPlane + BGRAPlane
)

// Reassemble interprets data as a row-major grid of tiles covering a
// padded canvas of ceil(w/256)*256 x ceil(h/256)*256 pixels, crops the
// result to w x h, and returns the BGR and alpha planes.
//
// A grayscale-sized payload is rejected outright with ErrUnsupportedGrayscale.
// Any other length mismatch is logged and decoding proceeds on the tiles
// that are actually present in data; missing trailing tiles are left zeroed.
func Reassemble(data []byte, w, h int) (*BGRImage, *image.Gray, error) {
	cols := ceilDiv(w, TilePx)
	rows := ceilDiv(h, TilePx)
	paddedW := cols * TilePx
	paddedH := rows * TilePx

	grayscaleSize := paddedW * paddedH
	bgraSize := paddedW * paddedH * 5

	if len(data) == grayscaleSize {
		return nil, nil, errs.ErrUnsupportedGrayscale
	}
	if len(data) != bgraSize {
		log.Warn().
			Err(errs.ErrSizeMismatch).
			Int("got", len(data)).
			Int("want", bgraSize).
			Msg("decoded external data size mismatch")
	}

	paddedBGR := getBuf(paddedW * paddedH * 3)
	defer putBuf(paddedBGR)
	paddedAlpha := image.NewGray(image.Rect(0, 0, paddedW, paddedH))

	for i := 0; i < rows*cols; i++ {
		base := i * TileStride
		if base+TileStride > len(data) {
			log.Warn().Int("tile_index", i).Msg("truncated tile data; remaining tiles left blank")
			break
		}

		tileX := i % cols
		tileY := i / cols

		alphaTile := data[base : base+AlphaPlane]
		bgraTile := data[base+AlphaPlane : base+TileStride]

		copyTileIntoAlpha(paddedAlpha, tileX, tileY, alphaTile)
		copyTileIntoBGR(paddedBGR, paddedW, tileX, tileY, bgraTile)
	}

	bgr := cropBGR(paddedBGR, paddedW, w, h)
	alpha := cropGray(paddedAlpha, w, h)

	return bgr, alpha, nil
}

// cropGray copies the top-left w x h region of a padded grayscale image
// into a freshly allocated image.Gray, so the returned image does not keep
// the full padded buffer alive.
func cropGray(padded *image.Gray, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcOff := padded.PixOffset(0, y)
		destOff := out.PixOffset(0, y)
		copy(out.Pix[destOff:destOff+w], padded.Pix[srcOff:srcOff+w])
	}
	return out
}

func copyTileIntoAlpha(dest *image.Gray, tileX, tileY int, alphaTile []byte) {
	for dy := 0; dy < TilePx; dy++ {
		destY := tileY*TilePx + dy
		srcRow := alphaTile[dy*TilePx : dy*TilePx+TilePx]
		destOff := dest.PixOffset(tileX*TilePx, destY)
		copy(dest.Pix[destOff:destOff+TilePx], srcRow)
	}
}

// copyTileIntoBGR writes one tile's BGRA payload into the padded BGR buffer,
// dropping the embedded alpha channel: only B, G, R bytes per pixel survive.
func copyTileIntoBGR(dest []byte, paddedW, tileX, tileY int, bgraTile []byte) {
	for dy := 0; dy < TilePx; dy++ {
		destY := tileY*TilePx + dy
		rowBase := destY*paddedW*3 + tileX*TilePx*3
		srcRowBase := dy * TilePx * 4
		for dx := 0; dx < TilePx; dx++ {
			srcOff := srcRowBase + dx*4
			destOff := rowBase + dx*3
			dest[destOff] = bgraTile[srcOff]
			dest[destOff+1] = bgraTile[srcOff+1]
			dest[destOff+2] = bgraTile[srcOff+2]
		}
	}
}

// cropBGR copies the top-left w x h region of a padded BGR buffer into a
// freshly allocated BGRImage.
func cropBGR(padded []byte, paddedW, w, h int) *BGRImage {
	out := NewBGRImage(w, h)
	for y := 0; y < h; y++ {
		srcOff := y * paddedW * 3
		destOff := y * out.Stride
		copy(out.Pix[destOff:destOff+w*3], padded[srcOff:srcOff+w*3])
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
