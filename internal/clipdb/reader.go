// Package clipdb opens the embedded relational-database blob isolated by
// internal/envelope and materializes the six flat record lists it holds.
// The blob is a well-known open database format (SQLite); this reader
// persists it to a scoped temporary file, queries it read-only with
// database/sql and the go-sqlite3 driver, and removes the temporary file
// before returning.
package clipdb

import (
	"database/sql"
	"fmt"
	"os"

	log "github.com/rs/zerolog/log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rkuga/clipraster/internal/errs"
)

// Open persists dbBytes to a scoped temporary file, queries the six tables
// read-only, and returns the materialized record lists. The temporary
// artifact is always removed before Open returns, including on error paths.
func Open(dbBytes []byte) (*Records, error) {
	tmp, err := os.CreateTemp("", "clipraster-db-*.sqlite")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp file: %v", errs.ErrDBOpenFailure, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(dbBytes); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: writing temp file: %v", errs.ErrDBOpenFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing temp file: %v", errs.ErrDBOpenFailure, err)
	}

	// Read-only: no writes ever happen through this connection.
	conn, err := sql.Open("sqlite3", tmpPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: opening sqlite connection: %v", errs.ErrDBOpenFailure, err)
	}
	defer conn.Close()

	records := &Records{}

	if records.CanvasPreviews, err = readCanvasPreviews(conn); err != nil {
		return nil, err
	}
	if records.Layers, err = readLayers(conn); err != nil {
		return nil, err
	}
	if records.LayerThumbnails, err = readLayerThumbnails(conn); err != nil {
		return nil, err
	}
	if records.Offscreens, err = readOffscreens(conn); err != nil {
		return nil, err
	}
	if records.Mipmaps, err = readMipmaps(conn); err != nil {
		return nil, err
	}
	if records.MipmapInfos, err = readMipmapInfos(conn); err != nil {
		return nil, err
	}

	log.Debug().
		Int("canvas_previews", len(records.CanvasPreviews)).
		Int("layers", len(records.Layers)).
		Int("layer_thumbnails", len(records.LayerThumbnails)).
		Int("offscreens", len(records.Offscreens)).
		Int("mipmaps", len(records.Mipmaps)).
		Int("mipmap_infos", len(records.MipmapInfos)).
		Msg("read embedded database")

	return records, nil
}

func readCanvasPreviews(conn *sql.DB) ([]CanvasPreview, error) {
	rows, err := conn.Query("SELECT MainId, CanvasId, ImageData, ImageWidth, ImageHeight FROM CanvasPreview;")
	if err != nil {
		return nil, fmt.Errorf("%w: querying CanvasPreview: %v", errs.ErrDBOpenFailure, err)
	}
	defer rows.Close()

	var result []CanvasPreview
	for rows.Next() {
		var r CanvasPreview
		if err := rows.Scan(&r.MainID, &r.CanvasID, &r.ImageData, &r.ImageWidth, &r.ImageHeight); err != nil {
			return nil, fmt.Errorf("%w: scanning CanvasPreview row: %v", errs.ErrDBOpenFailure, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func readLayers(conn *sql.DB) ([]Layer, error) {
	rows, err := conn.Query("SELECT MainId, CanvasId, LayerName, LayerUuid, LayerRenderMipmap, LayerRenderThumbnail FROM Layer;")
	if err != nil {
		return nil, fmt.Errorf("%w: querying Layer: %v", errs.ErrDBOpenFailure, err)
	}
	defer rows.Close()

	var result []Layer
	for rows.Next() {
		var r Layer
		if err := rows.Scan(&r.MainID, &r.CanvasID, &r.LayerName, &r.LayerUUID, &r.LayerRenderMipmap, &r.LayerRenderThumbnail); err != nil {
			return nil, fmt.Errorf("%w: scanning Layer row: %v", errs.ErrDBOpenFailure, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func readLayerThumbnails(conn *sql.DB) ([]LayerThumbnail, error) {
	rows, err := conn.Query("SELECT MainId, CanvasId, LayerId, ThumbnailCanvasWidth, ThumbnailCanvasHeight, ThumbnailOffscreen FROM LayerThumbnail;")
	if err != nil {
		return nil, fmt.Errorf("%w: querying LayerThumbnail: %v", errs.ErrDBOpenFailure, err)
	}
	defer rows.Close()

	var result []LayerThumbnail
	for rows.Next() {
		var r LayerThumbnail
		if err := rows.Scan(&r.MainID, &r.CanvasID, &r.LayerID, &r.ThumbnailCanvasWidth, &r.ThumbnailCanvasHeight, &r.ThumbnailOffscreen); err != nil {
			return nil, fmt.Errorf("%w: scanning LayerThumbnail row: %v", errs.ErrDBOpenFailure, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func readOffscreens(conn *sql.DB) ([]Offscreen, error) {
	rows, err := conn.Query("SELECT MainId, CanvasId, LayerId, BlockData FROM Offscreen;")
	if err != nil {
		return nil, fmt.Errorf("%w: querying Offscreen: %v", errs.ErrDBOpenFailure, err)
	}
	defer rows.Close()

	var result []Offscreen
	for rows.Next() {
		var r Offscreen
		if err := rows.Scan(&r.MainID, &r.CanvasID, &r.LayerID, &r.BlockData); err != nil {
			return nil, fmt.Errorf("%w: scanning Offscreen row: %v", errs.ErrDBOpenFailure, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func readMipmaps(conn *sql.DB) ([]Mipmap, error) {
	rows, err := conn.Query("SELECT MainId, CanvasId, LayerId, MipmapCount, BaseMipmapInfo FROM Mipmap;")
	if err != nil {
		return nil, fmt.Errorf("%w: querying Mipmap: %v", errs.ErrDBOpenFailure, err)
	}
	defer rows.Close()

	var result []Mipmap
	for rows.Next() {
		var r Mipmap
		if err := rows.Scan(&r.MainID, &r.CanvasID, &r.LayerID, &r.MipmapCount, &r.BaseMipmapInfo); err != nil {
			return nil, fmt.Errorf("%w: scanning Mipmap row: %v", errs.ErrDBOpenFailure, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func readMipmapInfos(conn *sql.DB) ([]MipmapInfo, error) {
	rows, err := conn.Query("SELECT MainId, CanvasId, LayerId, ThisScale, Offscreen, NextIndex FROM MipmapInfo;")
	if err != nil {
		return nil, fmt.Errorf("%w: querying MipmapInfo: %v", errs.ErrDBOpenFailure, err)
	}
	defer rows.Close()

	var result []MipmapInfo
	for rows.Next() {
		var r MipmapInfo
		if err := rows.Scan(&r.MainID, &r.CanvasID, &r.LayerID, &r.ThisScale, &r.Offscreen, &r.NextIndex); err != nil {
			return nil, fmt.Errorf("%w: scanning MipmapInfo row: %v", errs.ErrDBOpenFailure, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
