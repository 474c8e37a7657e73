// Package resolve walks the embedded database's record lists to turn a
// (canvas ID, layer ID) pair into the external-data identifier string that
// names the raster payload for that layer's base mipmap level.
//
// The chain is: Layer -> Mipmap -> MipmapInfo -> Offscreen -> identifier.
// Each record carries the MainId of the next link in its own fields
// (LayerRenderMipmap, BaseMipmapInfo, Offscreen), so the walk is a sequence
// of MainId lookups rather than a SQL join. Indexes are built once at
// construction time so each lookup afterward is O(1).
package resolve

import (
	"github.com/rkuga/clipraster/internal/clipdb"
	"github.com/rkuga/clipraster/internal/errs"
)

// layerKey identifies a Layer record by the pair callers actually have on
// hand: the canvas it belongs to and its own MainId.
type layerKey struct {
	canvasID int64
	layerID  int64
}

// Resolver answers external-data identifier lookups against a fixed set of
// record lists. It holds no reference to the file bytes or database
// connection; it is safe to keep around after both are closed.
type Resolver struct {
	layers      map[layerKey]clipdb.Layer
	thumbnails  map[layerKey]clipdb.LayerThumbnail
	mipmaps     map[int64]clipdb.Mipmap
	mipmapInfos map[int64]clipdb.MipmapInfo
	offscreens  map[int64]clipdb.Offscreen
}

// New builds the lookup indexes from a fully loaded set of records. When a
// MainId repeats within a table, the first record encountered wins and
// later duplicates are ignored, matching the record lists' declared
// insertion order.
func New(records *clipdb.Records) *Resolver {
	r := &Resolver{
		layers:      make(map[layerKey]clipdb.Layer, len(records.Layers)),
		thumbnails:  make(map[layerKey]clipdb.LayerThumbnail, len(records.LayerThumbnails)),
		mipmaps:     make(map[int64]clipdb.Mipmap, len(records.Mipmaps)),
		mipmapInfos: make(map[int64]clipdb.MipmapInfo, len(records.MipmapInfos)),
		offscreens:  make(map[int64]clipdb.Offscreen, len(records.Offscreens)),
	}

	for _, l := range records.Layers {
		key := layerKey{canvasID: l.CanvasID, layerID: l.MainID}
		if _, exists := r.layers[key]; !exists {
			r.layers[key] = l
		}
	}
	for _, t := range records.LayerThumbnails {
		// The thumbnail record for a layer is matched by its own MainId
		// against the layer's MainId, not by the LayerId FK column.
		key := layerKey{canvasID: t.CanvasID, layerID: t.MainID}
		if _, exists := r.thumbnails[key]; !exists {
			r.thumbnails[key] = t
		}
	}
	for _, m := range records.Mipmaps {
		if _, exists := r.mipmaps[m.MainID]; !exists {
			r.mipmaps[m.MainID] = m
		}
	}
	for _, mi := range records.MipmapInfos {
		if _, exists := r.mipmapInfos[mi.MainID]; !exists {
			r.mipmapInfos[mi.MainID] = mi
		}
	}
	for _, o := range records.Offscreens {
		if _, exists := r.offscreens[o.MainID]; !exists {
			r.offscreens[o.MainID] = o
		}
	}

	return r
}

// Layer returns the Layer record for a (canvasID, layerID) pair.
// ErrLayerNotFound is the only error this package returns: every other
// missing link in the chain is treated as "this layer has no raster data"
// rather than a hard failure, since a layer can legitimately have no
// rendered mipmap yet.
func (r *Resolver) Layer(canvasID, layerID int64) (clipdb.Layer, error) {
	layer, ok := r.layers[layerKey{canvasID: canvasID, layerID: layerID}]
	if !ok {
		return clipdb.Layer{}, errs.ErrLayerNotFound
	}
	return layer, nil
}

// Result is what Resolve returns for a layer that does have raster data:
// the identifier naming its pixel payload, plus the canvas dimensions its
// thumbnail record was rendered at.
type Result struct {
	ExternalID  string
	ThumbWidth  int64
	ThumbHeight int64
}

// Resolve walks the Layer -> Mipmap -> MipmapInfo -> Offscreen chain for
// (canvasID, layerID) and returns the external-data identifier for the
// layer's base mipmap level, along with its thumbnail dimensions. A false
// second return value means the layer exists but has no resolvable raster
// data anywhere along the chain — a normal outcome for non-raster layers,
// not an error. Only a missing Layer record itself is an error.
func (r *Resolver) Resolve(canvasID, layerID int64) (Result, bool, error) {
	layer, err := r.Layer(canvasID, layerID)
	if err != nil {
		return Result{}, false, err
	}

	var thumbW, thumbH int64
	if t, ok := r.thumbnails[layerKey{canvasID: canvasID, layerID: layerID}]; ok {
		thumbW, thumbH = t.ThumbnailCanvasWidth, t.ThumbnailCanvasHeight
	}

	mipmap, ok := r.mipmaps[layer.LayerRenderMipmap]
	if !ok {
		return Result{}, false, nil
	}

	info, ok := r.mipmapInfos[mipmap.BaseMipmapInfo]
	if !ok {
		return Result{}, false, nil
	}

	offscreen, ok := r.offscreens[info.Offscreen]
	if !ok {
		return Result{}, false, nil
	}

	return Result{ExternalID: offscreen.BlockData, ThumbWidth: thumbW, ThumbHeight: thumbH}, true, nil
}

// ExternalID is a convenience wrapper around Resolve for callers that only
// need the identifier, not the thumbnail dimensions.
func (r *Resolver) ExternalID(canvasID, layerID int64) (string, bool, error) {
	result, ok, err := r.Resolve(canvasID, layerID)
	if err != nil || !ok {
		return "", ok, err
	}
	return result.ExternalID, true, nil
}
