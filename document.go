// Package clipraster opens Clip Studio Paint (.clip) documents and exposes
// their layers' rasterized pixel data. A .clip file is a CSFCHUNK container
// holding an embedded SQLite database (layer structure and metadata) plus
// one CHNKExta chunk per layer's compressed tile payload; this package
// joins the two to answer "give me layer X's pixels" without shelling out
// to any external tool.
package clipraster

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/rs/zerolog/log"

	"github.com/rkuga/clipraster/internal/clipdb"
	"github.com/rkuga/clipraster/internal/decode"
	"github.com/rkuga/clipraster/internal/envelope"
	"github.com/rkuga/clipraster/internal/errs"
	"github.com/rkuga/clipraster/internal/mmapfile"
	"github.com/rkuga/clipraster/internal/raster"
	"github.com/rkuga/clipraster/internal/resolve"
)

// Document is an opened .clip file: its chunk envelope, its materialized
// database records, and a resolver built over them. The underlying file
// stays mapped for the Document's lifetime; call Close when done with it.
type Document struct {
	path     string
	data     []byte
	mmapped  bool
	env      *envelope.Envelope
	records  *clipdb.Records
	resolver *resolve.Resolver
}

// Open opens path as a .clip document. The file extension must be ".clip";
// anything else is rejected with ErrNotClipFile before any bytes are read.
func Open(path string) (*Document, error) {
	if !strings.EqualFold(filepath.Ext(path), ".clip") {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotClipFile, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := fi.Size()
	if size == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	data, mmapped, err := loadFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	env, err := envelope.Parse(data)
	if err != nil {
		if mmapped {
			mmapfile.Unmap(data)
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	records, err := clipdb.Open(env.Database)
	if err != nil {
		if mmapped {
			mmapfile.Unmap(data)
		}
		return nil, fmt.Errorf("reading embedded database of %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("chunks", len(env.Chunks)).Msg("opened clip document")

	return &Document{
		path:     path,
		data:     data,
		mmapped:  mmapped,
		env:      env,
		records:  records,
		resolver: resolve.New(records),
	}, nil
}

// loadFile memory-maps f when the platform supports it, falling back to a
// plain read otherwise. The bool return reports which path was taken, so
// Close knows whether to munmap or simply drop the reference.
func loadFile(f *os.File, size int) ([]byte, bool, error) {
	if data, err := mmapfile.Map(f.Fd(), size); err == nil {
		return data, true, nil
	}
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// Close releases the Document's memory mapping, if any. After Close, no
// other method on Document may be called.
func (d *Document) Close() error {
	if d.mmapped && d.data != nil {
		err := mmapfile.Unmap(d.data)
		d.data = nil
		return err
	}
	d.data = nil
	return nil
}

// LayerSummary describes one Layer record without touching its raster
// payload: enough to list a document's contents and pick a (CanvasID,
// LayerID) pair for Raster.
type LayerSummary struct {
	CanvasID int64
	LayerID  int64
	Name     string
	UUID     uuid.UUID
}

// String renders a LayerSummary the way a layer listing names it:
// "{name} (Canvas ID:{canvas} Layer ID:{layer})".
func (l LayerSummary) String() string {
	return fmt.Sprintf("%s (Canvas ID:%d Layer ID:%d)", l.Name, l.CanvasID, l.LayerID)
}

// Layers lists every Layer record in the document, in the order the
// embedded database returned them.
func (d *Document) Layers() []LayerSummary {
	summaries := make([]LayerSummary, 0, len(d.records.Layers))
	for _, l := range d.records.Layers {
		id, err := uuid.Parse(l.LayerUUID)
		if err != nil {
			log.Warn().Str("raw", l.LayerUUID).Msg("layer UUID did not parse; summary will carry a zero UUID")
			id = uuid.UUID{}
		}
		summaries = append(summaries, LayerSummary{
			CanvasID: l.CanvasID,
			LayerID:  l.MainID,
			Name:     l.LayerName,
			UUID:     id,
		})
	}
	return summaries
}

// RasterResult holds a layer's decoded pixel planes. BGRA is nil until
// first accessed through its accessor method, since most callers only need
// one of the BGR or BGRA representations.
type RasterResult struct {
	BGR   *raster.BGRImage
	Alpha *image.Gray
	bgra  *raster.BGRAImage
}

// BGRA lazily combines BGR and Alpha into a single 4-channel image,
// caching the result for subsequent calls.
func (r *RasterResult) BGRA() *raster.BGRAImage {
	if r.bgra == nil {
		r.bgra = raster.Combine(r.BGR, r.Alpha)
	}
	return r.bgra
}

// Raster resolves (canvasID, layerID) to its external-data chunk, decodes
// the chunk's tile sequence, and reassembles it into full-canvas BGR and
// alpha planes. The canvas dimensions come from the layer's thumbnail
// record; a layer with no thumbnail record resolves to zero-sized planes.
func (d *Document) Raster(canvasID, layerID int64) (*RasterResult, error) {
	start := time.Now()

	result, ok, err := d.resolver.Resolve(canvasID, layerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: canvas %d layer %d has no resolvable raster data", errs.ErrExternalIDNotFound, canvasID, layerID)
	}

	chunk, found, err := decode.Find(d.env, result.ExternalID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", errs.ErrExternalIDNotFound, result.ExternalID)
	}

	decoded, err := decode.Decode(d.data, chunk)
	if err != nil {
		return nil, err
	}

	bgr, alpha, err := raster.Reassemble(decoded.Raw, int(result.ThumbWidth), int(result.ThumbHeight))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("canvas_id", canvasID).
		Int64("layer_id", layerID).
		Dur("elapsed", time.Since(start)).
		Msg("extracted layer raster")

	return &RasterResult{BGR: bgr, Alpha: alpha}, nil
}

