package clipdb

// CanvasPreview mirrors a row of the embedded database's CanvasPreview table.
type CanvasPreview struct {
	MainID      int64
	CanvasID    int64
	ImageData   []byte
	ImageWidth  int64
	ImageHeight int64
}

// Layer mirrors a row of the embedded database's Layer table.
type Layer struct {
	MainID               int64
	CanvasID             int64
	LayerName            string
	LayerUUID            string
	LayerRenderMipmap    int64
	LayerRenderThumbnail int64
}

// LayerThumbnail mirrors a row of the embedded database's LayerThumbnail table.
type LayerThumbnail struct {
	MainID                int64
	CanvasID              int64
	LayerID               int64
	ThumbnailCanvasWidth  int64
	ThumbnailCanvasHeight int64
	ThumbnailOffscreen    int64
}

// Offscreen mirrors a row of the embedded database's Offscreen table.
// BlockData is the external-data identifier string joined against CHNKExta
// chunk headers.
type Offscreen struct {
	MainID    int64
	CanvasID  int64
	LayerID   int64
	BlockData string
}

// Mipmap mirrors a row of the embedded database's Mipmap table.
type Mipmap struct {
	MainID         int64
	CanvasID       int64
	LayerID        int64
	MipmapCount    int64
	BaseMipmapInfo int64
}

// MipmapInfo mirrors a row of the embedded database's MipmapInfo table.
type MipmapInfo struct {
	MainID    int64
	CanvasID  int64
	LayerID   int64
	ThisScale float64
	Offscreen int64
	NextIndex int64
}

// Records holds the six flat record lists read from the embedded database,
// in the insertion order the source file enforces. Immutable after load.
type Records struct {
	CanvasPreviews  []CanvasPreview
	Layers          []Layer
	LayerThumbnails []LayerThumbnail
	Offscreens      []Offscreen
	Mipmaps         []Mipmap
	MipmapInfos     []MipmapInfo
}
