package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	log "github.com/rs/zerolog/log"

	clipraster "github.com/rkuga/clipraster"
)

func main() {
	var (
		canvasID int64
		layerID  int64
		verbose  bool
		outDir   string
	)

	flag.Int64Var(&canvasID, "canvas", -1, "Canvas ID of the layer to extract (default: list layers instead)")
	flag.Int64Var(&layerID, "layer", -1, "Layer ID of the layer to extract")
	flag.BoolVar(&verbose, "verbose", false, "Verbose debug logging")
	flag.StringVar(&outDir, "out", ".", "Directory to write extracted PNGs into")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clipraster [flags] <file.clip>\n\n")
		fmt.Fprintf(os.Stderr, "List layers in a Clip Studio Paint document, or extract one layer's raster as PNG.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := args[0]

	doc, err := clipraster.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("opening clip document")
	}
	defer doc.Close()

	if canvasID < 0 || layerID < 0 {
		listLayers(doc)
		return
	}

	if err := extractLayer(doc, canvasID, layerID, outDir, verbose); err != nil {
		log.Fatal().Err(err).Int64("canvas_id", canvasID).Int64("layer_id", layerID).Msg("extracting layer raster")
	}
}

func listLayers(doc *clipraster.Document) {
	layers := doc.Layers()
	fmt.Printf("%d layer(s):\n", len(layers))
	for _, l := range layers {
		fmt.Println(l.String())
	}
}

func extractLayer(doc *clipraster.Document, canvasID, layerID int64, outDir string, verbose bool) error {
	result, err := doc.Raster(canvasID, layerID)
	if err != nil {
		return err
	}

	base := fmt.Sprintf("canvas%d_layer%d", canvasID, layerID)

	bgrPath := filepath.Join(outDir, base+"_bgr.png")
	if err := writeImagePNG(bgrPath, result.BGR); err != nil {
		return err
	}

	alphaPath := filepath.Join(outDir, base+"_alpha.png")
	if err := writeImagePNG(alphaPath, result.Alpha); err != nil {
		return err
	}

	bgraPath := filepath.Join(outDir, base+"_bgra.png")
	if err := writeImagePNG(bgraPath, result.BGRA()); err != nil {
		return err
	}

	if verbose {
		for _, p := range []string{bgrPath, alphaPath, bgraPath} {
			if fi, err := os.Stat(p); err == nil {
				log.Debug().Str("path", p).Str("size", humanize.Bytes(uint64(fi.Size()))).Msg("wrote PNG")
			}
		}
	}

	fmt.Printf("Wrote %s, %s, %s\n", bgrPath, alphaPath, bgraPath)
	return nil
}

func writeImagePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
