// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package ndarray

import (
	"fmt"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/types"
)

const (
	ImageClassID = "ImageData"

	KeyPixels       = "pixels"
	KeyDims         = "dims"
	KeyDimTypes     = "dimTypes"
	KeyDimScales    = "dimScales"
	KeyEncoding     = "encoding"
	KeyBitsPerPixel = "bitsPerPixel"
	KeyROIOffsets   = "roiOffsets"
	KeyBinning      = "binning"
	KeyRotation     = "rotation"
	KeyFlipX        = "flipX"
	KeyFlipY        = "flipY"
)

// Encoding describes the pixel color space or the compression format.
type Encoding int32

const (
	EncodingUndefined Encoding = iota - 1
	EncodingGray
	EncodingRGB
	EncodingRGBA
	EncodingBGR
	EncodingBGRA
	EncodingCMYK
	EncodingYUV
	EncodingBayer
	EncodingJPEG
	EncodingPNG
	EncodingBMP
	EncodingTIFF
	EncodingYUV444
	EncodingYUV422YUYV
	EncodingYUV422UYVY
	EncodingBayerRG
	EncodingBayerBG
	EncodingBayerGR
	EncodingBayerGB
)

var encodingNames = map[Encoding]string{
	EncodingUndefined:  "UNDEFINED",
	EncodingGray:       "GRAY",
	EncodingRGB:        "RGB",
	EncodingRGBA:       "RGBA",
	EncodingBGR:        "BGR",
	EncodingBGRA:       "BGRA",
	EncodingCMYK:       "CMYK",
	EncodingYUV:        "YUV",
	EncodingBayer:      "BAYER",
	EncodingJPEG:       "JPEG",
	EncodingPNG:        "PNG",
	EncodingBMP:        "BMP",
	EncodingTIFF:       "TIFF",
	EncodingYUV444:     "YUV444",
	EncodingYUV422YUYV: "YUV422_YUYV",
	EncodingYUV422UYVY: "YUV422_UYVY",
	EncodingBayerRG:    "BAYER_RG",
	EncodingBayerBG:    "BAYER_BG",
	EncodingBayerGR:    "BAYER_GR",
	EncodingBayerGB:    "BAYER_GB",
}

func (e Encoding) String() string {
	if s, ok := encodingNames[e]; ok {
		return s
	}
	return fmt.Sprintf("Encoding(%d)", int32(e))
}

func (e Encoding) IsValid() bool {
	_, ok := encodingNames[e]
	return ok
}

// IsIndexable reports whether pixels are addressable by position, i.e. the
// data is not a compressed image format.
func (e Encoding) IsIndexable() bool {
	switch e {
	case EncodingUndefined, EncodingJPEG, EncodingPNG, EncodingBMP, EncodingTIFF:
		return false
	}
	return e.IsValid()
}

// Rotation is the counterclockwise image rotation in degrees.
type Rotation int32

const (
	Rot0   Rotation = 0
	Rot90  Rotation = 90
	Rot180 Rotation = 180
	Rot270 Rotation = 270
)

func (r Rotation) IsValid() bool {
	switch r {
	case Rot0, Rot90, Rot180, Rot270:
		return true
	}
	return false
}

// DimensionType tags each image dimension.
type DimensionType int32

const (
	DimStack     DimensionType = -1
	DimUndefined DimensionType = 0
	DimData      DimensionType = 1
)

// ImageData is an NDArray with pixel metadata.
type ImageData struct {
	Pixels       *NDArray
	Dims         []uint64
	DimTypes     []int32
	DimScales    string
	Encoding     Encoding
	BitsPerPixel int32
	ROIOffsets   []uint64
	Binning      []uint64
	Rotation     Rotation
	FlipX        bool
	FlipY        bool
}

// NewImage wraps arr. An undefined encoding is guessed from the array
// shape, empty dims are taken from the shape, ROI offsets start at zero
// and binning at one. A non-positive bpp selects the encoding default.
func NewImage(arr *NDArray, dims []uint64, enc Encoding, bpp int) (*ImageData, error) {
	if arr == nil {
		return nil, types.NewError(types.KindShapeMismatch, KeyPixels, "missing pixel data")
	}
	if enc != EncodingUndefined && !enc.IsValid() {
		return nil, types.NewError(types.KindOptionViolation, KeyEncoding, fmt.Sprintf("invalid encoding %d", int32(enc)))
	}
	img := &ImageData{
		Pixels: arr.Clone(),
	}
	shape := arr.Shape
	if enc == EncodingUndefined {
		enc = guessEncoding(shape)
	}
	img.Encoding = enc
	if len(dims) == 0 {
		if !enc.IsIndexable() {
			return nil, types.NewError(types.KindShapeMismatch, KeyDims, "dimensions must be supplied for encoded images")
		}
		dims = shape
	} else if enc.IsIndexable() {
		if err := img.Pixels.SetShape(dims); err != nil {
			return nil, err.(*types.Error).WithPath(KeyDims)
		}
	}
	rank := len(dims)
	img.Dims = append([]uint64{}, dims...)
	img.DimTypes = make([]int32, rank)
	img.ROIOffsets = make([]uint64, rank)
	img.Binning = make([]uint64, rank)
	for i := range img.Binning {
		img.Binning[i] = 1
	}
	img.Rotation = Rot0
	img.SetBitsPerPixel(bpp)
	return img, nil
}

func guessEncoding(shape []uint64) Encoding {
	switch len(shape) {
	case 2:
		return EncodingGray
	case 3:
		switch shape[2] {
		case 3:
			return EncodingRGB
		case 4:
			return EncodingRGBA
		default:
			// a stack of gray images
			return EncodingGray
		}
	}
	return EncodingUndefined
}

// DefaultBitsPerPixel returns the bits per pixel implied by encoding and
// element kind, or zero when the encoding does not define it.
func DefaultBitsPerPixel(enc Encoding, t types.Type) int {
	size := t.Size()
	if size < 0 {
		size = 0
	}
	var factor int
	switch enc {
	case EncodingGray:
		factor = 1
	case EncodingBayer:
		return size * 8
	case EncodingRGB, EncodingBGR, EncodingYUV:
		factor = 3
	case EncodingRGBA, EncodingBGRA, EncodingCMYK:
		factor = 4
	}
	return factor * size * 8
}

// SetBitsPerPixel stores bpp capped at the encoding default. A non-positive
// value selects the default.
func (img *ImageData) SetBitsPerPixel(bpp int) {
	limit := DefaultBitsPerPixel(img.Encoding, img.Pixels.Type)
	switch {
	case bpp <= 0:
		bpp = limit
	case limit > 0 && bpp > limit:
		bpp = limit
	}
	img.BitsPerPixel = int32(bpp)
}

// SetROIOffsets sets the region of interest origin. Its rank must match
// the image dimensions.
func (img *ImageData) SetROIOffsets(offsets []uint64) error {
	if len(offsets) != len(img.Dims) {
		return types.NewError(types.KindShapeMismatch, KeyROIOffsets, fmt.Sprintf("ROI must have the same length as the image shape: %d", len(img.Dims)))
	}
	img.ROIOffsets = append([]uint64{}, offsets...)
	return nil
}

func (img *ImageData) SetBinning(binning []uint64) error {
	if len(binning) != len(img.Dims) {
		return types.NewError(types.KindShapeMismatch, KeyBinning, fmt.Sprintf("binning must have the same length as the image shape: %d", len(img.Dims)))
	}
	img.Binning = append([]uint64{}, binning...)
	return nil
}

func (img *ImageData) SetRotation(r Rotation) error {
	if !r.IsValid() {
		return types.NewError(types.KindOptionViolation, KeyRotation, fmt.Sprintf("rotation %d is not one of 0, 90, 180, 270", int32(r)))
	}
	img.Rotation = r
	return nil
}

// ToHash returns the Hash layout of the image.
func (img *ImageData) ToHash() *hash.Hash {
	h := hash.New()
	_ = Set(h, KeyPixels, img.Pixels)
	_ = h.SetAs(KeyDims, img.Dims, types.VectorUInt64)
	_ = h.SetAs(KeyDimTypes, img.DimTypes, types.VectorInt32)
	_ = h.Set(KeyDimScales, img.DimScales)
	_ = h.Set(KeyEncoding, int32(img.Encoding))
	_ = h.Set(KeyBitsPerPixel, img.BitsPerPixel)
	_ = h.SetAs(KeyROIOffsets, img.ROIOffsets, types.VectorUInt64)
	_ = h.SetAs(KeyBinning, img.Binning, types.VectorUInt64)
	_ = h.Set(KeyRotation, int32(img.Rotation))
	_ = h.Set(KeyFlipX, img.FlipX)
	_ = h.Set(KeyFlipY, img.FlipY)
	return h
}

// ImageFromHash reads the Hash layout of an image. Missing metadata falls
// back to the defaults of NewImage.
func ImageFromHash(h *hash.Hash) (*ImageData, error) {
	arr, err := Get(h, KeyPixels)
	if err != nil {
		return nil, err
	}
	enc := EncodingUndefined
	if h.Has(KeyEncoding) {
		v, err := h.GetAs(KeyEncoding, types.Int32)
		if err != nil {
			return nil, err
		}
		enc = Encoding(v.(int32))
	}
	var dims []uint64
	if h.Has(KeyDims) {
		v, err := h.GetAs(KeyDims, types.VectorUInt64)
		if err != nil {
			return nil, err
		}
		dims = v.([]uint64)
	}
	bpp := 0
	if h.Has(KeyBitsPerPixel) {
		v, err := h.GetAs(KeyBitsPerPixel, types.Int32)
		if err != nil {
			return nil, err
		}
		bpp = int(v.(int32))
	}
	img, err := NewImage(arr, dims, enc, bpp)
	if err != nil {
		return nil, err
	}
	if h.Has(KeyDimTypes) {
		v, err := h.GetAs(KeyDimTypes, types.VectorInt32)
		if err != nil {
			return nil, err
		}
		img.DimTypes = v.([]int32)
	}
	if v, err := hash.GetValue[string](h, KeyDimScales); err == nil {
		img.DimScales = v
	}
	if h.Has(KeyROIOffsets) {
		v, err := h.GetAs(KeyROIOffsets, types.VectorUInt64)
		if err != nil {
			return nil, err
		}
		if err := img.SetROIOffsets(v.([]uint64)); err != nil {
			return nil, err
		}
	}
	if h.Has(KeyBinning) {
		v, err := h.GetAs(KeyBinning, types.VectorUInt64)
		if err != nil {
			return nil, err
		}
		if err := img.SetBinning(v.([]uint64)); err != nil {
			return nil, err
		}
	}
	if h.Has(KeyRotation) {
		v, err := h.GetAs(KeyRotation, types.Int32)
		if err != nil {
			return nil, err
		}
		if err := img.SetRotation(Rotation(v.(int32))); err != nil {
			return nil, err
		}
	}
	if v, err := hash.GetValue[bool](h, KeyFlipX); err == nil {
		img.FlipX = v
	}
	if v, err := hash.GetValue[bool](h, KeyFlipY); err == nil {
		img.FlipY = v
	}
	return img, nil
}

// SetImage stores img at path and tags the node with the ImageData class id.
func SetImage(h *hash.Hash, path string, img *ImageData) error {
	if err := h.Set(path, img.ToHash()); err != nil {
		return err
	}
	return h.SetAttribute(path, ClassIDAttr, ImageClassID)
}

// GetImage reads the image stored at path.
func GetImage(h *hash.Hash, path string) (*ImageData, error) {
	sub, err := h.GetHash(path)
	if err != nil {
		return nil, err
	}
	return ImageFromHash(sub)
}

// IsImage reports whether node n carries an ImageData payload.
func IsImage(n *hash.Node) bool {
	if n == nil || n.Type() != types.Hash {
		return false
	}
	v, err := n.Attributes().Get(ClassIDAttr)
	return err == nil && v == ImageClassID
}
