// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package ndarray

import (
	"errors"
	"reflect"
	"testing"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/types"
)

func TestArrayBinaryRoundTrip(t *testing.T) {
	buf := make([]byte, 12)
	for i := range buf {
		buf[i] = byte(i * 3)
	}
	arr, err := FromSlice(buf, []uint64{2, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	h := hash.New()
	if err := Set(h, "image", arr); err != nil {
		t.Fatal(err)
	}
	data, err := h.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	out := hash.New()
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	n, err := out.GetNode("image")
	if err != nil {
		t.Fatal(err)
	}
	if !IsNDArray(n) {
		t.Errorf("class id lost")
	}
	res, err := Get(out, "image")
	if err != nil {
		t.Fatal(err)
	}
	if res.Type != types.UInt8 {
		t.Errorf("type mismatch: have=%s want=UINT8", res.Type)
	}
	if !reflect.DeepEqual(res.Shape, []uint64{2, 2, 3}) {
		t.Errorf("shape mismatch: have=%v", res.Shape)
	}
	if res.BigEndian {
		t.Errorf("unexpected big endian flag")
	}
	if len(res.Data) != 12 {
		t.Errorf("data length mismatch: have=%d want=12", len(res.Data))
	}
	vals, err := res.Values()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(vals, buf) {
		t.Errorf("values mismatch: have=%v want=%v", vals, buf)
	}
	if typ, _ := out.GetType("image.shape"); typ != types.VectorUInt64 {
		t.Errorf("shape kind mismatch: have=%s", typ)
	}
	if typ, _ := out.GetType("image.data"); typ != types.ByteArray {
		t.Errorf("data kind mismatch: have=%s", typ)
	}
}

func TestArrayEndianness(t *testing.T) {
	arr, err := FromSlice([]uint16{0x0102, 0x0304}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Data, []byte{0x02, 0x01, 0x04, 0x03}) {
		t.Errorf("little endian layout mismatch: %x", arr.Data)
	}
	if !reflect.DeepEqual(arr.Shape, []uint64{2}) {
		t.Errorf("default shape mismatch: have=%v", arr.Shape)
	}
	big := arr.Clone()
	big.ToBigEndian()
	if !reflect.DeepEqual(big.Data, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("big endian layout mismatch: %x", big.Data)
	}
	vals, err := big.Values()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(vals, []uint16{0x0102, 0x0304}) {
		t.Errorf("big endian values mismatch: have=%v", vals)
	}
	if !arr.Equal(big) {
		t.Errorf("arrays must compare equal across byte orders")
	}

	c, err := FromSlice([]complex64{complex(1, 2)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	cb := c.Clone()
	cb.ToBigEndian()
	cb.ToLittleEndian()
	if !reflect.DeepEqual(cb.Data, c.Data) {
		t.Errorf("complex swap is not reversible")
	}
}

func TestArrayErrors(t *testing.T) {
	if _, err := FromSlice([]float64{1, 2, 3}, []uint64{2, 2}); !errors.Is(err, types.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch, have=%v", err)
	}
	if _, err := New(types.String, []uint64{1}); !errors.Is(err, types.ErrTypeMismatch) {
		t.Errorf("expected type mismatch for STRING elements, have=%v", err)
	}
	h := hash.New()
	_ = h.Set("a.type", int32(types.Double.Code()))
	_ = h.SetAs("a.data", []byte{1, 2, 3}, types.ByteArray)
	if _, err := Get(h, "a"); !errors.Is(err, types.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch for odd data length, have=%v", err)
	}
}

func TestArrayZeroFilled(t *testing.T) {
	arr, err := New(types.Int32, []uint64{3, 2})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Len() != 6 || len(arr.Data) != 24 {
		t.Errorf("size mismatch: len=%d bytes=%d", arr.Len(), len(arr.Data))
	}
	if err := arr.SetShape([]uint64{6}); err != nil {
		t.Errorf("reshape failed: %v", err)
	}
	back, err := FromHash(arr.ToHash())
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(arr) {
		t.Errorf("hash round-trip mismatch")
	}
}

func TestImageDefaults(t *testing.T) {
	arr, err := New(types.UInt16, []uint64{4, 5, 3})
	if err != nil {
		t.Fatal(err)
	}
	img, err := NewImage(arr, nil, EncodingUndefined, 0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Encoding != EncodingRGB {
		t.Errorf("encoding mismatch: have=%s want=RGB", img.Encoding)
	}
	if img.BitsPerPixel != 48 {
		t.Errorf("bits per pixel mismatch: have=%d want=48", img.BitsPerPixel)
	}
	if !reflect.DeepEqual(img.Dims, []uint64{4, 5, 3}) {
		t.Errorf("dims mismatch: have=%v", img.Dims)
	}
	if !reflect.DeepEqual(img.ROIOffsets, []uint64{0, 0, 0}) || !reflect.DeepEqual(img.Binning, []uint64{1, 1, 1}) {
		t.Errorf("roi/binning defaults mismatch: %v %v", img.ROIOffsets, img.Binning)
	}
	if err := img.SetROIOffsets([]uint64{1, 2}); !errors.Is(err, types.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch for ROI rank, have=%v", err)
	}
	if err := img.SetRotation(45); !errors.Is(err, types.ErrOptionViolation) {
		t.Errorf("expected option violation for rotation, have=%v", err)
	}
	img.SetBitsPerPixel(64)
	if img.BitsPerPixel != 48 {
		t.Errorf("bits per pixel not capped: have=%d", img.BitsPerPixel)
	}
	img.SetBitsPerPixel(12)
	if img.BitsPerPixel != 12 {
		t.Errorf("bits per pixel mismatch: have=%d want=12", img.BitsPerPixel)
	}

	gray, _ := New(types.UInt8, []uint64{2, 3})
	g, err := NewImage(gray, nil, EncodingUndefined, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g.Encoding != EncodingGray || g.BitsPerPixel != 8 {
		t.Errorf("gray defaults mismatch: %s %d", g.Encoding, g.BitsPerPixel)
	}
	if DefaultBitsPerPixel(EncodingBayer, types.UInt16) != 16 {
		t.Errorf("bayer default mismatch")
	}
	if DefaultBitsPerPixel(EncodingJPEG, types.UInt8) != 0 {
		t.Errorf("jpeg default must be undefined")
	}
}

func TestImageEncoded(t *testing.T) {
	blob, _ := FromSlice([]byte{0xff, 0xd8, 0xff, 0xe0}, nil)
	if _, err := NewImage(blob, nil, EncodingJPEG, 0); !errors.Is(err, types.ErrShapeMismatch) {
		t.Errorf("expected error for encoded image without dims, have=%v", err)
	}
	img, err := NewImage(blob, []uint64{480, 640}, EncodingJPEG, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(img.Pixels.Shape, []uint64{4}) {
		t.Errorf("encoded pixels must keep their shape: have=%v", img.Pixels.Shape)
	}
	flat, _ := New(types.Float, []uint64{12})
	if _, err := NewImage(flat, []uint64{5, 5}, EncodingGray, 0); !errors.Is(err, types.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch for wrong dims, have=%v", err)
	}
}

func TestImageHashRoundTrip(t *testing.T) {
	arr, _ := New(types.UInt8, []uint64{2, 2})
	img, err := NewImage(arr, nil, EncodingUndefined, 0)
	if err != nil {
		t.Fatal(err)
	}
	img.FlipX = true
	if err := img.SetRotation(Rot90); err != nil {
		t.Fatal(err)
	}
	if err := img.SetROIOffsets([]uint64{1, 1}); err != nil {
		t.Fatal(err)
	}
	h := hash.New()
	if err := SetImage(h, "frame", img); err != nil {
		t.Fatal(err)
	}
	buf, err := h.EncodeXML(hash.DefaultXML)
	if err != nil {
		t.Fatal(err)
	}
	out := hash.New()
	if err := out.DecodeXML(buf); err != nil {
		t.Fatal(err)
	}
	n, _ := out.GetNode("frame")
	if !IsImage(n) {
		t.Errorf("image class id lost")
	}
	back, err := GetImage(out, "frame")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, img) {
		t.Errorf("image round-trip mismatch:\nhave=%+v\nwant=%+v", back, img)
	}
}
