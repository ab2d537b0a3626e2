// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/ndarray"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// NodeElement builds a node that groups child descriptors. Children are
// added with their full dotted path after the node is committed.
type NodeElement struct {
	d descriptor
}

func Node(s *Schema) *NodeElement {
	e := &NodeElement{d: newDescriptor(s, NodeNode)}
	e.d.set(AttrAccessMode, int32(AccessAll))
	return e
}

// Slot describes a command. Slots carry no configuration.
func Slot(s *Schema) *NodeElement {
	e := Node(s)
	e.d.set(AttrClassID, ClassSlot)
	e.d.set(AttrDisplayType, DisplaySlot)
	e.d.set(AttrLeafType, int32(LeafCommand))
	e.d.set(AttrRequiredAccessLevel, int32(AccessLevelUser))
	return e
}

// OutputSchema describes the data schema of an output channel. Its
// configuration is always empty.
func OutputSchema(s *Schema) *NodeElement {
	e := Node(s)
	e.d.set(AttrDisplayType, DisplayOutputSchema)
	return e
}

func (e *NodeElement) Key(key string) *NodeElement {
	e.d.setKey(key)
	return e
}

func (e *NodeElement) DisplayedName(name string) *NodeElement {
	e.d.set(AttrDisplayedName, name)
	return e
}

func (e *NodeElement) Description(desc string) *NodeElement {
	e.d.set(AttrDescription, desc)
	return e
}

func (e *NodeElement) Alias(v any) *NodeElement {
	e.d.set(AttrAlias, v)
	return e
}

func (e *NodeElement) Tags(tags ...string) *NodeElement {
	e.d.setTags(tags)
	return e
}

func (e *NodeElement) DisplayType(t string) *NodeElement {
	e.d.set(AttrDisplayType, t)
	return e
}

// ClassID tags the node with the class whose configuration it holds.
func (e *NodeElement) ClassID(id string) *NodeElement {
	e.d.set(AttrClassID, id)
	return e
}

func (e *NodeElement) RequiredAccessLevel(l AccessLevel) *NodeElement {
	e.d.set(AttrRequiredAccessLevel, int32(l))
	return e
}

func (e *NodeElement) AllowedStates(list ...state.State) *NodeElement {
	e.d.setStates(list)
	return e
}

func (e *NodeElement) Commit() error {
	return e.d.install(hash.New())
}

// NDArrayElement describes a read-only NDArray of fixed element kind. A
// zero entry in shape accepts any extent in that dimension.
type NDArrayElement struct {
	d     descriptor
	typ   types.Type
	shape []uint64
}

func NDArray(s *Schema, t types.Type, shape ...uint64) *NDArrayElement {
	e := &NDArrayElement{
		d:     newDescriptor(s, NodeNode),
		typ:   t,
		shape: shape,
	}
	if t.Category() != types.CategorySimple || t.Size() <= 0 {
		e.d.failf(types.KindDescriptorInvalid, "%s is not an array element kind", t)
	}
	e.d.set(AttrClassID, ClassNDArray)
	e.d.set(AttrDisplayType, ClassNDArray)
	e.d.set(AttrAccessMode, int32(AccessRead))
	e.d.set(AttrRequiredAccessLevel, int32(AccessLevelObserver))
	return e
}

func (e *NDArrayElement) Key(key string) *NDArrayElement {
	e.d.setKey(key)
	return e
}

func (e *NDArrayElement) DisplayedName(name string) *NDArrayElement {
	e.d.set(AttrDisplayedName, name)
	return e
}

func (e *NDArrayElement) Description(desc string) *NDArrayElement {
	e.d.set(AttrDescription, desc)
	return e
}

func (e *NDArrayElement) Unit(u Unit) *NDArrayElement {
	if !u.IsValid() {
		e.d.failf(types.KindDescriptorInvalid, "invalid unit %d", int32(u))
		return e
	}
	e.d.set(AttrUnitEnum, int32(u))
	e.d.set(AttrUnitName, u.String())
	e.d.set(AttrUnitSymbol, u.Symbol())
	return e
}

func (e *NDArrayElement) Commit() error {
	if err := e.d.install(hash.New()); err != nil {
		return err
	}
	return installArrayChildren(e.d.s, e.d.key, e.typ, e.shape)
}

// installArrayChildren describes the Hash layout of an NDArray below path.
func installArrayChildren(s *Schema, path string, t types.Type, shape []uint64) error {
	children := []*LeafElement{
		Bytes(s).Key(joinPath(path, ndarray.KeyData)).ReadOnly(),
		Int32(s).Key(joinPath(path, ndarray.KeyType)).ReadOnly().Default(int32(t.Code())),
		Vector(s, types.UInt64).Key(joinPath(path, ndarray.KeyShape)).ReadOnly().Default(append([]uint64{}, shape...)),
		Bool(s).Key(joinPath(path, ndarray.KeyBigEndian)).ReadOnly().Default(false),
	}
	for _, c := range children {
		if err := c.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// ImageElement describes a read-only ImageData. Dims and element kind
// constrain the pixel array the same way NDArrayElement does.
type ImageElement struct {
	d    descriptor
	typ  types.Type
	dims []uint64
	enc  ndarray.Encoding
}

func Image(s *Schema) *ImageElement {
	e := &ImageElement{
		d:   newDescriptor(s, NodeNode),
		typ: types.UInt8,
		enc: ndarray.EncodingUndefined,
	}
	e.d.set(AttrClassID, ClassImageData)
	e.d.set(AttrDisplayType, ClassImageData)
	e.d.set(AttrAccessMode, int32(AccessRead))
	e.d.set(AttrRequiredAccessLevel, int32(AccessLevelObserver))
	return e
}

func (e *ImageElement) Key(key string) *ImageElement {
	e.d.setKey(key)
	return e
}

func (e *ImageElement) DisplayedName(name string) *ImageElement {
	e.d.set(AttrDisplayedName, name)
	return e
}

func (e *ImageElement) Description(desc string) *ImageElement {
	e.d.set(AttrDescription, desc)
	return e
}

func (e *ImageElement) Dims(dims ...uint64) *ImageElement {
	e.dims = dims
	return e
}

func (e *ImageElement) ElementType(t types.Type) *ImageElement {
	if t.Category() != types.CategorySimple || t.Size() <= 0 {
		e.d.failf(types.KindDescriptorInvalid, "%s is not a pixel kind", t)
		return e
	}
	e.typ = t
	return e
}

func (e *ImageElement) Encoding(enc ndarray.Encoding) *ImageElement {
	if !enc.IsValid() {
		e.d.failf(types.KindDescriptorInvalid, "invalid encoding %d", int32(enc))
		return e
	}
	e.enc = enc
	return e
}

func (e *ImageElement) Commit() error {
	if err := e.d.install(hash.New()); err != nil {
		return err
	}
	s, path := e.d.s, e.d.key
	px := joinPath(path, ndarray.KeyPixels)
	if err := NDArray(s, e.typ, e.dims...).Key(px).Commit(); err != nil {
		return err
	}
	children := []*LeafElement{
		Vector(s, types.UInt64).Key(joinPath(path, ndarray.KeyDims)).ReadOnly().Default(append([]uint64{}, e.dims...)),
		Vector(s, types.Int32).Key(joinPath(path, ndarray.KeyDimTypes)).ReadOnly(),
		String(s).Key(joinPath(path, ndarray.KeyDimScales)).ReadOnly(),
		Int32(s).Key(joinPath(path, ndarray.KeyEncoding)).ReadOnly().Default(int32(e.enc)),
		Int32(s).Key(joinPath(path, ndarray.KeyBitsPerPixel)).ReadOnly(),
		Vector(s, types.UInt64).Key(joinPath(path, ndarray.KeyROIOffsets)).ReadOnly(),
		Vector(s, types.UInt64).Key(joinPath(path, ndarray.KeyBinning)).ReadOnly(),
		Int32(s).Key(joinPath(path, ndarray.KeyRotation)).ReadOnly(),
		Bool(s).Key(joinPath(path, ndarray.KeyFlipX)).ReadOnly(),
		Bool(s).Key(joinPath(path, ndarray.KeyFlipY)).ReadOnly(),
	}
	for _, c := range children {
		if err := c.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// ChoiceElement describes a node whose configuration selects exactly one
// of its child nodes.
type ChoiceElement struct {
	d descriptor
}

func Choice(s *Schema) *ChoiceElement {
	e := &ChoiceElement{d: newDescriptor(s, NodeChoiceOfNodes)}
	e.d.set(AttrAccessMode, int32(AccessInit))
	e.d.set(AttrAssignment, int32(AssignmentOptional))
	return e
}

func (e *ChoiceElement) Key(key string) *ChoiceElement {
	e.d.setKey(key)
	return e
}

func (e *ChoiceElement) DisplayedName(name string) *ChoiceElement {
	e.d.set(AttrDisplayedName, name)
	return e
}

func (e *ChoiceElement) Description(desc string) *ChoiceElement {
	e.d.set(AttrDescription, desc)
	return e
}

func (e *ChoiceElement) Tags(tags ...string) *ChoiceElement {
	e.d.setTags(tags)
	return e
}

func (e *ChoiceElement) Mandatory() *ChoiceElement {
	e.d.set(AttrAssignment, int32(AssignmentMandatory))
	return e
}

func (e *ChoiceElement) Reconfigurable() *ChoiceElement {
	e.d.set(AttrAccessMode, int32(AccessWrite))
	return e
}

// Default names the option chosen when the configuration omits the choice.
func (e *ChoiceElement) Default(option string) *ChoiceElement {
	e.d.set(AttrDefaultValue, option)
	return e
}

func (e *ChoiceElement) Commit() error {
	defaultAccessLevel(e.d.attrs)
	return e.d.install(hash.New())
}

// ListElement describes a node whose configuration is an ordered list of
// its child nodes, each usable any number of times.
type ListElement struct {
	d descriptor
}

func List(s *Schema) *ListElement {
	e := &ListElement{d: newDescriptor(s, NodeListOfNodes)}
	e.d.set(AttrAccessMode, int32(AccessInit))
	e.d.set(AttrAssignment, int32(AssignmentOptional))
	return e
}

func (e *ListElement) Key(key string) *ListElement {
	e.d.setKey(key)
	return e
}

func (e *ListElement) DisplayedName(name string) *ListElement {
	e.d.set(AttrDisplayedName, name)
	return e
}

func (e *ListElement) Description(desc string) *ListElement {
	e.d.set(AttrDescription, desc)
	return e
}

func (e *ListElement) Tags(tags ...string) *ListElement {
	e.d.setTags(tags)
	return e
}

func (e *ListElement) Mandatory() *ListElement {
	e.d.set(AttrAssignment, int32(AssignmentMandatory))
	return e
}

func (e *ListElement) Reconfigurable() *ListElement {
	e.d.set(AttrAccessMode, int32(AccessWrite))
	return e
}

// Min sets the least number of list entries.
func (e *ListElement) Min(n uint32) *ListElement {
	e.d.set(AttrMin, n)
	return e
}

// Max sets the largest number of list entries.
func (e *ListElement) Max(n uint32) *ListElement {
	e.d.set(AttrMax, n)
	return e
}

// Default names the options used when the configuration omits the list.
func (e *ListElement) Default(options ...string) *ListElement {
	e.d.setAs(AttrDefaultValue, options, types.VectorString)
	return e
}

func (e *ListElement) Commit() error {
	if lo, ok := attrUint(e.d.attrs, AttrMin); ok {
		if hi, ok := attrUint(e.d.attrs, AttrMax); ok && lo > hi {
			return types.NewError(types.KindDescriptorInvalid, e.d.key, "min is greater than max")
		}
	}
	defaultAccessLevel(e.d.attrs)
	return e.d.install(hash.New())
}
