// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/ndarray"
	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// UnknownKeyPolicy decides what happens to input keys the schema does not
// describe.
type UnknownKeyPolicy int

const (
	RejectUnknown UnknownKeyPolicy = iota
	PassUnknown
	StripUnknown
)

func (p UnknownKeyPolicy) String() string {
	switch p {
	case RejectUnknown:
		return "reject"
	case PassUnknown:
		return "pass"
	case StripUnknown:
		return "strip"
	default:
		return fmt.Sprintf("UnknownKeyPolicy(%d)", int(p))
	}
}

func ParseUnknownKeyPolicy(s string) (UnknownKeyPolicy, error) {
	switch strings.ToLower(s) {
	case "", "reject":
		return RejectUnknown, nil
	case "pass":
		return PassUnknown, nil
	case "strip":
		return StripUnknown, nil
	default:
		return 0, fmt.Errorf("invalid unknown key policy '%s'", s)
	}
}

type Rules struct {
	InjectDefaults             bool
	AllowMissingKeys           bool
	AllowUnrootedConfiguration bool
	InjectTimestamps           bool
	ForceInjectedTimestamp     bool
	UnknownKeys                UnknownKeyPolicy
}

var (
	// DefaultRules complete a full configuration.
	DefaultRules = Rules{
		InjectDefaults:             true,
		AllowUnrootedConfiguration: true,
	}

	// TableRules apply to the rows of a table.
	TableRules = Rules{
		InjectDefaults:             true,
		AllowUnrootedConfiguration: true,
	}

	// ReconfigureRules check a partial update without completing it.
	ReconfigureRules = Rules{
		AllowMissingKeys:           true,
		AllowUnrootedConfiguration: true,
	}
)

// userOnly reports whether only the keys present in the input are checked.
func (r Rules) userOnly() bool {
	return !r.InjectDefaults && r.UnknownKeys == RejectUnknown && r.AllowMissingKeys && r.AllowUnrootedConfiguration
}

// Timestamp is attached to validated leaves as sec, frac and tid attributes.
type Timestamp struct {
	Sec  uint64
	Frac uint64
	Tid  uint64
}

func (t Timestamp) apply(attrs *hash.Attributes, force bool) {
	if !force && attrs.Has(AttrSec) && attrs.Has(AttrFrac) && attrs.Has(AttrTid) {
		return
	}
	_ = attrs.Set(AttrSec, t.Sec)
	_ = attrs.Set(AttrFrac, t.Frac)
	_ = attrs.Set(AttrTid, t.Tid)
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Issues []*types.Error
}

func (e *ValidationError) Error() string {
	s := make([]string, len(e.Issues))
	for i, v := range e.Issues {
		s[i] = v.Error()
	}
	return strings.Join(s, "\n")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, v := range e.Issues {
		errs[i] = v
	}
	return errs
}

// Validator checks configurations against a schema and produces their
// canonical form. A Validator is not safe for concurrent use.
type Validator struct {
	rules          Rules
	ts             Timestamp
	issues         []*types.Error
	reconfigurable bool
}

func NewValidator(r Rules) *Validator {
	return &Validator{rules: r}
}

func (v *Validator) Rules() Rules {
	return v.rules
}

// HasReconfigurableParameter reports whether the last validated input set
// a reconfigurable leaf.
func (v *Validator) HasReconfigurableParameter() bool {
	return v.reconfigurable
}

// Validate checks in against s and returns the canonical configuration. The
// input is not modified.
func (v *Validator) Validate(s *Schema, in *hash.Hash) (*hash.Hash, error) {
	return v.ValidateAt(s, in, Timestamp{})
}

// ValidateAt is Validate with ts injected on leaves when the rules ask for
// timestamps.
func (v *Validator) ValidateAt(s *Schema, in *hash.Hash, ts Timestamp) (*hash.Hash, error) {
	v.ts = ts
	v.issues = v.issues[:0]
	v.reconfigurable = false
	if in == nil {
		in = hash.New()
	}
	out := hash.New()
	if v.rules.AllowUnrootedConfiguration {
		v.validate(s.h, in, out, "")
	} else {
		if in.Len() != 1 {
			return nil, &ValidationError{Issues: []*types.Error{types.NewError(types.KindTypeMismatch, "",
				"expecting a rooted input with exactly one top level key")}}
		}
		root := in.Nodes()[0]
		if root.Key() != s.name {
			return nil, &ValidationError{Issues: []*types.Error{types.NewError(types.KindUnknownKey, root.Key(),
				fmt.Sprintf("schema describes class '%s', input configures '%s'", s.name, root.Key()))}}
		}
		if !root.IsHash() {
			return nil, &ValidationError{Issues: []*types.Error{types.NewError(types.KindTypeMismatch, root.Key(),
				"root node must be of kind HASH")}}
		}
		sub := hash.New()
		_ = out.Set(root.Key(), sub)
		sub, _ = out.GetHash(root.Key())
		v.validate(s.h, root.Hash(), sub, root.Key())
	}
	if len(v.issues) > 0 {
		err := &ValidationError{Issues: append([]*types.Error{}, v.issues...)}
		log.Debugf("schema %s: validation failed: %v", s.name, err)
		return nil, err
	}
	return out, nil
}

func (v *Validator) fail(kind types.ErrorKind, path, format string, args ...any) {
	v.issues = append(v.issues, types.NewError(kind, path, fmt.Sprintf(format, args...)))
}

func (v *Validator) failErr(kind types.ErrorKind, path, msg string, err error) {
	v.issues = append(v.issues, types.WrapError(kind, path, msg, err))
}

func isOutputSchema(n *hash.Node) bool {
	t, err := n.Attributes().Get(AttrDisplayType)
	return err == nil && t == DisplayOutputSchema
}

func nodeClassID(n *hash.Node) string {
	c, err := n.Attributes().Get(AttrClassID)
	if err != nil {
		return ""
	}
	s, _ := c.(string)
	return s
}

func assignmentOf(n *hash.Node) Assignment {
	a, err := n.Attributes().GetAs(AttrAssignment, types.Int32)
	if err != nil {
		return AssignmentOptional
	}
	return Assignment(a.(int32))
}

// onlyEmptyHashes reports whether n is a tree of Hashes ending in empty
// Hashes.
func onlyEmptyHashes(n *hash.Node) bool {
	if !n.IsHash() {
		return false
	}
	for _, c := range n.Hash().Nodes() {
		if !onlyEmptyHashes(c) {
			return false
		}
	}
	return true
}

func (v *Validator) validate(master, user, work *hash.Hash, scope string) {
	if v.rules.userOnly() {
		v.validateUserOnly(master, user, work, scope)
		return
	}
	seen := make(map[string]bool, user.Len())
	for _, m := range master.Nodes() {
		key := m.Key()
		path := joinPath(scope, key)
		u, has := user.Node(key)
		if has {
			seen[key] = true
		}
		switch nodeTypeOf(m) {
		case NodeLeaf:
			v.leafNode(m, u, work, path)
		case NodeNode:
			v.nodeNode(m, u, work, path)
		case NodeChoiceOfNodes:
			v.choiceNode(m, u, work, path)
		case NodeListOfNodes:
			v.listNode(m, u, work, path)
		}
	}
	for _, u := range user.Nodes() {
		if !seen[u.Key()] {
			v.unknown(u, work, joinPath(scope, u.Key()))
		}
	}
}

// validateUserOnly checks the input keys without completing missing ones.
func (v *Validator) validateUserOnly(master, user, work *hash.Hash, scope string) {
	for _, u := range user.Nodes() {
		path := joinPath(scope, u.Key())
		m, ok := master.Node(u.Key())
		if !ok {
			v.unknown(u, work, path)
			continue
		}
		switch nodeTypeOf(m) {
		case NodeLeaf:
			v.leafNode(m, u, work, path)
		case NodeNode:
			v.nodeNode(m, u, work, path)
		case NodeChoiceOfNodes:
			v.choiceNode(m, u, work, path)
		case NodeListOfNodes:
			v.listNode(m, u, work, path)
		}
	}
}

func (v *Validator) unknown(u *hash.Node, work *hash.Hash, path string) {
	switch v.rules.UnknownKeys {
	case PassUnknown:
		_ = work.SetNode(u.Key(), u)
	case StripUnknown:
		log.Tracef("stripped unknown key %s", path)
	default:
		v.fail(types.KindUnknownKey, path, "encountered unexpected configuration parameter")
	}
}

// ----------------------------------------------------------------------------
// leaves

func (v *Validator) leafNode(m, u *hash.Node, work *hash.Hash, path string) {
	key := m.Key()
	classID := nodeClassID(m)
	if u == nil {
		if assignmentOf(m) == AssignmentMandatory {
			if !v.rules.AllowMissingKeys {
				v.fail(types.KindMissingMandatory, path, "missing mandatory parameter")
			}
			return
		}
		def, ok := m.Attributes().Lookup(AttrDefaultValue)
		if !ok || !v.rules.InjectDefaults {
			return
		}
		tmp := hash.New()
		if err := tmp.SetAs(key, def.Value(), def.Type()); err != nil {
			v.failErr(types.KindDescriptorInvalid, path, "invalid default value", err)
			return
		}
		n, _ := tmp.Node(key)
		if err := work.SetNode(key, n); err != nil {
			v.failErr(types.KindDescriptorInvalid, path, "invalid default value", err)
			return
		}
		w, _ := work.Node(key)
		markClass(w, classID)
		v.checkLeaf(m, w, path)
		return
	}
	if err := work.SetNode(key, u); err != nil {
		v.failErr(types.KindTypeMismatch, path, "cannot copy value", err)
		return
	}
	w, _ := work.Node(key)
	if c, err := u.Attributes().Get(AttrHashClassID); err == nil {
		if s, ok := c.(string); ok {
			markClass(w, s)
		}
	}
	v.checkLeaf(m, w, path)
}

// markClass tags a leaf with its class and the matching indication flag.
func markClass(w *hash.Node, classID string) {
	switch classID {
	case "":
		return
	case ClassState:
		_ = w.Attributes().Set(AttrIndicateState, true)
	case ClassAlarmCondition:
		_ = w.Attributes().Set(AttrIndicateAlarm, true)
	}
	_ = w.Attributes().Set(AttrHashClassID, classID)
}

func (v *Validator) checkLeaf(m, w *hash.Node, path string) {
	if v.rules.InjectTimestamps {
		v.ts.apply(w.Attributes(), v.rules.ForceInjectedTimestamp)
	}
	vt, err := m.Attributes().GetAs(AttrValueType, types.String)
	if err != nil {
		v.failErr(types.KindDescriptorInvalid, path, "leaf has no value type", err)
		return
	}
	ref, err := types.ParseType(vt.(string))
	if err != nil {
		v.failErr(types.KindDescriptorInvalid, path, "leaf has invalid value type", err)
		return
	}
	if given := w.Type(); given != ref {
		switch {
		case ref == types.VectorHash && given == types.VectorString && types.Len(w.Value()) == 0:
			_ = w.SetValue([]*hash.Hash{})
		case given == types.None && w.Attributes().Has("isAliasing"):
		case given == types.String && ref.IsNumeric() && m.Attributes().Has(AttrUnitEnum):
			if !v.castQuantity(m, w, ref, path) {
				return
			}
		default:
			if err := w.SetType(ref); err != nil {
				v.failErr(types.KindConversionFailed, path,
					fmt.Sprintf("failed to cast the value from %s to %s", given, ref), err)
				return
			}
		}
	}

	classID := nodeClassID(m)
	if classID == ClassState {
		s, _ := w.Value().(string)
		if _, err := state.FromString(s); err != nil {
			v.fail(types.KindStateViolation, path, "value '%s' is not a valid state string", s)
		} else if !w.Attributes().Has(AttrIndicateState) {
			_ = w.Attributes().Set(AttrIndicateState, true)
		}
	} else if w.Attributes().Has(AttrIndicateState) {
		v.fail(types.KindStateViolation, path, "state indication set on a non-state element")
	}
	if classID == ClassAlarmCondition {
		s, _ := w.Value().(string)
		if _, err := state.ParseAlarmCondition(s); err != nil {
			v.fail(types.KindStateViolation, path, "value '%s' is not a valid alarm string", s)
		} else if !w.Attributes().Has(AttrIndicateAlarm) {
			_ = w.Attributes().Set(AttrIndicateAlarm, true)
		}
	} else if w.Attributes().Has(AttrIndicateAlarm) {
		v.fail(types.KindStateViolation, path, "alarm indication set on a non-alarm element")
	}

	if mode, err := m.Attributes().GetAs(AttrAccessMode, types.Int32); err == nil && AccessMode(mode.(int32)) == AccessWrite {
		v.reconfigurable = true
	}
	if w.Type() != ref {
		// aliasing table cell
		return
	}
	errs := checkValue(m.Attributes(), ref, w.Value(), path)
	v.issues = append(v.issues, errs...)
	if len(errs) == 0 && ref == types.VectorHash {
		v.checkTable(m, w, path)
	}
}

// castQuantity converts a string with unit suffix like "5 mm" into the
// descriptor's unit and prefix.
func (v *Validator) castQuantity(m, w *hash.Node, ref types.Type, path string) bool {
	u, _ := m.Attributes().GetAs(AttrUnitEnum, types.Int32)
	p := PrefixNone
	if x, err := m.Attributes().GetAs(AttrMetricPrefixEnum, types.Int32); err == nil {
		p = MetricPrefix(x.(int32))
	}
	f, err := ParseQuantity(w.Value().(string), Unit(u.(int32)), p)
	if err != nil {
		v.failErr(types.KindConversionFailed, path, "cannot read quantity", err)
		return false
	}
	x, err := types.Convert(f, ref)
	if err != nil {
		v.failErr(types.KindConversionFailed, path,
			fmt.Sprintf("quantity %v does not fit %s", f, ref), err)
		return false
	}
	if err := w.SetValue(x); err != nil {
		v.failErr(types.KindConversionFailed, path, "cannot store quantity", err)
		return false
	}
	return true
}

// checkTable validates and canonicalizes the rows of a table.
func (v *Validator) checkTable(m, w *hash.Node, path string) {
	rs, err := m.Attributes().Get(AttrRowSchema)
	if err != nil {
		return
	}
	sch, ok := rs.(*hash.Schema)
	if !ok {
		v.fail(types.KindDescriptorInvalid, path, "row schema is not of kind SCHEMA")
		return
	}
	row := FromHash(sch)
	rows := w.Hashes()
	out := make([]*hash.Hash, len(rows))
	rv := NewValidator(TableRules)
	for i, r := range rows {
		res, err := rv.Validate(row, r)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				for _, e := range verr.Issues {
					x := e.WithPath(fmt.Sprintf("%s[%d]", path, i) + prefixed(e.Path))
					v.issues = append(v.issues, x)
				}
			} else {
				v.failErr(types.KindTypeMismatch, fmt.Sprintf("%s[%d]", path, i), "invalid row", err)
			}
			return
		}
		out[i] = res
	}
	_ = w.SetValue(out)
}

func prefixed(path string) string {
	if path == "" {
		return ""
	}
	return hash.Separator + path
}

// ----------------------------------------------------------------------------
// nodes

func (v *Validator) nodeNode(m, u *hash.Node, work *hash.Hash, path string) {
	key := m.Key()
	classID := nodeClassID(m)
	if isOutputSchema(m) {
		_ = work.Set(key, hash.New())
		if u != nil && !onlyEmptyHashes(u) {
			v.fail(types.KindUnknownKey, path, "configuring output channel schema is not allowed")
		}
		return
	}
	if classID == ClassSlot {
		if u != nil && (!u.IsHash() || !u.Hash().Empty()) {
			v.fail(types.KindUnknownKey, path, "configuration provided for slot")
		}
		return
	}
	if u == nil {
		if v.rules.InjectDefaults {
			_ = work.Set(key, hash.New())
			w, _ := work.Node(key)
			if classID != "" {
				_ = w.Attributes().Set(AttrHashClassID, classID)
			}
			v.validate(m.Hash(), hash.New(), w.Hash(), path)
		} else {
			v.validate(m.Hash(), hash.New(), hash.New(), path)
		}
		return
	}
	if !u.IsHash() {
		if classID == "" {
			v.fail(types.KindTypeMismatch, path, "expecting HASH, not %s", u.Type())
			return
		}
		_ = work.SetNode(key, u)
		w, _ := work.Node(key)
		_ = w.Attributes().Set(AttrHashClassID, classID)
		return
	}
	switch classID {
	case ClassNDArray:
		v.arrayNode(m, u, work, path)
		return
	case ClassImageData:
		v.imageNode(m, u, work, path)
		return
	}
	_ = work.Set(key, hash.New())
	w, _ := work.Node(key)
	if classID != "" {
		_ = w.Attributes().Set(AttrHashClassID, classID)
	}
	v.validate(m.Hash(), u.Hash(), w.Hash(), path)
}

// arraySpec reads element kind and shape declared for an NDArray node. A
// zero shape entry matches any extent.
func arraySpec(m *hash.Hash) (types.Type, []uint64) {
	t := types.Unknown
	if code, err := m.GetAttributeAs(ndarray.KeyType, AttrDefaultValue, types.Int32); err == nil {
		if x, err := types.FromCode(uint32(code.(int32))); err == nil {
			t = x
		}
	}
	var shape []uint64
	if s, err := m.GetAttributeAs(ndarray.KeyShape, AttrDefaultValue, types.VectorUInt64); err == nil {
		shape = s.([]uint64)
	}
	return t, shape
}

func (v *Validator) checkArray(m *hash.Hash, a *ndarray.NDArray, path string) bool {
	t, shape := arraySpec(m)
	if t != types.Unknown && a.Type != t {
		v.fail(types.KindTypeMismatch, path, "array element kind %s does not match %s", a.Type, t)
		return false
	}
	if len(shape) == 0 {
		return true
	}
	ok := len(shape) == len(a.Shape)
	for i := 0; ok && i < len(shape); i++ {
		ok = shape[i] == 0 || shape[i] == a.Shape[i]
	}
	if !ok {
		v.fail(types.KindShapeMismatch, path, "array shape %v does not match %v", a.Shape, shape)
	}
	return ok
}

func (v *Validator) payloadError(err error, path string) {
	var e *types.Error
	if errors.As(err, &e) {
		v.issues = append(v.issues, e.WithPath(path+prefixed(e.Path)))
		return
	}
	v.failErr(types.KindShapeMismatch, path, "invalid payload", err)
}

func (v *Validator) arrayNode(m, u *hash.Node, work *hash.Hash, path string) {
	a, err := ndarray.FromHash(u.Hash())
	if err != nil {
		v.payloadError(err, path)
		return
	}
	if !v.checkArray(m.Hash(), a, path) {
		return
	}
	_ = work.SetNode(m.Key(), u)
	w, _ := work.Node(m.Key())
	_ = w.Attributes().Set(AttrHashClassID, ClassNDArray)
}

func (v *Validator) imageNode(m, u *hash.Node, work *hash.Hash, path string) {
	img, err := ndarray.ImageFromHash(u.Hash())
	if err != nil {
		v.payloadError(err, path)
		return
	}
	if px, err := m.Hash().GetHash(ndarray.KeyPixels); err == nil {
		if !v.checkArray(px, img.Pixels, joinPath(path, ndarray.KeyPixels)) {
			return
		}
	}
	_ = work.SetNode(m.Key(), u)
	w, _ := work.Node(m.Key())
	_ = w.Attributes().Set(AttrHashClassID, ClassImageData)
}

// ----------------------------------------------------------------------------
// choices and lists

func optionNames(m *hash.Node) string {
	keys := append([]string{}, m.Hash().Keys()...)
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// choose validates option name of choice m into work.
func (v *Validator) choose(m *hash.Node, name string, user *hash.Hash, work *hash.Hash, path string) {
	opt, ok := m.Hash().Node(name)
	if !ok || !opt.IsHash() {
		v.fail(types.KindOptionViolation, path,
			"'%s' is not a valid option, valid options are: %s", name, optionNames(m))
		return
	}
	sel := hash.New()
	_ = sel.Set(name, hash.New())
	_ = work.Set(m.Key(), sel)
	w, _ := work.Node(m.Key())
	_ = w.Attributes().Set(AttrSelectedOption, name)
	sel = w.Hash()
	inner, _ := sel.GetHash(name)
	v.validate(opt.Hash(), user, inner, joinPath(path, name))
}

func (v *Validator) chooseDefault(m *hash.Node, work *hash.Hash, path string) {
	def, err := m.Attributes().GetAs(AttrDefaultValue, types.String)
	if err != nil || !v.rules.InjectDefaults {
		return
	}
	v.choose(m, def.(string), hash.New(), work, path)
}

func (v *Validator) choiceNode(m, u *hash.Node, work *hash.Hash, path string) {
	mandatory := assignmentOf(m) == AssignmentMandatory
	if u == nil {
		if mandatory {
			if !v.rules.AllowMissingKeys {
				v.fail(types.KindMissingMandatory, path, "missing choice parameter")
			}
			return
		}
		v.chooseDefault(m, work, path)
		return
	}
	switch {
	case u.Type() == types.String:
		v.choose(m, u.Value().(string), hash.New(), work, path)
	case !u.IsHash():
		v.fail(types.KindTypeMismatch, path, "expecting HASH, not %s", u.Type())
	case u.Hash().Len() == 0:
		if mandatory {
			if !v.rules.AllowMissingKeys {
				v.fail(types.KindMissingMandatory, path,
					"missing option, valid options are: %s", optionNames(m))
			}
			return
		}
		v.chooseDefault(m, work, path)
	case u.Hash().Len() == 1:
		sel := u.Hash().Nodes()[0]
		user := hash.New()
		switch {
		case sel.IsHash():
			user = sel.Hash()
		case sel.Type() == types.String && sel.Value().(string) == "":
		default:
			v.fail(types.KindTypeMismatch, joinPath(path, sel.Key()), "expecting HASH, not %s", sel.Type())
			return
		}
		v.choose(m, sel.Key(), user, work, path)
	default:
		v.fail(types.KindOptionViolation, path,
			"expects exactly one option, have %s; valid options are: %s",
			strings.Join(u.Hash().Keys(), ", "), optionNames(m))
	}
}

func (v *Validator) checkCount(m *hash.Node, n int, path string) bool {
	if lo, ok := attrUint(m.Attributes(), AttrMin); ok && uint64(n) < lo {
		v.fail(types.KindSizeViolation, path, "too few options (%d), expecting at least %d", n, lo)
		return false
	}
	if hi, ok := attrUint(m.Attributes(), AttrMax); ok && uint64(n) > hi {
		v.fail(types.KindSizeViolation, path, "too many options (%d), expecting at most %d", n, hi)
		return false
	}
	return true
}

// item validates one list entry for option name.
func (v *Validator) item(m *hash.Node, name string, user *hash.Hash, path string) (*hash.Hash, bool) {
	opt, ok := m.Hash().Node(name)
	if !ok || !opt.IsHash() {
		v.fail(types.KindOptionViolation, path,
			"'%s' is not a valid option, valid options are: %s", name, optionNames(m))
		return nil, false
	}
	inner := hash.New()
	v.validate(opt.Hash(), user, inner, joinPath(path, name))
	out := hash.New()
	_ = out.Set(name, inner)
	return out, true
}

func (v *Validator) listNames(m *hash.Node, names []string, work *hash.Hash, path string) {
	if !v.checkCount(m, len(names), path) {
		return
	}
	items := make([]*hash.Hash, 0, len(names))
	for _, name := range names {
		h, ok := v.item(m, name, hash.New(), path)
		if !ok {
			return
		}
		items = append(items, h)
	}
	_ = work.Set(m.Key(), items)
}

func (v *Validator) listNode(m, u *hash.Node, work *hash.Hash, path string) {
	if u == nil {
		if assignmentOf(m) == AssignmentMandatory {
			if !v.rules.AllowMissingKeys {
				v.fail(types.KindMissingMandatory, path, "missing list parameter")
			}
			return
		}
		def, err := m.Attributes().GetAs(AttrDefaultValue, types.VectorString)
		if err != nil || !v.rules.InjectDefaults {
			return
		}
		v.listNames(m, def.([]string), work, path)
		return
	}
	switch u.Type() {
	case types.VectorString:
		v.listNames(m, u.Value().([]string), work, path)
		return
	case types.VectorHash:
	default:
		v.fail(types.KindTypeMismatch, path, "expecting VECTOR_HASH, not %s", u.Type())
		return
	}
	entries := u.Hashes()
	if !v.checkCount(m, len(entries), path) {
		return
	}
	items := make([]*hash.Hash, 0, len(entries))
	for i, e := range entries {
		if e.Empty() {
			v.fail(types.KindMissingMandatory, fmt.Sprintf("%s[%d]", path, i), "empty list entry")
			return
		}
		if e.Len() > 1 {
			v.fail(types.KindOptionViolation, fmt.Sprintf("%s[%d]", path, i),
				"expects exactly one option, have %s; valid options are: %s",
				strings.Join(e.Keys(), ", "), optionNames(m))
			return
		}
		sel := e.Nodes()[0]
		user := hash.New()
		switch {
		case sel.IsHash():
			user = sel.Hash()
		case sel.Type() == types.String && sel.Value().(string) == "":
		default:
			v.fail(types.KindTypeMismatch, fmt.Sprintf("%s[%d]", path, i), "expecting HASH, not %s", sel.Type())
			return
		}
		h, ok := v.item(m, sel.Key(), user, path)
		if !ok {
			return
		}
		items = append(items, h)
	}
	_ = work.Set(m.Key(), items)
}
