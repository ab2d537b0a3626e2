// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"fmt"

	"github.com/European-XFEL/Karabo-sub007/state"
	"github.com/European-XFEL/Karabo-sub007/types"
)

// AlarmFor evaluates value against the warn and alarm thresholds of the
// leaf at path. Alarm thresholds are checked before warn thresholds.
func (s *Schema) AlarmFor(path string, value any) (state.AlarmCondition, error) {
	t, err := s.ValueType(path)
	if err != nil {
		return state.AlarmNone, err
	}
	k, x, ok := orderValue(value, t)
	if !ok {
		return state.AlarmNone, types.NewError(types.KindTypeMismatch, path,
			fmt.Sprintf("no thresholds for %v of kind %s", value, t))
	}
	n, err := s.node(path)
	if err != nil {
		return state.AlarmNone, err
	}
	attrs := n.Attributes()
	checks := []struct {
		key  string
		low  bool
		cond state.AlarmCondition
	}{
		{AttrAlarmLow, true, state.AlarmAlarmLow},
		{AttrAlarmHigh, false, state.AlarmAlarmHigh},
		{AttrWarnLow, true, state.AlarmWarnLow},
		{AttrWarnHigh, false, state.AlarmWarnHigh},
	}
	for _, c := range checks {
		order, _, ok := compareBound(attrs, c.key, k, x)
		if !ok {
			continue
		}
		if (c.low && order < 0) || (!c.low && order > 0) {
			return c.cond, nil
		}
	}
	return state.AlarmNone, nil
}
