// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

// Descriptor attribute keys.
const (
	AttrNodeType            = "nodeType"
	AttrLeafType            = "leafType"
	AttrValueType           = "valueType"
	AttrClassID             = "classId"
	AttrDisplayType         = "displayType"
	AttrDisplayedName       = "displayedName"
	AttrDescription         = "description"
	AttrAlias               = "alias"
	AttrTags                = "tags"
	AttrAccessMode          = "accessMode"
	AttrAssignment          = "assignment"
	AttrRequiredAccessLevel = "requiredAccessLevel"
	AttrDefaultValue        = "defaultValue"
	AttrOptions             = "options"
	AttrMinInc              = "minInc"
	AttrMaxInc              = "maxInc"
	AttrMinExc              = "minExc"
	AttrMaxExc              = "maxExc"
	AttrMinSize             = "minSize"
	AttrMaxSize             = "maxSize"
	AttrMin                 = "min"
	AttrMax                 = "max"
	AttrAbsoluteError       = "absoluteError"
	AttrRelativeError       = "relativeError"
	AttrRegex               = "regex"
	AttrUnitEnum            = "unitEnum"
	AttrUnitName            = "unitName"
	AttrUnitSymbol          = "unitSymbol"
	AttrMetricPrefixEnum    = "metricPrefixEnum"
	AttrMetricPrefixName    = "metricPrefixName"
	AttrMetricPrefixSymbol  = "metricPrefixSymbol"
	AttrAllowedStates       = "allowedStates"
	AttrWarnLow             = "warnLow"
	AttrWarnHigh            = "warnHigh"
	AttrAlarmLow            = "alarmLow"
	AttrAlarmHigh           = "alarmHigh"
	AttrWarnVarianceLow     = "warnVarianceLow"
	AttrWarnVarianceHigh    = "warnVarianceHigh"
	AttrAlarmVarianceLow    = "alarmVarianceLow"
	AttrAlarmVarianceHigh   = "alarmVarianceHigh"
	AttrArchivePolicy       = "archivePolicy"
	AttrDaqDataType         = "daqDataType"
	AttrDaqPolicy           = "daqPolicy"
	AttrAllowedActions      = "allowedActions"
	AttrRowSchema           = "rowSchema"
)

// Attributes set on validated configuration nodes.
const (
	AttrHashClassID    = "__classId"
	AttrIndicateState  = "indicateState"
	AttrIndicateAlarm  = "indicateAlarm"
	AttrSec            = "sec"
	AttrFrac           = "frac"
	AttrTid            = "tid"
	AttrSelectedOption = "selectedOption"
)

// Class ids and display types with validator semantics.
const (
	ClassState          = "State"
	ClassAlarmCondition = "AlarmCondition"
	ClassSlot           = "Slot"
	ClassNDArray        = "NDArray"
	ClassImageData      = "ImageData"

	DisplayOutputSchema = "OutputSchema"
	DisplayTable        = "Table"
	DisplaySlot         = "Slot"
	DisplayState        = "State"
	DisplayAlarm        = "AlarmCondition"
)

// limitKeys are the attributes carrying values of the descriptor kind.
var limitKeys = []string{
	AttrMinInc, AttrMaxInc, AttrMinExc, AttrMaxExc,
	AttrWarnLow, AttrWarnHigh, AttrAlarmLow, AttrAlarmHigh,
}

// overwritable lists attributes an overwrite may replace. valueType,
// nodeType and leafType are fixed at construction.
var overwritable = map[string]bool{
	AttrDisplayedName:       true,
	AttrDescription:         true,
	AttrAlias:               true,
	AttrTags:                true,
	AttrDisplayType:         true,
	AttrAccessMode:          true,
	AttrAssignment:          true,
	AttrRequiredAccessLevel: true,
	AttrDefaultValue:        true,
	AttrOptions:             true,
	AttrMinInc:              true,
	AttrMaxInc:              true,
	AttrMinExc:              true,
	AttrMaxExc:              true,
	AttrMinSize:             true,
	AttrMaxSize:             true,
	AttrMin:                 true,
	AttrMax:                 true,
	AttrAbsoluteError:       true,
	AttrRelativeError:       true,
	AttrRegex:               true,
	AttrUnitEnum:            true,
	AttrUnitName:            true,
	AttrUnitSymbol:          true,
	AttrMetricPrefixEnum:    true,
	AttrMetricPrefixName:    true,
	AttrMetricPrefixSymbol:  true,
	AttrAllowedStates:       true,
	AttrWarnLow:             true,
	AttrWarnHigh:            true,
	AttrAlarmLow:            true,
	AttrAlarmHigh:           true,
	AttrArchivePolicy:       true,
	AttrDaqPolicy:           true,
	AttrDaqDataType:         true,
	AttrAllowedActions:      true,
}
