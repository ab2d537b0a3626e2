// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package state

import (
	"fmt"
)

// AlarmCondition is the alarm level of a property. Specific conditions like
// WARN_LOW roll up to a base level with a numeric rank.
type AlarmCondition string

const (
	AlarmNone              AlarmCondition = "NONE"
	AlarmWarn              AlarmCondition = "WARN"
	AlarmWarnLow           AlarmCondition = "WARN_LOW"
	AlarmWarnHigh          AlarmCondition = "WARN_HIGH"
	AlarmWarnVarianceLow   AlarmCondition = "WARN_VARIANCE_LOW"
	AlarmWarnVarianceHigh  AlarmCondition = "WARN_VARIANCE_HIGH"
	AlarmAlarm             AlarmCondition = "ALARM"
	AlarmAlarmLow          AlarmCondition = "ALARM_LOW"
	AlarmAlarmHigh         AlarmCondition = "ALARM_HIGH"
	AlarmAlarmVarianceLow  AlarmCondition = "ALARM_VARIANCE_LOW"
	AlarmAlarmVarianceHigh AlarmCondition = "ALARM_VARIANCE_HIGH"
	AlarmInterlock         AlarmCondition = "INTERLOCK"
)

var alarmParents = map[AlarmCondition]AlarmCondition{
	AlarmNone:              "",
	AlarmWarn:              "",
	AlarmAlarm:             "",
	AlarmInterlock:         "",
	AlarmWarnLow:           AlarmWarn,
	AlarmWarnHigh:          AlarmWarn,
	AlarmWarnVarianceLow:   AlarmWarn,
	AlarmWarnVarianceHigh:  AlarmWarn,
	AlarmAlarmLow:          AlarmAlarm,
	AlarmAlarmHigh:         AlarmAlarm,
	AlarmAlarmVarianceLow:  AlarmAlarm,
	AlarmAlarmVarianceHigh: AlarmAlarm,
}

var alarmRanks = map[AlarmCondition]int{
	AlarmNone:      0,
	AlarmWarn:      1,
	AlarmAlarm:     2,
	AlarmInterlock: 3,
}

func (a AlarmCondition) String() string {
	return string(a)
}

func (a AlarmCondition) IsValid() bool {
	_, ok := alarmParents[a]
	return ok
}

// Parent returns the base level of a specific condition. Base levels are
// their own parent.
func (a AlarmCondition) Parent() AlarmCondition {
	if p := alarmParents[a]; p != "" {
		return p
	}
	return a
}

// Rank orders base levels NONE < WARN < ALARM < INTERLOCK.
func (a AlarmCondition) Rank() int {
	return alarmRanks[a.Parent()]
}

func (a AlarmCondition) IsMoreCriticalThan(b AlarmCondition) bool {
	return a.Rank() > b.Rank()
}

func (a AlarmCondition) IsSameCriticality(b AlarmCondition) bool {
	return a.Rank() == b.Rank()
}

func (a *AlarmCondition) UnmarshalText(data []byte) error {
	v, err := ParseAlarmCondition(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a AlarmCondition) MarshalText() ([]byte, error) {
	return []byte(a), nil
}

func ParseAlarmCondition(s string) (AlarmCondition, error) {
	v := AlarmCondition(s)
	if !v.IsValid() {
		return "", fmt.Errorf("invalid alarm condition '%s'", s)
	}
	return v, nil
}

// MostSignificantAlarm returns the base level of the most critical condition
// in list, or NONE for an empty list.
func MostSignificantAlarm(list []AlarmCondition) AlarmCondition {
	best := AlarmNone
	for _, a := range list {
		if a.IsMoreCriticalThan(best) {
			best = a.Parent()
		}
	}
	return best
}
