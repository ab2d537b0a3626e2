// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"fmt"
	"strings"
)

type NodeType int32

const (
	NodeLeaf NodeType = iota
	NodeNode
	NodeChoiceOfNodes
	NodeListOfNodes
)

func (t NodeType) String() string {
	switch t {
	case NodeLeaf:
		return "LEAF"
	case NodeNode:
		return "NODE"
	case NodeChoiceOfNodes:
		return "CHOICE_OF_NODES"
	case NodeListOfNodes:
		return "LIST_OF_NODES"
	default:
		return fmt.Sprintf("NodeType(%d)", int32(t))
	}
}

// AccessMode is a bit set so that assembly rules can select several modes.
type AccessMode int32

const (
	AccessInit  AccessMode = 1
	AccessRead  AccessMode = 2
	AccessWrite AccessMode = 4

	AccessAll = AccessInit | AccessRead | AccessWrite
)

func (m AccessMode) String() string {
	var s []string
	if m&AccessInit > 0 {
		s = append(s, "INIT")
	}
	if m&AccessRead > 0 {
		s = append(s, "READONLY")
	}
	if m&AccessWrite > 0 {
		s = append(s, "RECONFIGURABLE")
	}
	if len(s) == 0 {
		return "NONE"
	}
	return strings.Join(s, "|")
}

func ParseAccessMode(s string) (AccessMode, error) {
	var m AccessMode
	for _, v := range strings.Split(s, "|") {
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "INIT":
			m |= AccessInit
		case "READ", "READONLY":
			m |= AccessRead
		case "WRITE", "RECONFIGURABLE":
			m |= AccessWrite
		default:
			return 0, fmt.Errorf("invalid access mode '%s'", v)
		}
	}
	return m, nil
}

type Assignment int32

const (
	AssignmentOptional Assignment = iota
	AssignmentMandatory
	AssignmentInternal
)

func (a Assignment) String() string {
	switch a {
	case AssignmentOptional:
		return "OPTIONAL"
	case AssignmentMandatory:
		return "MANDATORY"
	case AssignmentInternal:
		return "INTERNAL"
	default:
		return fmt.Sprintf("Assignment(%d)", int32(a))
	}
}

type AccessLevel int32

const (
	AccessLevelObserver AccessLevel = iota
	AccessLevelUser
	AccessLevelOperator
	AccessLevelExpert
	AccessLevelAdmin
)

func (l AccessLevel) String() string {
	switch l {
	case AccessLevelObserver:
		return "OBSERVER"
	case AccessLevelUser:
		return "USER"
	case AccessLevelOperator:
		return "OPERATOR"
	case AccessLevelExpert:
		return "EXPERT"
	case AccessLevelAdmin:
		return "ADMIN"
	default:
		return fmt.Sprintf("AccessLevel(%d)", int32(l))
	}
}

func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToUpper(s) {
	case "OBSERVER":
		return AccessLevelObserver, nil
	case "USER":
		return AccessLevelUser, nil
	case "OPERATOR":
		return AccessLevelOperator, nil
	case "EXPERT":
		return AccessLevelExpert, nil
	case "ADMIN":
		return AccessLevelAdmin, nil
	default:
		return 0, fmt.Errorf("invalid access level '%s'", s)
	}
}

type LeafType int32

const (
	LeafProperty LeafType = iota
	LeafCommand
	LeafState
	LeafAlarmCondition
)

func (t LeafType) String() string {
	switch t {
	case LeafProperty:
		return "PROPERTY"
	case LeafCommand:
		return "COMMAND"
	case LeafState:
		return "STATE"
	case LeafAlarmCondition:
		return "ALARM_CONDITION"
	default:
		return fmt.Sprintf("LeafType(%d)", int32(t))
	}
}

type ArchivePolicy int32

const (
	ArchiveEveryEvent ArchivePolicy = iota
	ArchiveEvery100ms
	ArchiveEvery1s
	ArchiveEvery5s
	ArchiveEvery10s
	ArchiveEvery1min
	ArchiveEvery10min
	ArchiveNone
)

var archiveNames = []string{
	"EVERY_EVENT",
	"EVERY_100MS",
	"EVERY_1S",
	"EVERY_5S",
	"EVERY_10S",
	"EVERY_1MIN",
	"EVERY_10MIN",
	"NO_ARCHIVING",
}

func (p ArchivePolicy) String() string {
	if p >= 0 && int(p) < len(archiveNames) {
		return archiveNames[p]
	}
	return fmt.Sprintf("ArchivePolicy(%d)", int32(p))
}

type DaqPolicy int32

const (
	DaqUnspecified DaqPolicy = -1
	DaqOmit        DaqPolicy = 0
	DaqSave        DaqPolicy = 1
)

func (p DaqPolicy) String() string {
	switch p {
	case DaqUnspecified:
		return "UNSPECIFIED"
	case DaqOmit:
		return "OMIT"
	case DaqSave:
		return "SAVE"
	default:
		return fmt.Sprintf("DaqPolicy(%d)", int32(p))
	}
}

type DaqDataType int32

const (
	DaqPulse       DaqDataType = 0
	DaqTrain       DaqDataType = 10
	DaqPulseMaster DaqDataType = 20
	DaqTrainMaster DaqDataType = 30
)

func (t DaqDataType) String() string {
	switch t {
	case DaqPulse:
		return "PULSE"
	case DaqTrain:
		return "TRAIN"
	case DaqPulseMaster:
		return "PULSEMASTER"
	case DaqTrainMaster:
		return "TRAINMASTER"
	default:
		return fmt.Sprintf("DaqDataType(%d)", int32(t))
	}
}
