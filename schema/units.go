// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Unit int32

const (
	UnitNumber Unit = iota
	UnitCount
	UnitMeter
	UnitGram
	UnitSecond
	UnitAmpere
	UnitKelvin
	UnitMole
	UnitCandela
	UnitHertz
	UnitRadian
	UnitDegree
	UnitSteradian
	UnitNewton
	UnitPascal
	UnitJoule
	UnitElectronvolt
	UnitWatt
	UnitCoulomb
	UnitVolt
	UnitFarad
	UnitOhm
	UnitSiemens
	UnitWeber
	UnitTesla
	UnitHenry
	UnitDegreeCelsius
	UnitLumen
	UnitLux
	UnitBecquerel
	UnitGray
	UnitSievert
	UnitKatal
	UnitMinute
	UnitHour
	UnitDay
	UnitYear
	UnitBar
	UnitPixel
	UnitByte
	UnitBit
	UnitMeterPerSecond
	UnitVoltPerSecond
	UnitAmperePerSecond
	UnitPercent
	UnitNotAssigned
	UnitRevolutionsPerMinute
)

type unitInfo struct {
	name   string
	symbol string
}

var units = []unitInfo{
	{"NUMBER", ""},
	{"COUNT", "#"},
	{"METER", "m"},
	{"GRAM", "g"},
	{"SECOND", "s"},
	{"AMPERE", "A"},
	{"KELVIN", "K"},
	{"MOLE", "mol"},
	{"CANDELA", "cd"},
	{"HERTZ", "Hz"},
	{"RADIAN", "rad"},
	{"DEGREE", "deg"},
	{"STERADIAN", "sr"},
	{"NEWTON", "N"},
	{"PASCAL", "Pa"},
	{"JOULE", "J"},
	{"ELECTRONVOLT", "eV"},
	{"WATT", "W"},
	{"COULOMB", "C"},
	{"VOLT", "V"},
	{"FARAD", "F"},
	{"OHM", "Ω"},
	{"SIEMENS", "S"},
	{"WEBER", "Wb"},
	{"TESLA", "T"},
	{"HENRY", "H"},
	{"DEGREE_CELSIUS", "degC"},
	{"LUMEN", "lm"},
	{"LUX", "lx"},
	{"BECQUEREL", "Bq"},
	{"GRAY", "Gy"},
	{"SIEVERT", "Sv"},
	{"KATAL", "kat"},
	{"MINUTE", "min"},
	{"HOUR", "h"},
	{"DAY", "d"},
	{"YEAR", "a"},
	{"BAR", "bar"},
	{"PIXEL", "px"},
	{"BYTE", "B"},
	{"BIT", "bit"},
	{"METER_PER_SECOND", "m/s"},
	{"VOLT_PER_SECOND", "V/s"},
	{"AMPERE_PER_SECOND", "A/s"},
	{"PERCENT", "%"},
	{"NOT_ASSIGNED", "N_A"},
	{"REVOLUTIONS_PER_MINUTE", "rpm"},
}

func (u Unit) IsValid() bool {
	return u >= 0 && int(u) < len(units)
}

func (u Unit) String() string {
	if !u.IsValid() {
		return fmt.Sprintf("Unit(%d)", int32(u))
	}
	return units[u].name
}

func (u Unit) Symbol() string {
	if !u.IsValid() {
		return ""
	}
	return units[u].symbol
}

func ParseUnit(s string) (Unit, error) {
	for i, v := range units {
		if v.name == s {
			return Unit(i), nil
		}
	}
	return 0, fmt.Errorf("invalid unit '%s'", s)
}

type MetricPrefix int32

const (
	PrefixYotta MetricPrefix = iota
	PrefixZetta
	PrefixExa
	PrefixPeta
	PrefixTera
	PrefixGiga
	PrefixMega
	PrefixKilo
	PrefixHecto
	PrefixDeca
	PrefixNone
	PrefixDeci
	PrefixCenti
	PrefixMilli
	PrefixMicro
	PrefixNano
	PrefixPico
	PrefixFemto
	PrefixAtto
	PrefixZepto
	PrefixYocto
	PrefixQuetta
	PrefixRonna
	PrefixRonto
	PrefixQuecto
)

type prefixInfo struct {
	name   string
	symbol string
	exp    int
}

var prefixes = []prefixInfo{
	{"YOTTA", "Y", 24},
	{"ZETTA", "Z", 21},
	{"EXA", "E", 18},
	{"PETA", "P", 15},
	{"TERA", "T", 12},
	{"GIGA", "G", 9},
	{"MEGA", "M", 6},
	{"KILO", "k", 3},
	{"HECTO", "h", 2},
	{"DECA", "da", 1},
	{"NONE", "", 0},
	{"DECI", "d", -1},
	{"CENTI", "c", -2},
	{"MILLI", "m", -3},
	{"MICRO", "u", -6},
	{"NANO", "n", -9},
	{"PICO", "p", -12},
	{"FEMTO", "f", -15},
	{"ATTO", "a", -18},
	{"ZEPTO", "z", -21},
	{"YOCTO", "y", -24},
	{"QUETTA", "Q", 30},
	{"RONNA", "R", 27},
	{"RONTO", "r", -27},
	{"QUECTO", "q", -30},
}

func (p MetricPrefix) IsValid() bool {
	return p >= 0 && int(p) < len(prefixes)
}

func (p MetricPrefix) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("MetricPrefix(%d)", int32(p))
	}
	return prefixes[p].name
}

func (p MetricPrefix) Symbol() string {
	if !p.IsValid() {
		return ""
	}
	return prefixes[p].symbol
}

// Exponent is the power of ten the prefix stands for.
func (p MetricPrefix) Exponent() int {
	if !p.IsValid() {
		return 0
	}
	return prefixes[p].exp
}

func ParseMetricPrefix(s string) (MetricPrefix, error) {
	for i, v := range prefixes {
		if v.name == s {
			return MetricPrefix(i), nil
		}
	}
	return 0, fmt.Errorf("invalid metric prefix '%s'", s)
}

func prefixBySymbol(sym string) (MetricPrefix, bool) {
	for i, v := range prefixes {
		if v.symbol == sym {
			return MetricPrefix(i), true
		}
	}
	// accept the proper micro sign as well
	if sym == "µ" || sym == "μ" {
		return PrefixMicro, true
	}
	return 0, false
}

// ParseQuantity reads a string like "5 mm" or "2.5e3" and returns its
// magnitude expressed in prefix p of unit u. A bare number is taken as
// already expressed in the descriptor's prefix and unit.
func ParseQuantity(s string, u Unit, p MetricPrefix) (float64, error) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64); err == nil {
			break
		}
		i--
	}
	if i == 0 {
		return 0, fmt.Errorf("no magnitude in '%s'", s)
	}
	mag, _ := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
	suffix := strings.TrimSpace(s[i:])
	if suffix == "" {
		return mag, nil
	}
	sym := u.Symbol()
	if sym == "" || !strings.HasSuffix(suffix, sym) {
		return 0, fmt.Errorf("unit '%s' does not match %s", suffix, u)
	}
	given, ok := prefixBySymbol(strings.TrimSuffix(suffix, sym))
	if !ok {
		return 0, fmt.Errorf("unknown metric prefix in '%s'", suffix)
	}
	diff := given.Exponent() - p.Exponent()
	switch {
	case diff > 0:
		mag *= math.Pow10(diff)
	case diff < 0:
		mag /= math.Pow10(-diff)
	}
	return mag, nil
}
