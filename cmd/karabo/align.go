// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/acarl005/stripansi"
)

// AlignLeft pads a possibly colored string to n visible runes.
func AlignLeft(t string, n int) string {
	slen := utf8.RuneCountInString(stripansi.Strip(t))
	if slen >= n {
		return t
	}
	return t + strings.Repeat(" ", n-slen)
}

// AlignRight pads a possibly colored string on the left to n visible runes.
func AlignRight(t string, n int) string {
	slen := utf8.RuneCountInString(stripansi.Strip(t))
	if slen >= n {
		return t
	}
	return strings.Repeat(" ", n-slen) + t
}

var (
	KB float64 = 1024
	MB         = KB * 1024
	GB         = MB * 1024
	TB         = GB * 1024
)

func FormatBytes(b int) string {
	f := float64(b)
	var (
		unit string
		val  float64
	)
	switch {
	case f >= TB:
		val, unit = f/TB, "TB"
	case f >= GB:
		val, unit = f/GB, "GB"
	case f >= MB:
		val, unit = f/MB, "MB"
	case f >= KB:
		val, unit = f/KB, "kB"
	default:
		val, unit = f, "B"
	}
	if val == math.Trunc(val) {
		return fmt.Sprintf("%.0f %s", val, unit)
	}
	return fmt.Sprintf("%.1f %s", val, unit)
}
