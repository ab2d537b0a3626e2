// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"fmt"
	"strconv"
	"strings"

	ct "github.com/daviddengcn/go-colortext"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/types"
)

func filenameArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func runConvert(args []string) error {
	name := filenameArg(args)
	h, in, err := loadHash(name)
	if err != nil {
		return err
	}
	out, err := formatOf(toFormat, outFile, FormatJSON)
	if err != nil {
		return err
	}
	buf, err := encodeHash(out, h, compact)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", out, err)
	}
	log.Debugf("Converted %s to %s (%d bytes)", in, out, len(buf))
	return writeOutput(outFile, buf)
}

func runDump(args []string) error {
	h, _, err := loadHash(filenameArg(args))
	if err != nil {
		return err
	}
	if nocolor {
		fmt.Print(h.String())
		return nil
	}
	dumpHash(h, 0)
	return nil
}

func dumpHash(h *hash.Hash, depth int) {
	pad := strings.Repeat("  ", depth)
	for _, n := range h.Nodes() {
		fmt.Print(pad)
		ct.ChangeColor(ct.Blue, true, ct.None, false)
		fmt.Print(n.Key())
		ct.ResetColor()
		for _, a := range n.Attributes().List() {
			ct.ChangeColor(ct.Cyan, false, ct.None, false)
			fmt.Printf(" %s=", a.Key())
			ct.ResetColor()
			fmt.Print(strconv.Quote(hash.ValueString(a.Type(), a.Value())))
		}
		switch n.Type() {
		case types.Hash:
			fmt.Println(" +")
			dumpHash(n.Hash(), depth+1)
		case types.VectorHash:
			fmt.Println(" @")
			for i, item := range n.Hashes() {
				ct.ChangeColor(ct.Magenta, false, ct.None, false)
				fmt.Printf("%s[%d]\n", pad, i)
				ct.ResetColor()
				dumpHash(item, depth+1)
			}
		case types.Schema:
			sc, _ := n.Value().(*hash.Schema)
			fmt.Print(" => ")
			ct.ChangeColor(ct.Yellow, false, ct.None, false)
			fmt.Print(sc.Name)
			ct.ResetColor()
			dumpType(n.Type())
			dumpHash(sc.Hash, depth+1)
		default:
			fmt.Print(" => ")
			ct.ChangeColor(ct.Yellow, false, ct.None, false)
			fmt.Print(hash.ValueString(n.Type(), n.Value()))
			ct.ResetColor()
			dumpType(n.Type())
		}
	}
}

func dumpType(t types.Type) {
	ct.ChangeColor(ct.White, false, ct.None, false)
	fmt.Printf(" %s\n", t)
	ct.ResetColor()
}
