// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/echa/config"
	"github.com/fatih/color"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/schema"
	"github.com/European-XFEL/Karabo-sub007/types"
)

var errInvalid = errors.New("configuration is invalid")

// validationRules merges validator.* settings with command line flags.
func validationRules() (schema.Rules, error) {
	r := schema.Rules{
		InjectDefaults:             config.GetBool("validator.inject_defaults"),
		AllowMissingKeys:           config.GetBool("validator.allow_missing_keys"),
		AllowUnrootedConfiguration: config.GetBool("validator.allow_unrooted"),
		InjectTimestamps:           config.GetBool("validator.inject_timestamps"),
	}
	policy := config.GetString("validator.unknown_keys")
	if unknown != "" {
		policy = unknown
	}
	p, err := schema.ParseUnknownKeyPolicy(policy)
	if err != nil {
		return r, err
	}
	r.UnknownKeys = p
	if partial {
		r.InjectDefaults = false
		r.AllowMissingKeys = true
	}
	if rooted {
		r.AllowUnrootedConfiguration = false
	}
	if timestamps {
		r.InjectTimestamps = true
	}
	return r, nil
}

// resolveSchema loads the schema from -schema or from the archive by -class.
func resolveSchema() (*schema.Schema, error) {
	switch {
	case schemaFile != "":
		return loadSchema(schemaFile)
	case className != "":
		db, err := openArchive(true)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Schema(className)
	default:
		return nil, fmt.Errorf("missing -schema or -class")
	}
}

func runValidate(args []string) error {
	sc, err := resolveSchema()
	if err != nil {
		return err
	}
	rules, err := validationRules()
	if err != nil {
		return err
	}
	name := filenameArg(args)
	if strict {
		if f, _ := formatOf(fromFormat, name, FormatJSON); f != FormatJSON {
			return fmt.Errorf("strict checks need JSON input, have %s", f)
		}
		buf, err := readInput(name)
		if err != nil {
			return err
		}
		if err := sc.ValidateJSON(buf); err != nil {
			printReport(os.Stdout, sc.Name(), err)
			return errInvalid
		}
		h, err := hash.FromJSON(buf)
		if err != nil {
			return err
		}
		return validateHash(sc, h, rules)
	}
	h, _, err := loadHash(name)
	if err != nil {
		return err
	}
	return validateHash(sc, h, rules)
}

func validateHash(sc *schema.Schema, h *hash.Hash, rules schema.Rules) error {
	now := time.Now()
	out, err := schema.NewValidator(rules).ValidateAt(sc, h, schema.Timestamp{
		Sec:  uint64(now.Unix()),
		Frac: uint64(now.Nanosecond()) * 1e9,
	})
	printReport(os.Stderr, sc.Name(), err)
	if err != nil {
		return errInvalid
	}
	if outFile == "" && toFormat == "" {
		return nil
	}
	f, err := formatOf(toFormat, outFile, FormatJSON)
	if err != nil {
		return err
	}
	buf, err := encodeHash(f, out, compact)
	if err != nil {
		return err
	}
	return writeOutput(outFile, buf)
}

// printReport writes a colored summary of a validation result.
func printReport(w io.Writer, class string, err error) {
	if nocolor {
		color.NoColor = true
	}
	var (
		ok    = color.New(color.FgGreen, color.Bold).SprintFunc()
		bad   = color.New(color.FgRed, color.Bold).SprintFunc()
		path  = color.New(color.FgYellow).SprintFunc()
		faint = color.New(color.Faint).SprintFunc()
	)
	if err == nil {
		fmt.Fprintf(w, "%s %s\n", ok("VALID"), class)
		return
	}
	var issues []*types.Error
	var verr *schema.ValidationError
	var kerr *types.Error
	switch {
	case errors.As(err, &verr):
		issues = verr.Issues
	case errors.As(err, &kerr):
		issues = []*types.Error{kerr}
	default:
		fmt.Fprintf(w, "%s %s: %v\n", bad("ERROR"), class, err)
		return
	}
	fmt.Fprintf(w, "%s %s: %d issue(s)\n", bad("INVALID"), class, len(issues))
	width := 0
	for _, v := range issues {
		if l := len(v.Path); l > width {
			width = l
		}
	}
	for _, v := range issues {
		p := v.Path
		if p == "" {
			p = "."
		}
		fmt.Fprintf(w, "  %s  %s  %s\n",
			AlignLeft(path(p), width),
			AlignLeft(bad(v.Kind.String()), 24),
			faint(v.Message),
		)
	}
}
