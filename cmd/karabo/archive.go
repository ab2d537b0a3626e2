// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/European-XFEL/Karabo-sub007/store"
)

func runArchive(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("archive command required")
	}
	cmd, args := args[0], args[1:]
	readOnly := true
	switch cmd {
	case "put", "delete", "add-schema", "drop-schema":
		readOnly = false
	}
	db, err := openArchive(readOnly)
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd {
	case "list":
		return listConfigs(db)
	case "get":
		if len(args) < 1 {
			return fmt.Errorf("missing key")
		}
		return getConfig(db, args[0])
	case "put":
		if len(args) < 2 {
			return fmt.Errorf("missing key or file")
		}
		return putConfig(db, args[0], args[1])
	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("missing key")
		}
		return db.DeleteConfig(args[0])
	case "schemas":
		return listSchemas(db)
	case "add-schema":
		if len(args) < 1 {
			return fmt.Errorf("missing schema file")
		}
		sc, err := loadSchema(args[0])
		if err != nil {
			return err
		}
		d, err := db.PutSchema(sc)
		if err != nil {
			return err
		}
		fmt.Printf("%s %016x\n", sc.Name(), d)
		return nil
	case "drop-schema":
		if len(args) < 1 {
			return fmt.Errorf("missing schema name")
		}
		return db.DeleteSchema(args[0])
	case "stats":
		st, err := db.Stats()
		if err != nil {
			return err
		}
		buf, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(buf))
		return nil
	default:
		return fmt.Errorf("unknown archive command %s", cmd)
	}
}

func getConfig(db *store.Store, key string) error {
	h, err := db.Config(key)
	if err != nil {
		return err
	}
	if outFile == "" && toFormat == "" && !nocolor {
		dumpHash(h, 0)
		return nil
	}
	f, err := formatOf(toFormat, outFile, FormatJSON)
	if err != nil {
		return err
	}
	buf, err := encodeHash(f, h, compact)
	if err != nil {
		return err
	}
	return writeOutput(outFile, buf)
}

// putConfig archives a file. With -class the configuration is validated
// and stored in canonical form.
func putConfig(db *store.Store, key, filename string) error {
	h, _, err := loadHash(filename)
	if err != nil {
		return err
	}
	var info *store.Info
	if className != "" {
		rules, err := validationRules()
		if err != nil {
			return err
		}
		_, info, err = db.PutValidated(key, className, h, rules)
		if err != nil {
			printReport(os.Stderr, className, err)
			return errInvalid
		}
	} else {
		info, err = db.PutConfig(key, h)
		if err != nil {
			return err
		}
	}
	log.Infof("Stored %s (%s, %d/%d bytes)", info.Key, info.Compression, info.Stored, info.Size)
	return nil
}

func listConfigs(db *store.Store) error {
	list, err := db.List(prefix)
	if err != nil {
		return err
	}
	if nocolor {
		color.NoColor = true
	}
	var (
		head = color.New(color.Bold).SprintFunc()
		key  = color.New(color.FgCyan).SprintFunc()
		cls  = color.New(color.FgYellow).SprintFunc()
	)
	width := 3
	for _, v := range list {
		if l := len(v.Key); l > width {
			width = l
		}
	}
	fmt.Printf("%s  %s  %s  %s  %s\n",
		AlignLeft(head("KEY"), width),
		AlignLeft(head("CLASS"), 16),
		AlignRight(head("SIZE"), 10),
		AlignLeft(head("PACK"), 4),
		head("UPDATED"),
	)
	for _, v := range list {
		fmt.Printf("%s  %s  %s  %s  %s\n",
			AlignLeft(key(v.Key), width),
			AlignLeft(cls(v.Schema), 16),
			AlignRight(FormatBytes(v.Size), 10),
			AlignLeft(v.Compression.String(), 4),
			v.Updated.Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Printf("%s entries\n", strconv.Itoa(len(list)))
	return nil
}

func listSchemas(db *store.Store) error {
	names, err := db.Schemas()
	if err != nil {
		return err
	}
	for _, n := range names {
		d, err := db.SchemaDigest(n)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %016x\n", AlignLeft(n, 32), d)
	}
	return nil
}
