// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command securechat-keygen is the one-shot key-generation utility from
// SPEC_FULL.md §4.10: given an existing DH parameter file, it generates
// a fresh long-term keypair and writes both the keypair file and its
// standalone public file. Structured after tools/zkexport's small
// flag-driven one-shot command shape.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"

	"github.com/kareemv/securechat/dh"
	"github.com/kareemv/securechat/tools"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-root DIR] [-name FILE] [-v]\n", os.Args[0])
	flag.PrintDefaults()
}

func _main() error {
	root := flag.String("root", "", "securechat root directory (default ~/.securechat)")
	name := flag.String("name", "", "key file name, e.g. server_long_term_key or client_long_term_key")
	initGroup := flag.Bool("init-params", false, "also generate a fresh DH parameter file instead of reading one")
	verbose := flag.Bool("v", false, "dump the generated public key to stderr")
	flag.Usage = usage
	flag.Parse()

	if *name == "" {
		usage()
		return fmt.Errorf("-name is required")
	}

	r := *root
	if r == "" {
		var err error
		r, err = tools.DefaultRootPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(r, 0700); err != nil {
		return err
	}

	paramsPath := filepath.Join(r, "params")
	var params *dh.Params
	if *initGroup {
		p, err := dh.Generate2048Params()
		if err != nil {
			return fmt.Errorf("generate dh parameters: %w", err)
		}
		if err := dh.WriteParams(paramsPath, p); err != nil {
			return fmt.Errorf("write dh parameters: %w", err)
		}
		params = p
	} else {
		p, err := dh.InitParams(paramsPath)
		if err != nil {
			return fmt.Errorf("load dh parameters: %w", err)
		}
		params = p
	}

	kp, err := dh.Generate(params)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	keyPath := filepath.Join(r, *name)
	if err := dh.WriteKeyPair(keyPath, kp); err != nil {
		return fmt.Errorf("write keypair: %w", err)
	}
	if err := dh.WritePublic(keyPath+".pub", kp.Public); err != nil {
		return fmt.Errorf("write public: %w", err)
	}

	if *verbose {
		spew.Config.ContinueOnMethod = true
		spew.Fdump(os.Stderr, kp.Public)
	}

	fmt.Printf("wrote %s and %s.pub\n", keyPath, keyPath+".pub")
	return nil
}

func main() {
	if err := _main(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
