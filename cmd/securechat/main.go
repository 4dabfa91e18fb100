// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command securechat is the host application from spec.md §6: it loads
// configuration and long-term key material, runs either the listener or
// connector role to a completed session, and hands the session to a
// terminal chat front end. Structured like zkclient/zkclient.go's
// main/_main split, but with flag-based role selection instead of an
// ini-only config surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/kareemv/securechat/config"
	"github.com/kareemv/securechat/debug"
	"github.com/kareemv/securechat/dh"
	"github.com/kareemv/securechat/identity"
	"github.com/kareemv/securechat/peer"
	"github.com/kareemv/securechat/session"
	"github.com/kareemv/securechat/tools"
	"github.com/kareemv/securechat/tui"
)

const paramsFilename = "params"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-l | -c HOST] [-p PORT] [-cfg FILE]\n", os.Args[0])
	flag.PrintDefaults()
}

// exitUsage and exitHandshake distinguish spec.md §6's two non-zero exit
// paths: a usage/startup failure versus a failed handshake.
const (
	exitOK = iota
	exitUsage
	exitHandshake
)

func _main() (int, error) {
	var listen, listenLong bool
	var connect, connectLong string
	var port, portLong int
	var help, helpLong bool
	var cfgFile string

	flag.BoolVar(&listen, "l", false, "listen for an incoming connection")
	flag.BoolVar(&listenLong, "listen", false, "listen for an incoming connection")
	flag.StringVar(&connect, "c", "", "connect to HOST as the connector")
	flag.StringVar(&connectLong, "connect", "", "connect to HOST as the connector")
	flag.IntVar(&port, "p", 0, "TCP port (defaults to the config file's setting)")
	flag.IntVar(&portLong, "port", 0, "TCP port (defaults to the config file's setting)")
	flag.BoolVar(&help, "h", false, "print usage")
	flag.BoolVar(&helpLong, "help", false, "print usage")
	flag.StringVar(&cfgFile, "cfg", "", "config file (default ~/.securechat/securechat.conf)")
	flag.Usage = usage
	flag.Parse()

	if help || helpLong {
		usage()
		return exitOK, nil
	}
	if listenLong {
		listen = true
	}
	if connectLong != "" {
		connect = connectLong
	}
	if portLong != 0 {
		port = portLong
	}

	if listen == (connect != "") {
		usage()
		return exitUsage, errors.New("must specify exactly one of -l or -c HOST")
	}

	if cfgFile == "" {
		home, err := homedir.Dir()
		if err != nil {
			return exitUsage, err
		}
		cfgFile = filepath.Join(home, ".securechat", "securechat.conf")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return exitUsage, err
	}
	if port != 0 {
		cfg.Port = port
	}

	log, err := debug.New(cfg.LogFile, cfg.TimeFormat)
	if err != nil {
		return exitUsage, err
	}
	log.Register(debug.SubsystemHandshake, "HSK")
	log.Register(debug.SubsystemFrame, "FRM")
	log.Register(debug.SubsystemPeer, "PER")
	log.Register(debug.SubsystemDH, "DH ")
	if cfg.Debug {
		log.EnableDebug()
	}

	params, err := dh.InitParams(filepath.Join(cfg.Root, paramsFilename))
	if err != nil {
		return exitUsage, fmt.Errorf("load dh parameters: %w", err)
	}

	var lt *identity.LongTermKeyPair
	var peerLabel string
	if listen {
		lt, err = identity.LoadListener(cfg.Root)
		peerLabel = "connector"
	} else {
		lt, err = identity.LoadConnector(cfg.Root)
		peerLabel = "listener"
	}
	if err != nil {
		return exitUsage, fmt.Errorf("load identity: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	var sess *session.Session
	if listen {
		sess, err = peer.ListenAndAccept(ctx, cfg.Port, lt, params, log)
	} else {
		sess, err = peer.ConnectTo(ctx, connect, cfg.Port, lt, params, log)
	}
	if err != nil {
		return exitHandshake, fmt.Errorf("handshake: %w", err)
	}
	defer sess.Shutdown()

	if id, idErr := tools.RandomUint64(); idErr == nil {
		log.Info(debug.SubsystemPeer, "session established, id %016x", id)
	}

	chat := tui.New(sess, peerLabel)
	if err := chat.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return exitHandshake, err
	}
	return exitOK, nil
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	code, err := _main()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	os.Exit(code)
}
