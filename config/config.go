// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config loads the handful of settings securechat needs from an
// ini-style configuration file, with defaults rooted under the user's
// home directory.
package config

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	homedir "github.com/mitchellh/go-homedir"
	ini "github.com/vaughan0/go-ini"
)

var errIniNotFound = errors.New("not found")

const defaultConfigFileContent = `
# root directory for securechat settings and key files
root = ~/.securechat

# TCP port used when listening or connecting
port = 1337

[log]
# logfile contains the log file name location
logfile = ~/.securechat/securechat.log

# timeformat for log entries; see https://golang.org/pkg/time/#Time.Format
timeformat = 2006-01-02 15:04:05

# debug enables verbose per-phase handshake/frame logging
debug = no
`

// Settings holds securechat's runtime configuration.
type Settings struct {
	Root string // root directory for key files, logs, config
	Port int    // default TCP port

	LogFile    string // log file path
	TimeFormat string // log timestamp format
	Debug      bool   // verbose logging
}

// New returns the default settings, rooted under the user's home
// directory.
func New() *Settings {
	return &Settings{
		Root:       filepath.Join("~", ".securechat"),
		Port:       1337,
		LogFile:    filepath.Join("~", ".securechat", "securechat.log"),
		TimeFormat: "2006-01-02 15:04:05",
		Debug:      false,
	}
}

// Load reads settings from an ini file at path, creating it (along with
// its parent directory) with defaultConfigFileContent if it does not yet
// exist. All paths are expanded through the user's home directory.
func Load(path string) (*Settings, error) {
	s := New()

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, err
		}
		if err := ioutil.WriteFile(path, []byte(defaultConfigFileContent), 0600); err != nil {
			return nil, err
		}
	}

	cfg, err := ini.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if root, ok := cfg.Get("", "root"); ok {
		s.Root = root
	}
	s.Root, err = homedir.Expand(s.Root)
	if err != nil {
		return nil, err
	}

	if port, ok := cfg.Get("", "port"); ok {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, err
		}
		s.Port = p
	}

	if logFile, ok := cfg.Get("log", "logfile"); ok {
		s.LogFile = logFile
	}
	s.LogFile, err = homedir.Expand(s.LogFile)
	if err != nil {
		return nil, err
	}

	if timeFormat, ok := cfg.Get("log", "timeformat"); ok {
		s.TimeFormat = timeFormat
	}

	if err := iniBool(cfg, &s.Debug, "log", "debug"); err != nil && !errors.Is(err, errIniNotFound) {
		return nil, err
	}

	return s, nil
}

func iniBool(cfg ini.File, dst *bool, section, key string) error {
	v, ok := cfg.Get(section, key)
	if !ok {
		return errIniNotFound
	}
	switch v {
	case "yes", "true", "1":
		*dst = true
	case "no", "false", "0":
		*dst = false
	default:
		return errors.New("config: invalid boolean value: " + v)
	}
	return nil
}
