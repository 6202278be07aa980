/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package config loads the INI-style configuration a Yaks client is
// pointed at: the cluster endpoint, credentials, timeouts, and the
// optional transport compression toggle. It uses gcfg, the same
// library and [section] layout the teacher uses for its ingester
// configs, so a Yaks config file reads the way a Gravwell one does.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gravwell/gcfg"
	"github.com/inhies/go-bytesize"
)

const maxConfigSize int64 = 1024 * 1024

var (
	ErrConfigTooLarge = errors.New("config: file too large")
	ErrMissingAddress = errors.New("config: [global] address is required")
)

// Global holds the settings every Yaks client needs: where to dial,
// who to log in as, and how long to wait.
type Global struct {
	Address        string
	User           string
	Password       string
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	MaxPending     int
}

// Transport holds the optional compression toggle (see SPEC_FULL.md
// §10.4 and the framer package).
type Transport struct {
	Compression string // "" or "snappy"
}

// Config is the top-level structure gcfg parses a config file into.
type Config struct {
	Global    Global
	Transport Transport
}

// rawConfig mirrors Config but with gcfg-friendly field types. gcfg
// has no built-in notion of time.Duration, so durations are carried as
// strings and parsed with time.ParseDuration after loading, exactly as
// ingest/config's IngestConfig.parseTimeout does for Connection_Timeout.
// MaxPending is likewise a plain count or a human-readable size (e.g.
// "64", "1KB") parsed with go-bytesize, matching
// ingest/processors/utils.go's parseDataSize.
type rawConfig struct {
	Global struct {
		Address        string
		User           string
		Password       string
		DialTimeout    string `gcfg:"dial-timeout"`
		RequestTimeout string `gcfg:"request-timeout"`
		MaxPending     string `gcfg:"max-pending"`
	}
	Transport struct {
		Compression string
	}
}

// Load reads and parses a config file at path.
func Load(path string) (*Config, error) {
	fin, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	fi, err := fin.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxConfigSize {
		return nil, ErrConfigTooLarge
	}
	bb := bytes.NewBuffer(nil)
	if _, err := io.Copy(bb, fin); err != nil {
		return nil, err
	}
	return LoadBytes(bb.Bytes())
}

// LoadBytes parses the contents of b into a Config.
func LoadBytes(b []byte) (*Config, error) {
	if int64(len(b)) > maxConfigSize {
		return nil, ErrConfigTooLarge
	}
	var rc rawConfig
	if err := gcfg.ReadStringInto(&rc, string(b)); err != nil {
		return nil, err
	}
	c := &Config{
		Global: Global{
			Address:  rc.Global.Address,
			User:     rc.Global.User,
			Password: rc.Global.Password,
		},
		Transport: Transport{Compression: rc.Transport.Compression},
	}
	if rc.Global.DialTimeout != "" {
		d, err := time.ParseDuration(rc.Global.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("config: invalid dial-timeout: %w", err)
		}
		c.Global.DialTimeout = d
	}
	if rc.Global.RequestTimeout != "" {
		d, err := time.ParseDuration(rc.Global.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("config: invalid request-timeout: %w", err)
		}
		c.Global.RequestTimeout = d
	}
	if rc.Global.MaxPending != "" {
		n, err := parseSize(rc.Global.MaxPending)
		if err != nil {
			return nil, fmt.Errorf("config: invalid max-pending: %w", err)
		}
		c.Global.MaxPending = n
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Global.Address == "" {
		return ErrMissingAddress
	}
	if c.Global.DialTimeout == 0 {
		c.Global.DialTimeout = 10 * time.Second
	}
	if c.Global.RequestTimeout == 0 {
		c.Global.RequestTimeout = 30 * time.Second
	}
	if c.Global.MaxPending == 0 {
		c.Global.MaxPending = 64
	}
	return nil
}

func parseSize(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	bs, err := bytesize.Parse(v)
	if err != nil {
		return 0, err
	}
	return int(bs), nil
}
