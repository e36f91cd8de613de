// Package config loads a Client's connection defaults and initial stream
// subscriptions from an INI file, the same file format and library
// (gopkg.in/ini.v1) the teacher package uses to parse its EDS device
// descriptions, repurposed here from object-dictionary entries to
// connection/stream parameters.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/EarthScope/goslink"
)

// Client mirrors the subset of goslink.Client fields a configuration file
// can populate.
type Client struct {
	Host         string
	Port         string
	NettoSec     int
	NetdlySec    int
	KeepaliveSec int
	IOTimeoutSec int
	Resume       bool
	Dialup       bool
	Batch        bool
	LastPktTime  bool
	BeginTime    string
	EndTime      string
	Streams      []StreamSpec
}

// StreamSpec is one [stream "NET.STA"] section.
type StreamSpec struct {
	Net       string
	Sta       string
	Selectors string
	SeqNum    int32
	Timestamp string
}

var streamSectionRe = regexp.MustCompile(`^stream\s+"([^."]+)\.([^"]+)"$`)

// Load reads path and returns the parsed configuration.
func Load(path string) (*Client, error) {
	doc, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	c := &Client{
		Host:         goslink.DefaultHost,
		Port:         goslink.DefaultPort,
		NettoSec:     int(goslink.DefaultIdleTimeout / time.Second),
		NetdlySec:    int(goslink.DefaultReconnectDly / time.Second),
		IOTimeoutSec: int(goslink.DefaultIdleTimeout / time.Second),
		Resume:       true,
	}

	if clientSection, err := doc.GetSection("client"); err == nil {
		c.Host = clientSection.Key("host").MustString(c.Host)
		c.Port = clientSection.Key("port").MustString(c.Port)
		c.NettoSec = clientSection.Key("netto").MustInt(c.NettoSec)
		c.NetdlySec = clientSection.Key("netdly").MustInt(c.NetdlySec)
		c.KeepaliveSec = clientSection.Key("keepalive").MustInt(c.KeepaliveSec)
		c.IOTimeoutSec = clientSection.Key("iotimeout").MustInt(c.IOTimeoutSec)
		c.Resume = clientSection.Key("resume").MustBool(c.Resume)
		c.Dialup = clientSection.Key("dialup").MustBool(c.Dialup)
		c.Batch = clientSection.Key("batchmode").MustBool(c.Batch)
		c.LastPktTime = clientSection.Key("lastpkttime").MustBool(c.LastPktTime)
		c.BeginTime = clientSection.Key("begin_time").String()
		c.EndTime = clientSection.Key("end_time").String()
	}

	for _, section := range doc.Sections() {
		m := streamSectionRe.FindStringSubmatch(section.Name())
		if m == nil {
			continue
		}
		spec := StreamSpec{
			Net:       m[1],
			Sta:       m[2],
			Selectors: section.Key("selectors").String(),
			SeqNum:    -1,
			Timestamp: section.Key("timestamp").String(),
		}
		if seqStr := section.Key("seqnum").String(); seqStr != "" {
			seq, err := strconv.ParseInt(seqStr, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("config: section %q: invalid seqnum %q: %w", section.Name(), seqStr, err)
			}
			spec.SeqNum = int32(seq)
		}
		c.Streams = append(c.Streams, spec)
	}

	return c, nil
}

// NewClient turns the parsed configuration into live goslink types by
// calling the same public constructors a caller would use directly: the
// config loader is a convenience layer over goslink.NewClient and
// StreamList.Add, not a parallel code path.
func (c *Client) NewClient(logger *logrus.Logger) (*goslink.Client, *goslink.StreamList, error) {
	addr := c.Host + ":" + c.Port
	var gl goslink.Logger
	if logger != nil {
		gl = goslink.NewLogger(logger, "goslink")
	}

	client := goslink.NewClient(addr, gl)
	client.Resume = c.Resume
	client.Dialup = c.Dialup
	client.LastPktTime = c.LastPktTime
	client.BeginTime = c.BeginTime
	client.EndTime = c.EndTime
	client.NetworkTimeout = time.Duration(c.NettoSec) * time.Second
	client.ReconnectDelay = time.Duration(c.NetdlySec) * time.Second
	client.IOTimeout = time.Duration(c.IOTimeoutSec) * time.Second
	client.KeepaliveInterval = time.Duration(c.KeepaliveSec) * time.Second
	if c.Batch {
		client.Batch = goslink.BatchRequested
	}

	streams := client.Streams()
	for _, s := range c.Streams {
		if strings.EqualFold(s.Net, "XX") && strings.EqualFold(s.Sta, "UNI") {
			if err := streams.SetUniStation(s.Selectors, s.SeqNum, s.Timestamp); err != nil {
				return nil, nil, err
			}
			continue
		}
		if err := streams.Add(s.Net, s.Sta, s.Selectors, s.SeqNum, s.Timestamp); err != nil {
			return nil, nil, err
		}
	}

	return client, streams, nil
}
