package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/serialbridge/serialbridge-go/pkg/serialport"
	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

// Profile is a named port configuration from the profiles file.
type Profile struct {
	Path          string `yaml:"path"`
	BaudRate      int    `yaml:"baudRate"`
	Encoding      string `yaml:"encoding,omitempty"`
	DataBits      int    `yaml:"dataBits,omitempty"`
	Parity        string `yaml:"parity,omitempty"`
	StopBits      int    `yaml:"stopBits,omitempty"`
	FlowControl   string `yaml:"flowControl,omitempty"`
	TimeoutMillis int    `yaml:"timeoutMillis,omitempty"`
	Size          int    `yaml:"size,omitempty"`
}

// profileFile is the on-disk layout:
//
//	profiles:
//	  arduino:
//	    path: /dev/ttyACM0
//	    baudRate: 115200
//	  modem:
//	    path: /dev/ttyUSB0
//	    baudRate: 9600
//	    parity: Even
type profileFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// LoadProfiles reads a YAML profiles file. A missing file is not an
// error; it yields an empty map.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Profile{}, nil
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles parses YAML profile data.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if file.Profiles == nil {
		file.Profiles = map[string]Profile{}
	}
	for name, p := range file.Profiles {
		if p.Path == "" {
			return nil, fmt.Errorf("profile %q: path is required", name)
		}
		if p.BaudRate <= 0 {
			return nil, fmt.Errorf("profile %q: baudRate is required", name)
		}
	}
	return file.Profiles, nil
}

// SessionConfig converts the profile into a session configuration.
func (p Profile) SessionConfig() serialport.Config {
	return serialport.Config{
		Path:        p.Path,
		BaudRate:    p.BaudRate,
		Encoding:    p.Encoding,
		DataBits:    wire.DataBits(p.DataBits),
		Parity:      wire.ParseParity(p.Parity),
		StopBits:    wire.StopBits(p.StopBits),
		FlowControl: wire.ParseFlowControl(p.FlowControl),
		Timeout:     time.Duration(p.TimeoutMillis) * time.Millisecond,
		Size:        p.Size,
	}
}
