package main

import (
	"testing"
	"time"

	"github.com/serialbridge/serialbridge-go/pkg/wire"
)

func TestParseProfiles(t *testing.T) {
	data := []byte(`
profiles:
  arduino:
    path: /dev/ttyACM0
    baudRate: 115200
  modem:
    path: /dev/ttyUSB0
    baudRate: 9600
    parity: Even
    stopBits: 1
    flowControl: Hardware
    timeoutMillis: 500
    size: 64
`)

	profiles, err := ParseProfiles(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("Parsed %d profiles, expected 2", len(profiles))
	}

	arduino := profiles["arduino"].SessionConfig()
	if arduino.Path != "/dev/ttyACM0" || arduino.BaudRate != 115200 {
		t.Errorf("arduino = %+v", arduino)
	}

	modem := profiles["modem"].SessionConfig()
	if modem.Parity != wire.ParityEven {
		t.Errorf("modem parity = %v, expected Even", modem.Parity)
	}
	if modem.StopBits != wire.StopBits1 {
		t.Errorf("modem stop bits = %v, expected 1", modem.StopBits)
	}
	if modem.FlowControl != wire.FlowControlHardware {
		t.Errorf("modem flow control = %v, expected Hardware", modem.FlowControl)
	}
	if modem.Timeout != 500*time.Millisecond {
		t.Errorf("modem timeout = %v, expected 500ms", modem.Timeout)
	}
	if modem.Size != 64 {
		t.Errorf("modem size = %d, expected 64", modem.Size)
	}
}

func TestParseProfilesRejectsIncomplete(t *testing.T) {
	if _, err := ParseProfiles([]byte("profiles:\n  bad:\n    baudRate: 9600\n")); err == nil {
		t.Error("Profile without path accepted")
	}
	if _, err := ParseProfiles([]byte("profiles:\n  bad:\n    path: /dev/ttyS0\n")); err == nil {
		t.Error("Profile without baud rate accepted")
	}
}

func TestParseProfilesEmpty(t *testing.T) {
	profiles, err := ParseProfiles([]byte(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("Parsed %d profiles from empty input", len(profiles))
	}
}
