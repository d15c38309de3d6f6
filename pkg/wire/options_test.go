package wire

import "testing"

func TestDataBitsNormalize(t *testing.T) {
	cases := []struct {
		in   DataBits
		want DataBits
	}{
		{DataBits5, DataBits5},
		{DataBits6, DataBits6},
		{DataBits7, DataBits7},
		{DataBits8, DataBits8},
		{DataBitsDefault, DataBits8},
		{DataBits(9), DataBits8},
		{DataBits(4), DataBits8},
	}
	for _, c := range cases {
		if got := c.in.Normalize(); got != c.want {
			t.Errorf("DataBits(%d).Normalize() = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestStopBitsNormalize(t *testing.T) {
	cases := []struct {
		in   StopBits
		want StopBits
	}{
		{StopBits1, StopBits1},
		{StopBits2, StopBits2},
		{StopBitsDefault, StopBits2},
		{StopBits(3), StopBits2},
	}
	for _, c := range cases {
		if got := c.in.Normalize(); got != c.want {
			t.Errorf("StopBits(%d).Normalize() = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseParity(t *testing.T) {
	cases := []struct {
		name string
		want Parity
	}{
		{"Odd", ParityOdd},
		{"odd", ParityOdd},
		{"Even", ParityEven},
		{"None", ParityNone},
		{"", ParityNone},
		{"bogus", ParityNone},
	}
	for _, c := range cases {
		if got := ParseParity(c.name); got != c.want {
			t.Errorf("ParseParity(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestParseFlowControl(t *testing.T) {
	cases := []struct {
		name string
		want FlowControl
	}{
		{"Software", FlowControlSoftware},
		{"Hardware", FlowControlHardware},
		{"None", FlowControlNone},
		{"", FlowControlNone},
		{"bogus", FlowControlNone},
	}
	for _, c := range cases {
		if got := ParseFlowControl(c.name); got != c.want {
			t.Errorf("ParseFlowControl(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestOptionStrings(t *testing.T) {
	if ParityOdd.String() != "Odd" || ParityEven.String() != "Even" || ParityNone.String() != "None" {
		t.Error("unexpected parity names")
	}
	if FlowControlSoftware.String() != "Software" || FlowControlHardware.String() != "Hardware" || FlowControlNone.String() != "None" {
		t.Error("unexpected flow control names")
	}
}
