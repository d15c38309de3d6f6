package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeDaemonTXT creates TXT records for a daemon advertisement.
func EncodeDaemonTXT(info *DaemonInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyVersion] = strconv.Itoa(ProtocolVersion)
	txt[TXTKeyName] = info.Name

	if info.Platform != "" {
		txt[TXTKeyPlatform] = info.Platform
	}
	if info.PortCount > 0 {
		txt[TXTKeyPortCount] = strconv.Itoa(info.PortCount)
	}

	return txt
}

// DecodeDaemonTXT parses TXT records from a daemon advertisement.
func DecodeDaemonTXT(txt TXTRecordMap) (*DaemonInfo, error) {
	info := &DaemonInfo{}

	verStr, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	ver, err := strconv.Atoi(verStr)
	if err != nil || ver != ProtocolVersion {
		return nil, ErrInvalidVersion
	}

	info.Name, ok = txt[TXTKeyName]
	if !ok || info.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyName)
	}

	info.Platform = txt[TXTKeyPlatform]

	if pcStr, ok := txt[TXTKeyPortCount]; ok {
		pc, err := strconv.Atoi(pcStr)
		if err != nil || pc < 0 {
			return nil, fmt.Errorf("%w: invalid port count %q", ErrInvalidTXTRecord, pcStr)
		}
		info.PortCount = pc
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings, the format mDNS libraries expect.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a
// TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// joinHostPort formats host:port, bracketing IPv6 literals.
func joinHostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}
