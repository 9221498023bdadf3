// Package inventory loads the device registry and locates per-host
// candidate configuration files.
package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
)

// Device is one row of the registry CSV.
type Device struct {
	Hostname string `csv:"hostname"`
	MgmtIP   string `csv:"mgmt_ip"`
}

// Load reads the device registry from a CSV file with header
// hostname,mgmt_ip. Records are returned in file order.
func Load(path string) (_ []Device, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	devices, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}
	return devices, nil
}

func parse(r io.Reader) ([]Device, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := checkHeader(dec.Header()); err != nil {
		return nil, err
	}

	var devices []Device
	for {
		var d Device
		if err := dec.Decode(&d); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(devices)+2, err)
		}
		d.Hostname = strings.TrimSpace(d.Hostname)
		d.MgmtIP = strings.TrimSpace(d.MgmtIP)
		if d.Hostname == "" || d.MgmtIP == "" {
			return nil, fmt.Errorf("row %d: hostname and mgmt_ip must be non-empty", len(devices)+2)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func checkHeader(header []string) error {
	seen := map[string]bool{}
	for _, h := range header {
		seen[strings.TrimSpace(h)] = true
	}
	for _, required := range []string{"hostname", "mgmt_ip"} {
		if !seen[required] {
			return fmt.Errorf("missing required column %q", required)
		}
	}
	return nil
}
