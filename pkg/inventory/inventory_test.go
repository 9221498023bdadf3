package inventory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeInventory(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.csv")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeInventory(t, "hostname,mgmt_ip\nrouter1,10.10.1.1\nrouter2, 10.10.1.2 \n")

	devices, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
	want := []Device{
		{Hostname: "router1", MgmtIP: "10.10.1.1"},
		{Hostname: "router2", MgmtIP: "10.10.1.2"},
	}
	for i, d := range devices {
		if d != want[i] {
			t.Errorf("device %d = %+v, want %+v", i, d, want[i])
		}
	}
}

func TestLoadPreservesRowOrder(t *testing.T) {
	path := writeInventory(t, "hostname,mgmt_ip\nzeta,10.0.0.3\nalpha,10.0.0.1\nmid,10.0.0.2\n")

	devices, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := []string{devices[0].Hostname, devices[1].Hostname, devices[2].Hostname}
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestLoadExtraColumnsIgnored(t *testing.T) {
	path := writeInventory(t, "hostname,mgmt_ip,site\nrouter1,10.10.1.1,ny\n")

	devices, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(devices) != 1 || devices[0].Hostname != "router1" {
		t.Errorf("got %+v", devices)
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeInventory(t, "hostname,address\nrouter1,10.10.1.1\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected format error for missing mgmt_ip column")
	}
	if !strings.Contains(err.Error(), "mgmt_ip") {
		t.Errorf("error should name the missing column: %v", err)
	}
}

func TestLoadEmptyField(t *testing.T) {
	path := writeInventory(t, "hostname,mgmt_ip\nrouter1,\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty mgmt_ip")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing inventory file")
	}
}
