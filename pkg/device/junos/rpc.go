package junos

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Junos-specific RPC payloads. These are the same operations PyEZ-style
// clients issue for candidate configuration editing: lock, merge-load of
// curly-brace text, set-format rendering, rollback 0, and file cleanup.

const (
	rpcLockConfig   = "<lock-configuration/>"
	rpcUnlockConfig = "<unlock-configuration/>"
	rpcRollback     = `<load-configuration rollback="0"/>`
	rpcGetSetConfig = `<get-configuration format="set" database="candidate"/>`
)

// loadMergeRPC wraps configuration text in a merge-mode load request.
func loadMergeRPC(config string) string {
	return fmt.Sprintf(
		`<load-configuration action="merge" format="text"><configuration-text>%s</configuration-text></load-configuration>`,
		xmlEscape(config))
}

// fileDeleteRPC builds the request removing a file from the device.
func fileDeleteRPC(path string) string {
	return fmt.Sprintf("<file-delete><path>%s</path></file-delete>", xmlEscape(path))
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	// EscapeText only errors on a failing writer; bytes.Buffer cannot fail.
	xml.EscapeText(&buf, []byte(s)) //nolint:errcheck
	return buf.String()
}

// parseSetOutput extracts the set-syntax text from a get-configuration
// reply body. Junos wraps the rendering in a <configuration-set> element;
// the element name is not checked so firmware variants that use a
// different wrapper still parse.
func parseSetOutput(data string) (string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", nil
	}

	var body struct {
		Text string `xml:",chardata"`
	}
	if err := xml.Unmarshal([]byte(data), &body); err != nil {
		return "", fmt.Errorf("parsing set output: %w", err)
	}

	text := strings.TrimSpace(body.Text)
	if text == "" {
		return "", nil
	}
	return text + "\n", nil
}
