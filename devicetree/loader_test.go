package devicetree

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const boardYAML = `
boot_cpuid_phys: 1
reserved:
  - {address: 0x1000, size: 0x1000}
nodes:
  - path: /
    properties:
      - {name: "#address-cells", u32: 1}
      - {name: "#size-cells", u32: 1}
      - {name: model, string: "test board"}
  - path: /chosen
  - path: /memory
    properties:
      - {name: device_type, string: memory}
      - name: reg
        reg:
          - {address: 0x0, size: 0x10000000}
  - path: /soc/eth
    properties:
      - {name: local-mac-address, bytes: "02 00 00 00 00 01"}
      - {name: dma-coherent, empty: true}
      - {name: clock, u64: 0x100000000}
`

func TestLoadReader(t *testing.T) {
	dt, err := LoadReader(strings.NewReader(boardYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dt.BootCPUIDPhys != 1 {
		t.Errorf("BootCPUIDPhys = %d, want 1", dt.BootCPUIDPhys)
	}

	res := dt.ReservedMemory()
	if len(res) != 1 || res[0].Address != 0x1000 || res[0].Size != 0x1000 {
		t.Errorf("ReservedMemory() = %+v", res)
	}

	if got := propertyNames(dt.Root()); !equalStrings(got, []string{"#address-cells", "#size-cells", "model"}) {
		t.Errorf("root properties = %v", got)
	}

	if _, ok := dt.Lookup("chosen"); !ok {
		t.Error("node without properties was not created")
	}

	mem, ok := dt.Lookup("memory")
	if !ok {
		t.Fatal("memory node missing")
	}
	reg, _ := mem.Property("reg")
	if !bytes.Equal(Encode(reg), []byte{0, 0, 0, 0, 0x10, 0, 0, 0}) {
		t.Errorf("reg = % x", Encode(reg))
	}

	eth, ok := dt.Lookup("soc/eth")
	if !ok {
		t.Fatal("soc/eth missing")
	}
	mac, _ := eth.Property("local-mac-address")
	if !bytes.Equal(Encode(mac), []byte{2, 0, 0, 0, 0, 1}) {
		t.Errorf("local-mac-address = % x", Encode(mac))
	}
	if v, _ := eth.Property("dma-coherent"); v.Kind() != KindEmpty {
		t.Errorf("dma-coherent kind = %v, want empty", v.Kind())
	}
	if v, _ := eth.Property("clock"); v != Uint64(0x100000000) {
		t.Errorf("clock = %v, want 0x100000000", v)
	}

	if _, err := dt.ToBlob(); err != nil {
		t.Errorf("ToBlob: unexpected error: %v", err)
	}
}

func TestLoadReaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "empty file",
			input:  "",
			errMsg: "empty file",
		},
		{
			name:   "unknown field",
			input:  "nodes:\n  - path: /\n    props: []\n",
			errMsg: "failed to parse description",
		},
		{
			name:   "missing property name",
			input:  "nodes:\n  - path: /\n    properties:\n      - {u32: 1}\n",
			errMsg: "missing name",
		},
		{
			name:   "two values",
			input:  "nodes:\n  - path: /\n    properties:\n      - {name: x, u32: 1, string: a}\n",
			errMsg: "more than one value",
		},
		{
			name:   "empty with value",
			input:  "nodes:\n  - path: /\n    properties:\n      - {name: x, empty: true, u32: 1}\n",
			errMsg: "empty property cannot also set u32",
		},
		{
			name:   "bad hex",
			input:  "nodes:\n  - path: /\n    properties:\n      - {name: x, bytes: zz}\n",
			errMsg: "invalid hex data",
		},
		{
			name:   "zero-size reservation",
			input:  "reserved:\n  - {address: 0x1000, size: 0}\n",
			errMsg: "reserved entry 0",
		},
		{
			name:   "u32 overflow",
			input:  "nodes:\n  - path: /\n    properties:\n      - {name: x, u32: 0x100000000}\n",
			errMsg: "failed to parse description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReader(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte(boardYAML), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
