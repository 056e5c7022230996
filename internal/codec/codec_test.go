package codec

import (
	"testing"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"", "json", "yaml"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
		}
	}
	if _, err := ByName("toml"); err == nil {
		t.Error("ByName(toml) should fail")
	}
}

func TestDecode_RejectsNonObjects(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
		data  string
	}{
		{"json null", JSON{}, "null"},
		{"json array", JSON{}, `["a"]`},
		{"json truncated", JSON{}, `{"networkName":"ho`},
		{"json nested value", JSON{}, `{"networkName":{"x":1}}`},
		{"yaml empty", YAML{}, ""},
		{"yaml list", YAML{}, "- a\n- b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.codec.Decode([]byte(tt.data)); err == nil {
				t.Errorf("Decode(%q) expected error", tt.data)
			}
		})
	}
}

func TestEncode_SpecialCharacters(t *testing.T) {
	in := map[string]string{"networkName": "café: \"5G\"", "secret": "p@ss\nword"}
	for name, c := range map[string]Codec{"json": JSON{}, "yaml": YAML{}} {
		data, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%s Encode() error = %v", name, err)
		}
		out, err := c.Decode(data)
		if err != nil {
			t.Fatalf("%s Decode() error = %v", name, err)
		}
		for k, v := range in {
			if out[k] != v {
				t.Errorf("%s: %s = %q, want %q", name, k, out[k], v)
			}
		}
	}
}
