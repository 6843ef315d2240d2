package formz

import "testing"

type codecTestConfig struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	codec := JSONCodec{}

	var cfg codecTestConfig
	if err := codec.Unmarshal([]byte(`{"name": "test", "value": 42}`), &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if cfg.Name != "test" || cfg.Value != 42 {
		t.Errorf("unexpected config %+v", cfg)
	}

	data, err := codec.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"name":"test","value":42}` {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestJSONCodec_UnmarshalInvalid(t *testing.T) {
	var cfg codecTestConfig
	if err := (JSONCodec{}).Unmarshal([]byte(`{not valid json}`), &cfg); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestYAMLCodec_Unmarshal(t *testing.T) {
	codec := YAMLCodec{}

	var cfg codecTestConfig
	if err := codec.Unmarshal([]byte("name: test\nvalue: 42"), &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if cfg.Name != "test" || cfg.Value != 42 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestYAMLCodec_UnmarshalJSON(t *testing.T) {
	// YAML codec should also accept JSON (YAML is a superset of JSON)
	var cfg codecTestConfig
	if err := (YAMLCodec{}).Unmarshal([]byte(`{"name": "json-compat", "value": 99}`), &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if cfg.Name != "json-compat" || cfg.Value != 99 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestYAMLCodec_UnmarshalInvalid(t *testing.T) {
	var cfg codecTestConfig
	if err := (YAMLCodec{}).Unmarshal([]byte("name: [unclosed"), &cfg); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestCodec_ContentTypes(t *testing.T) {
	if ct := (JSONCodec{}).ContentType(); ct != "application/json" {
		t.Errorf("expected 'application/json', got %q", ct)
	}
	if ct := (YAMLCodec{}).ContentType(); ct != "application/x-yaml" {
		t.Errorf("expected 'application/x-yaml', got %q", ct)
	}
}

func TestDetectCodec(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{`{"a": 1}`, "application/json"},
		{"  [1, 2]", "application/json"},
		{"a: 1", "application/x-yaml"},
		{"", "application/x-yaml"},
	}
	for _, tt := range tests {
		if got := DetectCodec([]byte(tt.data)).ContentType(); got != tt.want {
			t.Errorf("DetectCodec(%q) = %q, want %q", tt.data, got, tt.want)
		}
	}
}
