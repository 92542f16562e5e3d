package cfg

import "testing"

type driverConfig struct {
	Addr    string `mapstructure:"addr"`
	Retries int    `mapstructure:"retries"`
}

func (c *driverConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.Retries == 0 {
		c.Retries = 3
	}
}

func TestDecodeAppliesDefaults(t *testing.T) {
	var c driverConfig
	if err := Decode(map[string]any{"retries": 5}, &c); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if c.Addr != "localhost:6379" {
		t.Errorf("Addr = %q, want default", c.Addr)
	}
	if c.Retries != 5 {
		t.Errorf("Retries = %d, want 5", c.Retries)
	}
}

func TestDecodeWithUnused(t *testing.T) {
	var c driverConfig
	unused, err := DecodeWithUnused(map[string]any{"addr": "valkey:6379", "zzz": 1, "aaa": 2}, &c)
	if err != nil {
		t.Fatalf("DecodeWithUnused failed: %v", err)
	}
	if len(unused) != 2 || unused[0] != "aaa" || unused[1] != "zzz" {
		t.Errorf("unused = %v, want sorted [aaa zzz]", unused)
	}
}

func TestMustDecodeStrict(t *testing.T) {
	var c driverConfig
	if err := MustDecodeStrict(map[string]any{"addr": "x"}, &c); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := MustDecodeStrict(map[string]any{"bogus": true}, &c); err == nil {
		t.Error("expected error for unused key")
	}
}
