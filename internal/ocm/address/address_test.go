package address

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		wantUser string
		wantHost string
	}{
		{"simple", "alice@cloud.example.org", "alice", "cloud.example.org"},
		{"email style user id", "alice@example.com@cloud.example.org", "alice@example.com", "cloud.example.org"},
		{"no at sign", "alice", "alice", ""},
		{"empty", "", "", ""},
		{"trailing at", "alice@", "alice", ""},
		{"leading at", "@cloud.example.org", "", "cloud.example.org"},
		{"host with port", "bob@cloud.example.org:9200", "bob", "cloud.example.org:9200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.identity)
			if got.UserID != tt.wantUser {
				t.Errorf("UserID = %q, want %q", got.UserID, tt.wantUser)
			}
			if got.Host != tt.wantHost {
				t.Errorf("Host = %q, want %q", got.Host, tt.wantHost)
			}
		})
	}
}

func TestParseWithDisplayName(t *testing.T) {
	a := ParseWithDisplayName("alice@cloud.example.org", "Alice")
	if a.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q, want %q", a.DisplayName, "Alice")
	}
	if a.UserID != "alice" || a.Host != "cloud.example.org" {
		t.Errorf("unexpected address: %+v", a)
	}
}

func TestString(t *testing.T) {
	if got := Parse("alice@cloud.example.org").String(); got != "alice@cloud.example.org" {
		t.Errorf("String() = %q", got)
	}
	if got := Parse("alice").String(); got != "alice" {
		t.Errorf("String() without host = %q", got)
	}
}
