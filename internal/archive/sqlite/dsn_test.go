package sqlite

import "testing"

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		memory  bool
		wantErr bool
	}{
		{name: "memory", input: "sqlite://:memory:", want: ":memory:", memory: true},
		{name: "absolute", input: "sqlite:///var/lib/chronomap/archive.db", want: "/var/lib/chronomap/archive.db"},
		{name: "relative", input: "sqlite://archive.db", want: "./archive.db"},
		{name: "dot relative", input: "sqlite://./data/archive.db", want: "./data/archive.db"},
		{name: "escaped", input: "sqlite://my%20archive.db", want: "./my archive.db"},
		{name: "query", input: "sqlite://archive.db?_txlock=immediate", want: "./archive.db?_txlock=immediate"},
		{name: "wrong scheme", input: "postgres://localhost/db", wantErr: true},
		{name: "empty path", input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDSN(%q): %v", tt.input, err)
			}
			if got.name() != tt.want || got.memory != tt.memory {
				t.Fatalf("parseDSN(%q) = %q (memory=%v), want %q (memory=%v)", tt.input, got.name(), got.memory, tt.want, tt.memory)
			}
		})
	}
}

func TestDriverPragmas(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "sqlite://:memory:", want: ":memory:?_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)"},
		{input: "sqlite://archive.db", want: "./archive.db?_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"},
		{input: "sqlite://archive.db?_txlock=immediate", want: "./archive.db?_txlock=immediate&_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			parsed, err := parseDSN(tt.input)
			if err != nil {
				t.Fatalf("parseDSN(%q): %v", tt.input, err)
			}
			if got := parsed.driver(); got != tt.want {
				t.Fatalf("driver() = %q, want %q", got, tt.want)
			}
		})
	}
}
