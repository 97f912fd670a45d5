package geoip

import "testing"

func TestRecordCode(t *testing.T) {
	tests := []struct {
		record any
		want   string
	}{
		{"cn", "CN"},
		{map[string]any{"country": map[string]any{"iso_code": "jp"}}, "JP"},
		{map[string]any{"iso_code": "US"}, "US"},
		{map[string]any{"code": "netflix"}, "NETFLIX"},
		{map[string]any{"other": "x"}, ""},
		{uint64(7), ""},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := recordCode(tt.record); got != tt.want {
			t.Errorf("recordCode(%v) = %q, want %q", tt.record, got, tt.want)
		}
	}
}
