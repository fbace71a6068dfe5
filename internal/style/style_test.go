package style

import (
	"strings"
	"testing"
)

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name   string
		active bool
		status string
	}{
		{name: "active status", active: true, status: "Listening"},
		{name: "inactive status", active: false, status: "Stopped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.active, tt.status)
			if !strings.Contains(got, tt.status) {
				t.Errorf("FormatStatus() missing status %q", tt.status)
			}
		})
	}
}

func TestFormatListItemHighlightsActive(t *testing.T) {
	plain := FormatListItem("DP-1", false)
	active := FormatListItem("DP-1", true)

	if !strings.Contains(plain, "DP-1") || !strings.Contains(active, "DP-1") {
		t.Fatal("FormatListItem() missing item text")
	}
	if plain == active {
		t.Error("expected active item styling to differ from plain")
	}
}

func TestCreateSeparatorDefaultsWidth(t *testing.T) {
	sep := CreateSeparator(0, "")
	if !strings.Contains(sep, "─") {
		t.Error("expected default separator character")
	}
}

func TestFormatAppHeaderIncludesSubtitle(t *testing.T) {
	header := FormatAppHeader("OUTPUTS", "3 connected")
	if !strings.Contains(header, "OUTPUTS") || !strings.Contains(header, "3 connected") {
		t.Errorf("FormatAppHeader() missing title or subtitle: %s", header)
	}
}

func TestFormatKeyValue(t *testing.T) {
	kv := FormatKeyValue("seat", "seat0")
	if !strings.Contains(kv, "seat0") {
		t.Errorf("FormatKeyValue() missing value: %s", kv)
	}
}
