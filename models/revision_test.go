package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRevisionMetadataJSONRoundTrip(t *testing.T) {
	original := RevisionMetadata{
		Revision: "v3",
		Commit:   "abc123",
		Author:   "Jane <j@x.com>",
		Date:     "2024-01-05T10:00:00Z",
		Message:  "fix",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal metadata: %v", err)
	}

	var parsed RevisionMetadata
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal metadata: %v", err)
	}

	if parsed != original {
		t.Errorf("round trip changed metadata: got %+v, want %+v", parsed, original)
	}
}

func TestRevisionMetadataJSONFieldNames(t *testing.T) {
	meta := RevisionMetadata{Revision: "v1", Commit: "c", Author: "a", Date: "d", Message: "m"}

	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("failed to marshal metadata: %v", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal into map: %v", err)
	}

	for _, key := range []string{"revision", "commit", "author", "date", "message"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected JSON key %q, got keys %v", key, raw)
		}
	}
}

func TestRevisionMetadataTime(t *testing.T) {
	cases := []struct {
		name string
		date string
		want time.Time
	}{
		{"rfc3339", "2024-01-05T10:00:00Z", time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)},
		{"git iso", "2024-01-05 10:00:00 +0000", time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)},
		{"git default", "Fri Jan 5 10:00:00 2024 +0000", time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RevisionMetadata{Date: tc.date}.Time()
			if !got.Equal(tc.want) {
				t.Errorf("parsed %q to %v, want %v", tc.date, got, tc.want)
			}
		})
	}
}

func TestRevisionMetadataTimeUnparsable(t *testing.T) {
	got := RevisionMetadata{Date: "not a date"}.Time()
	if !got.IsZero() {
		t.Errorf("expected zero time for unparsable date, got %v", got)
	}
}
