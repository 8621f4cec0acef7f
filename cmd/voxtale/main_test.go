package main

import "testing"

func TestParsePlacement(t *testing.T) {
	tests := []struct {
		in      string
		wantID  string
		startMs float64
		durSecs float64
		wantErr bool
	}{
		{"c1@0:5", "c1", 0, 5, false},
		{"clip-abc@2500:3.5", "clip-abc", 2500, 3.5, false},
		{"id@with@10:2", "id@with", 10, 2, false},
		{"c1", "", 0, 0, true},
		{"c1@:5", "", 0, 0, true},
		{"c1@100", "", 0, 0, true},
		{"c1@-5:2", "", 0, 0, true},
		{"c1@100:0", "", 0, 0, true},
		{"@100:2", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			item, err := parsePlacement(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if item.ID != tt.wantID || item.StartTimeMs != tt.startMs || item.DurationSeconds != tt.durSecs {
				t.Fatalf("got %+v", item)
			}
		})
	}
}
