package main

import "testing"

func TestParseRating(t *testing.T) {
	tests := []struct {
		line   string
		rating float64
		quit   bool
		skip   bool
	}{
		{line: "l", rating: 1.0},
		{line: "LIKE", rating: 1.0},
		{line: "y", rating: 1.0},
		{line: "d", rating: 0.0},
		{line: "n", rating: 0.0},
		{line: "0.7", rating: 0.7},
		{line: "1.5", rating: 1.0},
		{line: "-0.3", rating: 0.0},
		{line: "q", quit: true},
		{line: "quit", quit: true},
		{line: "s", skip: true},
		{line: "", skip: true},
		{line: "banana", skip: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rating, quit, skip := parseRating(tt.line)
			if quit != tt.quit || skip != tt.skip {
				t.Fatalf("parseRating(%q) quit=%v skip=%v, want quit=%v skip=%v",
					tt.line, quit, skip, tt.quit, tt.skip)
			}
			if !quit && !skip && rating != tt.rating {
				t.Fatalf("parseRating(%q) rating = %v, want %v", tt.line, rating, tt.rating)
			}
		})
	}
}
