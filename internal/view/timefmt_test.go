package view

import (
	"testing"
	"time"
)

func TestRelativeLabel(t *testing.T) {
	now := time.Now()
	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-90 * time.Second), "1 min ago"},
		{now.Add(-15 * time.Minute), "15 min ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-50 * time.Hour), "2 days ago"},
	}
	for _, tc := range cases {
		if got := RelativeLabel(tc.at); got != tc.want {
			t.Fatalf("label for %v: expected %q, got %q", now.Sub(tc.at), tc.want, got)
		}
	}
}
