package view

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

var relTimeMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "just now", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 min %s", DivBy: 1},
	{D: time.Hour, Format: "%d min %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: 1},
	{D: humanize.Week, Format: "%d days %s", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "1 week %s", DivBy: 1},
	{D: humanize.Month, Format: "%d weeks %s", DivBy: humanize.Week},
	{D: 2 * humanize.Month, Format: "1 month %s", DivBy: 1},
	{D: humanize.Year, Format: "%d months %s", DivBy: humanize.Month},
	{D: math.MaxInt64, Format: "%d years %s", DivBy: humanize.Year},
}

// RelativeLabel renders a timestamp as a human relative label. Labels are
// re-evaluated on the controller clock so they stay fresh while displayed.
func RelativeLabel(t time.Time) string {
	return humanize.CustomRelTime(t, time.Now(), "ago", "from now", relTimeMagnitudes)
}
