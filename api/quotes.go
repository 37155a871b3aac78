package api

import (
	"hash/fnv"

	"github.com/warp/checkin-engine/gamify"
)

// QuoteProvider maps an arrival tier to a display affirmation. The engine
// only emits the tier key; the text lives entirely on this side.
type QuoteProvider interface {
	Affirmation(tier gamify.ArrivalTier, day string) string
}

// StaticQuotes is the default provider: a fixed pool per tier, rotated by
// calendar day so everyone sees the same line on the same day.
type StaticQuotes struct{}

var quotePool = map[gamify.ArrivalTier][]string{
	gamify.TierEarly: {
		"The early bird gets the points!",
		"First in, best dressed.",
		"Morning champion - keep it up!",
	},
	gamify.TierOnTime: {
		"Right on time. Consistency wins.",
		"Showing up is half the battle.",
		"Steady as she goes!",
	},
	gamify.TierLate: {
		"Better late than never - tomorrow is a new day.",
		"Every streak starts with showing up.",
		"You made it. That counts.",
	},
}

func (StaticQuotes) Affirmation(tier gamify.ArrivalTier, day string) string {
	pool := quotePool[tier]
	if len(pool) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(day))
	return pool[int(h.Sum32())%len(pool)]
}
