package engine

import "time"

const (
	gamesPerMatchday = 4
	matchdayGap      = 48 * time.Hour
)

// Calendar hands out game dates: the date moves two days forward before
// every fourth game, starting with the first one.
type Calendar struct {
	date   time.Time
	played int
}

func NewCalendar(start time.Time) *Calendar {
	return &Calendar{date: start}
}

// Next returns the date of the next game and counts it as played.
func (c *Calendar) Next() time.Time {
	if c.played%gamesPerMatchday == 0 {
		c.date = c.date.Add(matchdayGap)
	}
	c.played++
	return c.date
}

func (c *Calendar) Played() int {
	return c.played
}
