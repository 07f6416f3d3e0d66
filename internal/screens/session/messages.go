package session

import "time"

// timerTickMsg is sent every second to drive the countdown.
type timerTickMsg time.Time

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmSubmit
	confirmLeave
)
