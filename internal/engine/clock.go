package engine

import "time"

// Clock abstracts wall-clock time so tests can drive deadlines directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
