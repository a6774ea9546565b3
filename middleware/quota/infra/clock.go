package infra

import "time"

// SystemClock lê o relógio do sistema. Location define o que é "hoje";
// nil usa o fuso local do processo.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
