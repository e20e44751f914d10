package timeouts

import "time"

const (
	Ping          = 300 * time.Millisecond
	PollInterval  = 200 * time.Millisecond
	Keepalive     = 15 * time.Second
	SecondShort   = 2 * time.Second
	SecondDefault = 10 * time.Second
	SecondLong    = 30 * time.Second
	StreamRetry   = 30 * time.Second
)
