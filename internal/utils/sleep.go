package utils

import (
	"math/rand"
	"time"
)

// RandomSleep blocks for a random duration between minMs and maxMs milliseconds.
func RandomSleep(minMs, maxMs int) {
	time.Sleep(RandomDuration(minMs, maxMs))
}

func RandomDuration(minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}

	return time.Duration(minMs+rand.Intn(maxMs-minMs+1)) * time.Millisecond
}
