package app

import (
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/cognition"
	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
	"github.com/yashikart/gurukul-backend--sub002/internal/source"
)

// SimResult aggregates everything a scripted run produced.
type SimResult struct {
	Transitions []cognition.Transition
	Packets     []packet.Packet
}

// Simulate drives the pipeline over a script on a virtual clock: no
// sleeping, no goroutines. Script events are applied at their scripted
// offsets between ticks, so a run over minutes of scripted time returns
// immediately. The script must be ordered by at_ms.
func Simulate(start time.Time, script []source.ScriptEvent, duration time.Duration, provider packet.ContextProvider, logCapacity int) SimResult {
	pl := newPipeline(start, provider, logCapacity)

	var res SimResult
	next := 0
	ticks := int(duration / PollInterval)
	for n := 1; n <= ticks; n++ {
		now := start.Add(time.Duration(n) * PollInterval)
		for next < len(script) && script[next].AtMs <= int64(n)*PollInterval.Milliseconds() {
			at := start.Add(time.Duration(script[next].AtMs) * time.Millisecond)
			pl.apply(script[next].Event(at))
			next++
		}

		tr, pk := pl.tick(now)
		if tr != nil {
			res.Transitions = append(res.Transitions, *tr)
		}
		if pk != nil {
			res.Packets = append(res.Packets, *pk)
		}
	}
	return res
}
