package app

import (
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/cognition"
	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

// pipeline ties capture, inference and packet assembly to one tick clock.
// Not safe for concurrent use — runLoop's goroutine owns it.
type pipeline struct {
	capture *signal.Capture
	engine  *cognition.Engine
	builder *packet.Builder
	ticks   int
}

func newPipeline(start time.Time, provider packet.ContextProvider, logCapacity int) *pipeline {
	return &pipeline{
		capture: signal.NewCapture(start),
		engine:  cognition.NewEngine(start, logCapacity),
		builder: packet.NewBuilder(start, provider),
	}
}

// apply feeds one raw event into the capture.
func (p *pipeline) apply(ev signal.Event) {
	p.capture.Apply(ev)
}

// tick advances one poll interval: clocks move, every EvalEvery ticks the
// state is re-evaluated, every EmitEvery ticks a packet is emitted. The
// evaluation runs before sampling so the sample reflects the new state.
func (p *pipeline) tick(now time.Time) (*cognition.Transition, *packet.Packet) {
	p.ticks++

	p.capture.Poll(now)
	snap := p.capture.Signals(now)

	var tr *cognition.Transition
	if p.ticks%EvalEvery == 0 {
		tr = p.engine.Evaluate(snap, now)
	}

	state := p.engine.CurrentState()
	p.builder.Sample(state, snap, now)

	var pk *packet.Packet
	if p.ticks%EmitEvery == 0 {
		out := p.builder.Emit(state, snap, now)
		pk = &out
	}
	return tr, pk
}
