// Package session supplies learner identity to the telemetry pipeline.
package session

import (
	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
)

// Static serves the same learner context for every packet. A session id
// is minted at construction when none is supplied, so every run of the
// sensor is distinguishable downstream even without configured identity.
type Static struct {
	ctx packet.LearnerContext
}

// NewStatic builds a provider around the given identity. Empty fields
// other than the session id stay empty and serialize as null.
func NewStatic(ctx packet.LearnerContext) *Static {
	if ctx.SessionID == "" {
		ctx.SessionID = uuid.NewString()
	}
	return &Static{ctx: ctx}
}

// Learner implements packet.ContextProvider.
func (s *Static) Learner() (packet.LearnerContext, error) {
	return s.ctx, nil
}

// Func adapts a plain function into a packet.ContextProvider.
type Func func() (packet.LearnerContext, error)

// Learner implements packet.ContextProvider.
func (f Func) Learner() (packet.LearnerContext, error) {
	return f()
}
