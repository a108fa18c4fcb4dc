package services

import (
	"context"

	"github.com/jwebster45206/gatekeeper/pkg/chat"
)

// OracleService is the transport to the text-generation backend that makes
// gatekeeper decisions. Implementations are stateless: one round trip, raw
// text back, no interpretation. Failures are terminal for the current cycle;
// callers never retry.
type OracleService interface {
	// Decide submits the system directive and serialized snapshot and
	// returns the raw response text. An empty completion body is an error.
	Decide(ctx context.Context, messages []chat.ChatMessage) (string, error)
}
