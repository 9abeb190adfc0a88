package agent

import (
	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/types"
)

// HistoryPolicy decides which messages survive into the next turn. Prune
// runs after the model call of every Act, before that turn's tool output
// is appended.
type HistoryPolicy interface {
	// Name returns the policy's identifier for logging.
	Name() string

	// Prune returns the messages to keep. It may reuse the backing array.
	Prune(messages []*types.Message) []*types.Message
}

// DropToolMessages removes the tool output of earlier turns so that only
// the latest turn's results stay in the conversation.
type DropToolMessages struct{}

func (DropToolMessages) Name() string { return "DropToolMessages" }

func (DropToolMessages) Prune(messages []*types.Message) []*types.Message {
	kept := messages[:0]
	for _, m := range messages {
		if m.Role != types.RoleTool {
			kept = append(kept, m)
		}
	}
	// Release the dropped tail for the collector
	for i := len(kept); i < len(messages); i++ {
		messages[i] = nil
	}
	return kept
}

// KeepAllMessages never prunes.
type KeepAllMessages struct{}

func (KeepAllMessages) Name() string { return "KeepAllMessages" }

func (KeepAllMessages) Prune(messages []*types.Message) []*types.Message {
	return messages
}

// PolicyFromConfig maps the history configuration to a policy.
func PolicyFromConfig(cfg config.HistoryConfig) HistoryPolicy {
	if cfg.KeepPreviousToolMessages {
		return KeepAllMessages{}
	}
	return DropToolMessages{}
}
