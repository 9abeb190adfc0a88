package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/webpilot/pkg/logging"
)

var logger = logging.NewLogger("tool")

// Invoke runs one tool call against host without any locking: it validates
// raw, calls the handler, applies the returned effect and refreshes or
// clears the current tab's snapshot. Validation and handler failures are
// recorded in the returned Response; Invoke itself never fails.
func Invoke(ctx context.Context, host Host, t *Tool, raw json.RawMessage) *Response {
	resp := NewResponse(t.name, raw)

	params, err := t.Validate(raw)
	if err != nil {
		logger.Debugf("%s rejected: %v", t.name, err)
		resp.SetError(err)
		return resp
	}

	outcome, err := t.run(ctx, host, params, resp)
	if err != nil {
		logger.Debugf("%s failed: %v", t.name, err)
		resp.SetError(&ExecutionError{Tool: t.name, Err: err})
		if !t.readOnly {
			clearCurrentSnapshot(host)
		}
		return resp
	}

	switch {
	case outcome.CaptureSnapshot:
		current, err := host.CurrentTab()
		if err != nil {
			break
		}
		snapshot, err := current.CaptureSnapshot(ctx, outcome.WaitForNetwork)
		if err != nil {
			logger.Warnf("%s: snapshot recapture failed: %v", t.name, err)
			break
		}
		resp.setSnapshot(snapshot)
	case !t.readOnly:
		clearCurrentSnapshot(host)
	}

	return resp
}

// run calls the handler and applies its effect, converting panics into errors.
func (t *Tool) run(ctx context.Context, host Host, params any, resp *Response) (outcome *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("tool %s panicked: %v", t.name, r)
		}
	}()

	outcome, err = t.handle(ctx, host, params, resp)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		outcome = &Outcome{}
	}
	resp.addCode(outcome.Code)

	if outcome.Effect != nil {
		current, err := host.CurrentTab()
		if err != nil {
			return nil, err
		}
		if err := outcome.Effect.Apply(ctx, current); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func clearCurrentSnapshot(host Host) {
	if current, err := host.CurrentTab(); err == nil {
		current.ClearSnapshot()
	}
}
