package tools

import "errors"

var (
	ErrUnsupportedModel = errors.New("tools: model does not support ssh")
	ErrNoSession        = errors.New("tools: no active gateway session")
	ErrNoCache          = errors.New("tools: no large-response cache present")
	ErrAPIError         = errors.New("tools: api error")
	ErrIOError          = errors.New("tools: io error")
)

// DoneSentinelPrefix marks a tool result as the terminal "done" signal the
// ReAct loop must recognize and stop on.
const DoneSentinelPrefix = "__DONE__:"
