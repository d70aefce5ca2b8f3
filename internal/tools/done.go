package tools

import (
	"context"
	"encoding/json"
)

func (e *Executor) registerDoneTool() {
	e.registry.Register(Def{
		Name:        "done",
		Description: "任务完成时调用，报告最终结果总结。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"summary":{"type":"string"}},"required":["summary"]}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			summary, err := requireString(args, "summary")
			if err != nil {
				return "", err
			}
			return DoneSentinelPrefix + summary, nil
		},
	})
}
