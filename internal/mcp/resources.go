package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/gymtrack/internal/models"
)

func (h *handlers) activePlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var payload any

	planID, err := h.led.ActivePlan()
	if err != nil {
		return nil, err
	}
	if planID != nil {
		plan, err := h.db.GetPlan(ctx, *planID)
		if err != nil && !models.IsNotFound(err) {
			return nil, err
		}
		if plan != nil {
			payload = plan
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
