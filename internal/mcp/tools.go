package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/sekia-ai/rover/internal/rover"
)

func (s *MCPServer) handleMoveForward(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	speed, err := req.RequireFloat("speed")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rover.ErrInvalidSpeed, err)
	}
	out, err := s.controller.MoveForward(ctx, speed)
	if err != nil {
		return nil, err
	}
	return s.finish(out), nil
}

func (s *MCPServer) handleMoveBackward(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	speed, err := req.RequireFloat("speed")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rover.ErrInvalidSpeed, err)
	}
	out, err := s.controller.MoveBackward(ctx, speed)
	if err != nil {
		return nil, err
	}
	return s.finish(out), nil
}

func (s *MCPServer) handleStop(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	out, err := s.controller.Stop(ctx)
	if err != nil {
		return nil, err
	}
	return s.finish(out), nil
}

// finish publishes the outcome and flattens it. Robot faults stay inside
// the text; the result is never marked as an error.
func (s *MCPServer) finish(out rover.Outcome) *mcplib.CallToolResult {
	if s.publisher != nil {
		if err := s.publisher.PublishOutcome(out); err != nil {
			s.logger.Warn().Err(err).Str("call_id", out.CallID).Msg("failed to publish outcome")
		}
	}
	return textResult(out.Text())
}

// textResult returns a successful text result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
