package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/gymtrack/internal/ledger"
	"github.com/meltforce/gymtrack/internal/storage"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(db *storage.DB, led *ledger.Ledger, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymTrack workout server. Query training plans, today's routine, per-exercise progress history, and lifetime training stats. All data is scoped to the authenticated user."),
	)

	h := &handlers{db: db, led: led, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
		server.ServerTool{Tool: toolGetTodaysRoutine, Handler: h.getTodaysRoutine},
		server.ServerTool{Tool: toolGetExerciseProgress, Handler: h.getExerciseProgress},
		server.ServerTool{Tool: toolGetTrainingStats, Handler: h.getTrainingStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActivePlan, Handler: h.activePlan},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	db  *storage.DB
	led *ledger.Ledger
	log *slog.Logger
}

// --- Resource definitions ---

var resActivePlan = mcp.NewResource(
	"gymtrack://active_plan",
	"Active Plan",
	mcp.WithResourceDescription("The currently selected training plan with its scheduled weekdays, or null when none is active"),
	mcp.WithMIMEType("application/json"),
)
