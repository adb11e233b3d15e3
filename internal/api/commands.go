package api

import (
	"context"
	"encoding/json"
	"time"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/hub"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/model"
)

// DefaultFixDelay simulates remediation latency before a fix is
// confirmed.
const DefaultFixDelay = 500 * time.Millisecond

// Scanner re-classifies the full log history on demand.
type Scanner interface {
	ScanAll(ctx context.Context) ([]model.AlertRequest, error)
}

// CommandHandler parses inbound client messages and produces responses,
// either to the requester alone or broadcast through the hub. It keeps
// no per-connection state.
type CommandHandler struct {
	hub      *hub.Hub
	scanner  Scanner
	clk      clock.Clock
	log      *logging.Logger
	fixDelay time.Duration
}

// NewCommandHandler builds the handler. A zero fixDelay means the
// default simulated latency.
func NewCommandHandler(h *hub.Hub, scanner Scanner, clk clock.Clock, log *logging.Logger, fixDelay time.Duration) *CommandHandler {
	if clk == nil {
		clk = &clock.RealClock{}
	}
	if log == nil {
		log = logging.Default()
	}
	if fixDelay <= 0 {
		fixDelay = DefaultFixDelay
	}
	return &CommandHandler{
		hub:      h,
		scanner:  scanner,
		clk:      clk,
		log:      log.WithComponent("commands"),
		fixDelay: fixDelay,
	}
}

type applyFixData struct {
	RequestIndex int    `json:"request_index"`
	FirewallID   string `json:"firewall_id"`
}

type fixAppliedData struct {
	RequestIndex int    `json:"request_index"`
	FirewallID   string `json:"firewall_id"`
	AppliedAt    string `json:"applied_at"`
}

type allLogsData struct {
	Logs  []model.AlertRequest `json:"logs"`
	Total int                  `json:"total"`
}

type errorData struct {
	Error string `json:"error"`
}

// Handle processes one inbound message. Malformed or unknown messages
// are logged and dropped; the connection stays open either way.
func (h *CommandHandler) Handle(ctx context.Context, client *hub.Client, raw []byte) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Error("invalid client message", "client", client.ID, "error", err)
		return
	}

	switch env.Type {
	case "apply_fix":
		h.handleApplyFix(client, env.Data)
	case "get_all_logs":
		h.handleGetAllLogs(ctx, client)
	default:
		h.log.Warn("unknown message type", "client", client.ID, "type", env.Type)
	}
}

// handleApplyFix simulates remediation and confirms to every client, not
// just the requester, so all dashboards converge.
func (h *CommandHandler) handleApplyFix(client *hub.Client, data json.RawMessage) {
	var req applyFixData
	if err := json.Unmarshal(data, &req); err != nil {
		h.log.Error("invalid apply_fix payload", "client", client.ID, "error", err)
		return
	}
	if req.RequestIndex <= 0 {
		h.log.Warn("apply_fix with bad index", "client", client.ID, "index", req.RequestIndex)
		if err := client.Send(hub.Envelope{Type: "fix_error", Data: errorData{Error: "request_index must be positive"}}); err != nil {
			h.log.Warn("fix_error delivery failed", "client", client.ID, "error", err)
		}
		return
	}

	h.log.Info("applying fix", "index", req.RequestIndex, "firewall", req.FirewallID)
	time.Sleep(h.fixDelay)

	h.hub.Broadcast(hub.Envelope{Type: "fix_applied", Data: fixAppliedData{
		RequestIndex: req.RequestIndex,
		FirewallID:   req.FirewallID,
		AppliedAt:    h.clk.Now().Format(time.RFC3339),
	}})
}

// handleGetAllLogs replays the whole file and answers the requester only.
func (h *CommandHandler) handleGetAllLogs(ctx context.Context, client *hub.Client) {
	entries, err := h.scanner.ScanAll(ctx)
	if err != nil {
		h.log.Error("history scan failed", "client", client.ID, "error", err)
		if sendErr := client.Send(hub.Envelope{Type: "all_logs_error", Data: errorData{Error: err.Error()}}); sendErr != nil {
			h.log.Warn("all_logs_error delivery failed", "client", client.ID, "error", sendErr)
		}
		return
	}

	if err := client.Send(hub.Envelope{Type: "all_logs_response", Data: allLogsData{
		Logs:  entries,
		Total: len(entries),
	}}); err != nil {
		h.log.Warn("all_logs_response delivery failed", "client", client.ID, "error", err)
	}
}
