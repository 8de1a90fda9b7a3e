// internal/app/features/rpc/handler.go
//
// JSON-RPC 2.0 surface for sibling services. Two methods are exposed:
//
//	getChannelsByIds      { "channelIds": ["…"] }         → [Channel]
//	createProfileChannel  { "user", "name", "description" } → Channel
//
// The profile-channel method exists so the user service can provision the
// auto-created profile channel during registration.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bluestream/channelhub/internal/app/system/validators"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

// ChannelService is the slice of the channel policy the RPC surface consumes.
type ChannelService interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error)
	CreateProfile(ctx context.Context, owner, name, description string) (models.Channel, error)
}

// Handler dispatches JSON-RPC requests.
type Handler struct {
	svc    ChannelService
	bounds validators.Bounds
	log    *zap.Logger
}

func NewHandler(svc ChannelService, bounds validators.Bounds, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, bounds: bounds, log: logger}
}

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Serve handles POST /rpc.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.write(w, response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "Parse error"}, ID: nil})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		h.write(w, response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "Invalid request"}, ID: req.ID})
		return
	}

	var (
		result any
		rerr   *rpcError
	)
	switch req.Method {
	case "getChannelsByIds":
		result, rerr = h.getChannelsByIDs(r.Context(), req.Params)
	case "createProfileChannel":
		result, rerr = h.createProfileChannel(r.Context(), req.Params)
	default:
		rerr = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}

	h.write(w, response{JSONRPC: "2.0", Result: result, Error: rerr, ID: req.ID})
}

func (h *Handler) getChannelsByIDs(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p struct {
		ChannelIDs []string `json:"channelIds"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
	}

	ids := make([]primitive.ObjectID, 0, len(p.ChannelIDs))
	for _, s := range p.ChannelIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid channel id: " + s}
		}
		ids = append(ids, id)
	}

	chs, err := h.svc.GetByIDs(ctx, ids)
	if err != nil {
		return nil, h.serverError(err)
	}
	return chs, nil
}

func (h *Handler) createProfileChannel(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p struct {
		User        string `json:"user"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
	}
	if !validators.IsValidUser(p.User) {
		return nil, &rpcError{Code: codeInvalidParams, Message: "User is not a valid identifier"}
	}

	name := validators.SanitizeText(p.Name)
	description := validators.SanitizeText(p.Description)
	if err := h.bounds.CheckName(name); err != nil {
		return nil, h.serverError(err)
	}
	if err := h.bounds.CheckDescription(description); err != nil {
		return nil, h.serverError(err)
	}

	ch, err := h.svc.CreateProfile(ctx, p.User, name, description)
	if err != nil {
		return nil, h.serverError(err)
	}
	return ch, nil
}

// serverError maps categorized user errors onto the reserved server-error
// range, carrying the stable kind in the data member so callers can branch
// without parsing messages.
func (h *Handler) serverError(err error) *rpcError {
	if ue, ok := usererrors.From(err); ok {
		return &rpcError{Code: codeServerError, Message: ue.Message, Data: map[string]string{"kind": string(ue.Kind)}}
	}
	h.log.Error("rpc: unhandled error", zap.Error(err))
	return &rpcError{Code: codeServerError, Message: "Internal server error"}
}

func (h *Handler) write(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
