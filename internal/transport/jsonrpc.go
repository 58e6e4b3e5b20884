package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ganot/taskdeck/internal/mcp"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603

	// ErrDomainCode carries a mapped domain error; Data holds its stable code.
	ErrDomainCode = -32000
)

const maxRequestBytes = 1 << 20

var (
	errParse   = errors.New("parse error")
	errInvalid = errors.New("invalid request")
)

// Request is a single JSON-RPC 2.0 call. Batches are rejected.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response carries either Result or Error.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is a JSON-RPC error object. For ErrDomainCode, Data is the
// *mcp.APIError with the stable code and recovery hint.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest reads one call of at most 1 MiB from body.
func ParseRequest(body io.Reader) (Request, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxRequestBytes+1))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if len(raw) > maxRequestBytes {
		return Request{}, fmt.Errorf("%w: body exceeds %d bytes", errInvalid, maxRequestBytes)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		return Request{}, fmt.Errorf("%w: batch calls are not supported", errInvalid)
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if req.JSONRPC != "2.0" {
		return Request{}, fmt.Errorf("%w: jsonrpc must be \"2.0\"", errInvalid)
	}
	if req.Method == "" {
		return Request{}, fmt.Errorf("%w: missing method", errInvalid)
	}
	return req, nil
}

// errorFor maps a parse or dispatch failure to its error object. Unknown
// failures become ErrInternal without exposing their text.
func errorFor(err error) *Error {
	var apiErr *mcp.APIError
	switch {
	case errors.Is(err, errParse):
		return &Error{Code: ErrParseCode, Message: errParse.Error()}
	case errors.Is(err, errInvalid):
		return &Error{Code: ErrInvalidReq, Message: err.Error()}
	case errors.Is(err, mcp.ErrMethodNotFound):
		return &Error{Code: ErrMethodNotFound, Message: err.Error()}
	case errors.Is(err, mcp.ErrInvalidParams):
		return &Error{Code: ErrInvalidParams, Message: err.Error()}
	case errors.As(err, &apiErr):
		return &Error{Code: ErrDomainCode, Message: apiErr.Message, Data: apiErr}
	default:
		return &Error{Code: ErrInternal, Message: "internal error"}
	}
}

func success(id, result any) Response {
	return Response{JSONRPC: "2.0", Result: result, ID: id}
}

func failure(id any, rpcErr *Error) Response {
	return Response{JSONRPC: "2.0", Error: rpcErr, ID: id}
}

// writeResponse always answers 200; failures travel in the envelope.
func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
