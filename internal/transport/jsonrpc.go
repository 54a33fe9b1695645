package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const jsonrpcVersion = "2.0"

// JSON-RPC 2.0 protocol error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Request is an incoming JSON-RPC 2.0 call. Params stay raw until the
// dispatcher decodes them against the method's own parameter type.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is an outgoing JSON-RPC 2.0 reply. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is the JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ParseRequest decodes and validates one request from body. A payload
// without the 2.0 version marker or a method name is invalid.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("parse error: %w", err)
	}
	if req.JSONRPC != jsonrpcVersion {
		return Request{}, errors.New("unsupported jsonrpc version")
	}
	if req.Method == "" {
		return Request{}, errors.New("missing method")
	}
	return req, nil
}

// WriteResult writes a success response for the given request id.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, Response{JSONRPC: jsonrpcVersion, Result: result, ID: id})
}

// WriteError writes an error response. Transport-level failures pass a
// nil id when the request id could not be recovered.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, Response{
		JSONRPC: jsonrpcVersion,
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

// writeJSON always answers 200: JSON-RPC carries failure in the body,
// not the HTTP status.
func writeJSON(w http.ResponseWriter, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
