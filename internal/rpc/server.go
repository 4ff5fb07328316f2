// Package rpc exposes the verifier and memory store to external agent hosts
// over line-delimited JSON-RPC on stdio.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/store"
	"github.com/ppiankov/groundcheck/internal/verify"
)

// Request is one incoming JSON-RPC call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is the wire reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParse         = -32700
	codeInvalidParams = -32602
	codeUnknownMethod = -32601
	codeInternal      = -32603
)

// Server dispatches agent-protocol calls onto the verifier and store.
type Server struct {
	verifier *verify.Verifier
	store    *store.Store
}

// NewServer creates a server around an existing verifier and store.
func NewServer(v *verify.Verifier, s *store.Store) *Server {
	return &Server{verifier: v, store: s}
}

// Serve reads one JSON-RPC request per line from r and writes one response
// per line to w, until EOF.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := encoder.Encode(errorResponse(nil, codeParse, "parse error")); err != nil {
				return err
			}
			continue
		}

		resp := s.dispatch(ctx, &req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) Response {
	switch req.Method {
	case "ping":
		return result(req.ID, map[string]string{"status": "ok"})
	case "store_fact":
		return s.storeFact(ctx, req)
	case "check_memory":
		return s.checkMemory(ctx, req)
	case "verify_output":
		return s.verifyOutput(ctx, req)
	case "forget":
		return s.forget(req)
	default:
		return errorResponse(req.ID, codeUnknownMethod, fmt.Sprintf("unknown method %q", req.Method))
	}
}

type storeFactParams struct {
	Text      string   `json:"text"`
	Source    string   `json:"source"`
	Namespace string   `json:"namespace"`
	Trust     *float64 `json:"trust"`
}

// storeFact persists a fact and reports contradictions against the
// namespace's existing memories.
func (s *Server) storeFact(ctx context.Context, req *Request) Response {
	var p storeFactParams
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Text == "" {
		return errorResponse(req.ID, codeInvalidParams, "text is required")
	}

	mem, err := s.store.Put(p.Text, p.Namespace, p.Source, p.Trust)
	if err != nil {
		return errorResponse(req.ID, codeInternal, err.Error())
	}

	all, err := s.store.Query(p.Namespace, 0)
	if err != nil {
		return errorResponse(req.ID, codeInternal, err.Error())
	}

	// Contradiction check runs over the namespace including the memory just
	// stored, so a conflicting new fact is flagged immediately.
	var contradictions []model.ContradictionDetail
	if len(all) > 1 {
		report, err := s.verifier.Verify(ctx, p.Text, all, model.ModePermissive)
		if err != nil {
			return errorResponse(req.ID, codeInternal, err.Error())
		}
		contradictions = report.ContradictionDetails
	}

	return result(req.ID, map[string]interface{}{
		"stored":            true,
		"memory":            mem,
		"total_memories":    len(all),
		"contradictions":    contradictions,
		"has_contradiction": len(contradictions) > 0,
	})
}

type namespaceParams struct {
	Namespace string `json:"namespace"`
	Limit     int    `json:"limit"`
}

// checkMemory returns the namespace's memories plus any internal
// contradictions among them.
func (s *Server) checkMemory(ctx context.Context, req *Request) Response {
	var p namespaceParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return errorResponse(req.ID, codeInvalidParams, "invalid params")
		}
	}

	memories, err := s.store.Query(p.Namespace, p.Limit)
	if err != nil {
		return errorResponse(req.ID, codeInternal, err.Error())
	}
	if len(memories) == 0 {
		return result(req.ID, map[string]interface{}{
			"found":    0,
			"memories": []model.Memory{},
		})
	}

	combined := ""
	for _, m := range memories {
		if combined != "" {
			combined += " "
		}
		combined += m.Text
	}
	report, err := s.verifier.Verify(ctx, combined, memories, model.ModePermissive)
	if err != nil {
		return errorResponse(req.ID, codeInternal, err.Error())
	}

	return result(req.ID, map[string]interface{}{
		"found":          len(memories),
		"memories":       memories,
		"contradictions": report.ContradictionDetails,
	})
}

type verifyParams struct {
	Draft     string `json:"draft"`
	Namespace string `json:"namespace"`
	Mode      string `json:"mode"`
}

// verifyOutput checks a draft against the namespace's memories.
func (s *Server) verifyOutput(ctx context.Context, req *Request) Response {
	var p verifyParams
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Draft == "" {
		return errorResponse(req.ID, codeInvalidParams, "draft is required")
	}
	mode := model.Mode(p.Mode)
	if p.Mode == "" {
		mode = model.ModeStrict
	}

	memories, err := s.store.Query(p.Namespace, 0)
	if err != nil {
		return errorResponse(req.ID, codeInternal, err.Error())
	}

	report, err := s.verifier.Verify(ctx, p.Draft, memories, mode)
	if err != nil {
		return errorResponse(req.ID, codeInvalidParams, err.Error())
	}
	return result(req.ID, report)
}

type forgetParams struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

func (s *Server) forget(req *Request) Response {
	var p forgetParams
	if err := json.Unmarshal(req.Params, &p); err != nil || p.ID == "" {
		return errorResponse(req.ID, codeInvalidParams, "id is required")
	}

	removed, err := s.store.Forget(p.Namespace, p.ID)
	if err != nil {
		return errorResponse(req.ID, codeInternal, err.Error())
	}
	return result(req.ID, map[string]bool{"removed": removed})
}

func result(id json.RawMessage, v interface{}) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: v}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}}
}
