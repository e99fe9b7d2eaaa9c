package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/quadrate-lang/quadrate/ast"
	"github.com/quadrate-lang/quadrate/diag"
	"github.com/quadrate-lang/quadrate/loader"
	"github.com/quadrate-lang/quadrate/parser"
	"github.com/quadrate-lang/quadrate/sema"
)

// Version reported by initialize.
const Version = "0.1.0"

// Server handles language-server communication over a stream pair.
type Server struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	writeMu sync.Mutex

	// Open documents, full text keyed by URI.
	docsMu sync.Mutex
	docs   map[string]string

	modules []string

	shutdown bool

	debugLog func(format string, args ...any)
}

// NewServer creates a server over the given streams. Module names for
// completion are discovered from the standard search path.
func NewServer(r io.Reader, w io.Writer) *Server {
	s := &Server{
		reader:  bufio.NewReader(r),
		writer:  bufio.NewWriter(w),
		docs:    make(map[string]string),
		modules: loader.New().Discover(),
		debugLog: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "quadlsp: "+format+"\n", args...)
		},
	}
	return s
}

// Serve processes messages until exit or EOF. The returned error is nil on a
// clean exit.
func (s *Server) Serve() error {
	for {
		body, err := readMessage(s.reader)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req RequestMessage
		if err := json.Unmarshal(body, &req); err != nil {
			s.replyError(nil, CodeParseError, "invalid JSON")
			continue
		}

		if req.Method == "exit" {
			return nil
		}
		s.dispatch(&req)
	}
}

func (s *Server) dispatch(req *RequestMessage) {
	if s.shutdown && req.Method != "shutdown" {
		if req.ID != nil {
			s.replyError(req.ID, CodeInvalidRequest, "server is shutting down")
		}
		return
	}
	switch req.Method {
	case "initialize":
		s.reply(req.ID, InitializeResult{
			Capabilities: ServerCapabilities{
				TextDocumentSync:   1,
				CompletionProvider: true,
				DocumentSymbol:     true,
			},
			ServerInfo: ServerInfo{Name: "quadlsp", Version: Version},
		})
	case "initialized":
		// Notification; nothing to do.
	case "shutdown":
		s.shutdown = true
		s.reply(req.ID, nil)
	case "textDocument/didOpen":
		var params DidOpenParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return
		}
		s.setDocument(params.TextDocument.URI, params.TextDocument.Text)
	case "textDocument/didChange":
		var params DidChangeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return
		}
		if len(params.Changes) > 0 {
			// Full sync: the last change carries the whole document.
			s.setDocument(params.TextDocument.URI, params.Changes[len(params.Changes)-1].Text)
		}
	case "textDocument/completion":
		var params DocumentParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.replyError(req.ID, CodeInvalidParams, err.Error())
			return
		}
		s.reply(req.ID, s.completion(params.TextDocument.URI))
	case "textDocument/documentSymbol":
		var params DocumentParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.replyError(req.ID, CodeInvalidParams, err.Error())
			return
		}
		s.reply(req.ID, s.documentSymbols(params.TextDocument.URI))
	default:
		if req.ID != nil {
			s.replyError(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
		}
	}
}

func (s *Server) setDocument(uri, text string) {
	s.docsMu.Lock()
	s.docs[uri] = text
	s.docsMu.Unlock()
	s.publishDiagnostics(uri, text)
}

func (s *Server) document(uri string) (string, bool) {
	s.docsMu.Lock()
	defer s.docsMu.Unlock()
	text, ok := s.docs[uri]
	return text, ok
}

// publishDiagnostics runs the parser and validator over the document and
// pushes the combined result.
func (s *Server) publishDiagnostics(uri, text string) {
	result := parser.Parse(text, uri)
	diags := append([]diag.Diagnostic{}, result.Errors...)
	diags = append(diags, sema.Validate(result.Root, uri)...)
	diag.SortBySource(diags)

	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, Diagnostic{
			Range:    spanRange(d.Span),
			Severity: lspSeverity(d.Severity),
			Source:   "quadrate",
			Message:  d.Message,
		})
	}
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{URI: uri, Diagnostics: out})
}

// completion suggests builtin instructions, document functions, keywords and
// known module names.
func (s *Server) completion(uri string) []CompletionItem {
	var items []CompletionItem
	for _, name := range ast.BuiltinInstructions() {
		items = append(items, CompletionItem{Label: name, Kind: CompletionKindFunction, Detail: "instruction"})
	}
	for _, kw := range []string{"fn", "if", "else", "for", "switch", "case", "default",
		"defer", "return", "break", "continue", "const", "use"} {
		items = append(items, CompletionItem{Label: kw, Kind: CompletionKindKeyword, Detail: "keyword"})
	}
	for _, mod := range s.modules {
		items = append(items, CompletionItem{Label: mod, Kind: CompletionKindModule, Detail: "module"})
	}
	if text, ok := s.document(uri); ok {
		result := parser.Parse(text, uri)
		ast.Walk(result.Root, func(n *ast.Node) bool {
			if n.Type() == ast.FunctionDeclaration && n.Name != "" {
				items = append(items, CompletionItem{
					Label:  n.Name,
					Kind:   CompletionKindFunction,
					Detail: signature(n),
				})
			}
			return true
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func signature(fn *ast.Node) string {
	var sb strings.Builder
	sb.WriteString("fn " + fn.Name + "(")
	for i, p := range fn.Inputs {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(p.Name)
		if p.TypeString != "" {
			sb.WriteString(":" + p.TypeString)
		}
	}
	sb.WriteString(" -- ")
	for i, p := range fn.Outputs {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(p.Name)
		if p.TypeString != "" {
			sb.WriteString(":" + p.TypeString)
		}
	}
	sb.WriteString(")")
	return sb.String()
}

func (s *Server) documentSymbols(uri string) []DocumentSymbol {
	text, ok := s.document(uri)
	if !ok {
		return nil
	}
	result := parser.Parse(text, uri)

	var symbols []DocumentSymbol
	ast.Walk(result.Root, func(n *ast.Node) bool {
		if n.Type() != ast.FunctionDeclaration {
			return true
		}
		pos := n.Position()
		r := Range{
			Start: Position{Line: pos.Line - 1, Character: pos.Column - 1},
			End:   Position{Line: pos.Line - 1, Character: pos.Column - 1 + len(n.Name)},
		}
		symbols = append(symbols, DocumentSymbol{
			Name:           n.Name,
			Kind:           SymbolKindFunction,
			Range:          r,
			SelectionRange: r,
			Detail:         signature(n),
		})
		return false
	})
	return symbols
}

func spanRange(span diag.Span) Range {
	line := span.Line - 1
	if line < 0 {
		line = 0
	}
	col := span.Column - 1
	if col < 0 {
		col = 0
	}
	return Range{
		Start: Position{Line: line, Character: col},
		End:   Position{Line: line, Character: col + span.Length},
	}
}

func lspSeverity(s diag.Severity) int {
	switch s {
	case diag.Error:
		return 1
	case diag.Warning:
		return 2
	default:
		return 3
	}
}

func (s *Server) reply(id any, result any) {
	s.send(ResponseMessage{JSONRPC: JSONRPCVersion, ID: id, Result: result})
}

func (s *Server) replyError(id any, code int, message string) {
	s.send(ResponseMessage{JSONRPC: JSONRPCVersion, ID: id, Error: &ErrorObject{Code: code, Message: message}})
}

func (s *Server) notify(method string, params any) {
	s.send(NotificationMessage{JSONRPC: JSONRPCVersion, Method: method, Params: params})
}

func (s *Server) send(payload any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := writeMessage(s.writer, payload); err != nil {
		s.debugLog("write failed: %v", err)
	}
}
