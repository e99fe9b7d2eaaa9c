package lsp

// The subset of LSP structures the server speaks.

// Position is a zero-based line/character location.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range spans two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic is a published issue.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity,omitempty"` // 1 = error, 2 = warning, 3 = info, 4 = hint
	Source   string `json:"source,omitempty"`
	Message  string `json:"message"`
}

// PublishDiagnosticsParams carries diagnostics for one document.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// TextDocumentItem is an opened document.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId,omitempty"`
	Version    int    `json:"version,omitempty"`
	Text       string `json:"text"`
}

// TextDocumentIdentifier names a document.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// DidOpenParams for textDocument/didOpen.
type DidOpenParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// ContentChange is one change event; the server supports full-text sync only.
type ContentChange struct {
	Text string `json:"text"`
}

// DidChangeParams for textDocument/didChange.
type DidChangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Changes      []ContentChange        `json:"contentChanges"`
}

// DocumentParams addresses a document (completion, documentSymbol).
type DocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     *Position              `json:"position,omitempty"`
}

// CompletionItem kinds used by the server.
const (
	CompletionKindFunction = 3
	CompletionKindKeyword  = 14
	CompletionKindModule   = 9
)

// CompletionItem is one completion suggestion.
type CompletionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// SymbolKindFunction is the DocumentSymbol kind for functions.
const SymbolKindFunction = 12

// DocumentSymbol is one symbol in the outline.
type DocumentSymbol struct {
	Name           string `json:"name"`
	Kind           int    `json:"kind"`
	Range          Range  `json:"range"`
	SelectionRange Range  `json:"selectionRange"`
	Detail         string `json:"detail,omitempty"`
}

// InitializeResult advertises server capabilities.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   ServerInfo         `json:"serverInfo"`
}

// ServerCapabilities is the capability surface.
type ServerCapabilities struct {
	TextDocumentSync   int  `json:"textDocumentSync"` // 1 = full
	CompletionProvider bool `json:"completionProvider"`
	DocumentSymbol     bool `json:"documentSymbolProvider"`
}

// ServerInfo identifies the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
