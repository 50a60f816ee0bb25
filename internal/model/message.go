package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is a single conversation turn in wire format.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SendMessageRequest is the request to send a new message in a session.
// MaxTokens and Temperature are pointers so an explicit zero is
// distinguishable from an omitted value.
type SendMessageRequest struct {
	Content     string   `json:"content"`
	Files       []string `json:"files,omitempty"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// SendMessageResponse is the response after a completed turn.
type SendMessageResponse struct {
	Reply      string `json:"reply"`
	Model      string `json:"model"`
	TokensIn   int    `json:"tokens_in,omitempty"`
	TokensOut  int    `json:"tokens_out,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

// ScanRequest asks for a directory scan.
type ScanRequest struct {
	Root string `json:"root"`
}

// ScanResponse lists the matching files under the scanned root.
type ScanResponse struct {
	Root     string   `json:"root"`
	Files    []string `json:"files"`
	Relative []string `json:"relative"`
}

// ValidateResponse is the pre-flight check result for a root directory.
type ValidateResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// AssembleRequest asks for an assembled prompt payload preview.
type AssembleRequest struct {
	Paths []string `json:"paths"`
}

// AssembleResponse carries the assembled payload.
type AssembleResponse struct {
	Content string `json:"content"`
	Files   int    `json:"files"`
}

// HistoryRequest names a history file on the server's filesystem.
type HistoryRequest struct {
	Path string `json:"path"`
}

// SetFilesRequest replaces a session's persistent file selection.
type SetFilesRequest struct {
	Files []string `json:"files"`
}

// ModelsResponse lists the models available for requests.
type ModelsResponse struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
	Default  string   `json:"default"`
}
