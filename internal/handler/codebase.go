// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/codebase"
	"github.com/codechat-ai/codebase-chat/internal/config"
	"github.com/codechat-ai/codebase-chat/internal/llm"
	"github.com/codechat-ai/codebase-chat/internal/middleware"
	"github.com/codechat-ai/codebase-chat/internal/model"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
	"github.com/codechat-ai/codebase-chat/pkg/metrics"
)

// CodebaseHandler handles scan, validate, and assemble endpoints.
type CodebaseHandler struct {
	cfg       *config.Config
	scanner   *codebase.Scanner
	assembler *codebase.Assembler
	llmClient llm.Client
	logger    *logger.Logger
}

// NewCodebaseHandler creates a new codebase handler.
func NewCodebaseHandler(cfg *config.Config, scanner *codebase.Scanner, assembler *codebase.Assembler, llmClient llm.Client, log *logger.Logger) *CodebaseHandler {
	return &CodebaseHandler{
		cfg:       cfg,
		scanner:   scanner,
		assembler: assembler,
		llmClient: llmClient,
		logger:    log,
	}
}

// Scan handles POST /api/v1/scan
func (h *CodebaseHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateRootPath(req.Root); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	files, err := h.scanner.Scan(req.Root)
	if err != nil {
		h.logger.Warn("scan failed", zap.String("root", req.Root), zap.Error(err))
		writeClassifiedError(w, err)
		return
	}
	metrics.RecordScan(len(files), time.Since(start).Seconds())

	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, model.ScanResponse{
		Root:     req.Root,
		Files:    files,
		Relative: h.assembler.Relativize(files, req.Root),
	})
}

// Validate handles POST /api/v1/scan/validate
func (h *CodebaseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, reason := h.scanner.Validate(req.Root)
	writeJSON(w, http.StatusOK, model.ValidateResponse{OK: ok, Reason: reason})
}

// Assemble handles POST /api/v1/assemble
func (h *CodebaseHandler) Assemble(w http.ResponseWriter, r *http.Request) {
	var req model.AssembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, included := h.assembler.Assemble(req.Paths)
	writeJSON(w, http.StatusOK, model.AssembleResponse{
		Content: content,
		Files:   included,
	})
}

// Models handles GET /api/v1/models
func (h *CodebaseHandler) Models(w http.ResponseWriter, r *http.Request) {
	resp := model.ModelsResponse{
		Provider: h.cfg.DefaultLLM,
		Models:   h.cfg.ModelCatalog,
		Default:  h.cfg.DefaultModel,
	}
	if len(resp.Models) == 0 && h.llmClient != nil {
		resp.Models = h.llmClient.Models()
		resp.Provider = h.llmClient.Name()
	}
	writeJSON(w, http.StatusOK, resp)
}
