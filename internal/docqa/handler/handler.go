// Package handler exposes the document QA pipeline over HTTP.
package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/loaddesk/loaddesk/internal/docqa/biz"
	"github.com/loaddesk/loaddesk/internal/docqa/metrics"
	"github.com/loaddesk/loaddesk/internal/pkg/httputils"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// maxTopK bounds the per-request retrieval depth.
const maxTopK = 20

// Handler HTTP 处理器。
type Handler struct {
	svc           *biz.DocQAService
	maxUploadSize int64
	askTimeout    time.Duration
}

// New 创建处理器。
func New(svc *biz.DocQAService, maxUploadSize int64, askTimeout time.Duration) *Handler {
	return &Handler{svc: svc, maxUploadSize: maxUploadSize, askTimeout: askTimeout}
}

// FileResult 单个上传文件的处理结果。
type FileResult struct {
	Name   string            `json:"name"`
	Error  string            `json:"error,omitempty"`
	Result *biz.UploadResult `json:"result,omitempty"`
}

// UploadResponse 批量上传的应答体。
type UploadResponse struct {
	Indexed int          `json:"indexed"`
	Failed  int          `json:"failed"`
	Files   []FileResult `json:"files"`
}

// Upload 处理 multipart 文件上传，逐个文件独立成败。
func (h *Handler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUploadSize); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidRequest.WithMessagef("invalid multipart form: %v", err), nil)
		return
	}

	files := c.Request.MultipartForm.File["files"]
	if len(files) == 0 {
		files = c.Request.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		httputils.WriteResponse(c, errors.ErrInvalidRequest.WithMessage("no files in upload"), nil)
		return
	}

	resp := &UploadResponse{Files: make([]FileResult, 0, len(files))}
	for _, fh := range files {
		fr := FileResult{Name: fh.Filename}

		content, err := readUpload(func() (io.ReadCloser, error) { return fh.Open() }, h.maxUploadSize)
		if err == nil {
			var result *biz.UploadResult
			result, err = h.svc.UploadDocument(c.Request.Context(), fh.Filename, content)
			fr.Result = result
		}

		if err != nil {
			fr.Error = err.Error()
			resp.Failed++
			logger.Warnw("file upload failed", "name", fh.Filename, "error", err)
		} else {
			resp.Indexed++
		}
		resp.Files = append(resp.Files, fr)
	}

	if resp.Indexed == 0 {
		httputils.WriteDegraded(c, errors.ErrInvalidRequest.WithMessage("no file could be indexed"), resp)
		return
	}
	httputils.WriteResponse(c, nil, resp)
}

func readUpload(open func() (io.ReadCloser, error), limit int64) ([]byte, error) {
	f, err := open()
	if err != nil {
		return nil, errors.ErrInvalidRequest.WithCause(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.ErrInvalidRequest.WithCause(err)
	}
	if int64(len(content)) > limit {
		return nil, errors.ErrInvalidRequest.WithMessagef("file exceeds upload limit of %d bytes", limit)
	}
	return content, nil
}

// AskRequest 问答请求体。
type AskRequest struct {
	Question   string `json:"question" binding:"required"`
	DocumentID string `json:"document_id"`
	TopK       int    `json:"top_k"`
}

// Ask 处理问答请求。
func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidRequest.WithCause(err), nil)
		return
	}
	if req.TopK < 0 || req.TopK > maxTopK {
		httputils.WriteResponse(c, errors.ErrInvalidRequest.WithMessagef("top_k must be in [0,%d]", maxTopK), nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.askTimeout)
	defer cancel()

	answer, err := h.svc.Ask(ctx, req.Question, req.DocumentID, req.TopK)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, answer)
}

// ExtractRequest 结构化抽取请求体。
type ExtractRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
}

// Extract 对指定文档执行结构化抽取。
// 整体解析失败时返回错误信封但仍携带空记录。
func (h *Handler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidRequest.WithCause(err), nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.askTimeout)
	defer cancel()

	record, err := h.svc.Extract(ctx, req.DocumentID)
	if err != nil {
		if record != nil {
			httputils.WriteDegraded(c, err, record)
			return
		}
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, record)
}

// Stats 返回服务运行状态。
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, stats)
}

// Ping 健康检查。
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Metrics 输出 Prometheus 文本格式的计数器。
func (h *Handler) Metrics(c *gin.Context) {
	c.String(http.StatusOK, metrics.Get().Export("loaddesk", "docqa"))
}
