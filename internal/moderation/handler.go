package moderation

import (
	"bytes"
	"crypto/md5" //nolint:gosec // fingerprint for duplicate detection, not a credential
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	// Decoders for the supported upload formats. DecodeConfig needs them
	// registered; the API never re-encodes images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/imagemod/moderation-api/internal/metrics"
)

const apiVersion = "2.0.0"

// MaxBatchSize limits a batch-analyze request to prevent overload.
const MaxBatchSize = 10

// allowedImageTypes is the accepted Content-Type list for uploads.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/gif":  true,
}

// Handler serves the moderation endpoints.
type Handler struct {
	analyzer       Analyzer
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewHandler creates a moderation handler.
func NewHandler(analyzer Analyzer, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		analyzer:       analyzer,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// fileInfo describes the uploaded file in the safety report.
type fileInfo struct {
	Filename    string         `json:"filename"`
	SizeBytes   int            `json:"size_bytes"`
	ContentType string         `json:"content_type"`
	Dimensions  map[string]int `json:"dimensions"`
	Format      string         `json:"format"`
	Hash        string         `json:"hash"`
}

// processingInfo describes how the report was produced.
type processingInfo struct {
	APIVersion       string   `json:"api_version"`
	AnalysisProvider string   `json:"analysis_provider"`
	AnalysisSources  []string `json:"analysis_sources"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
	Timestamp        int64    `json:"timestamp"`
}

// safetySummary is the at-a-glance verdict block.
type safetySummary struct {
	IsSafe              bool     `json:"is_safe"`
	OverallRiskScore    float64  `json:"overall_risk_score"`
	FlaggedCategories   []string `json:"flagged_categories"`
	HighestRiskCategory string   `json:"highest_risk_category"`
}

// analyzeResponse is the full content safety report for one image.
type analyzeResponse struct {
	FileInfo          fileInfo       `json:"file_info"`
	ModerationResults *Result        `json:"moderation_results"`
	ProcessingInfo    processingInfo `json:"processing_info"`
	SafetySummary     safetySummary  `json:"safety_summary"`
}

// HandleAnalyze analyzes one uploaded image and returns a content safety report.
// POST /moderate/analyze, multipart form field "file".
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "validation_error",
				fmt.Sprintf("File too large. Maximum size: %.1fMB", float64(h.maxUploadBytes)/(1024*1024)))
			return
		}
		writeError(w, http.StatusBadRequest, "validation_error", `Missing multipart field "file"`)
		return
	}
	defer file.Close() //nolint:errcheck

	upload, errResp := h.readUpload(file, header)
	if errResp != nil {
		writeError(w, errResp.status, errResp.code, errResp.message)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), upload.content, header.Filename)
	if err != nil {
		h.logger.Error("image analysis failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Image analysis failed")
		return
	}

	metrics.RecordImageAnalyzed(verdictLabel(result.IsSafe))

	resp := analyzeResponse{
		FileInfo: fileInfo{
			Filename:    header.Filename,
			SizeBytes:   len(upload.content),
			ContentType: upload.contentType,
			Dimensions:  map[string]int{"width": upload.width, "height": upload.height},
			Format:      upload.format,
			Hash:        upload.hash,
		},
		ModerationResults: result,
		ProcessingInfo: processingInfo{
			APIVersion:       apiVersion,
			AnalysisProvider: result.Provider,
			AnalysisSources:  result.AnalysisSources,
			ProcessingTimeMS: time.Since(start).Milliseconds(),
			Timestamp:        time.Now().Unix(),
		},
		SafetySummary: safetySummary{
			IsSafe:              result.IsSafe,
			OverallRiskScore:    result.OverallScore,
			FlaggedCategories:   result.FlaggedCategories(),
			HighestRiskCategory: result.HighestRiskCategory(),
		},
	}

	writeJSON(w, http.StatusOK, resp)
}

// batchResult is one entry in a batch-analyze response.
type batchResult struct {
	FileIndex         int      `json:"file_index"`
	Filename          string   `json:"filename"`
	Status            string   `json:"status"`
	Error             string   `json:"error,omitempty"`
	IsSafe            *bool    `json:"is_safe,omitempty"`
	OverallScore      *float64 `json:"overall_score,omitempty"`
	FlaggedCategories []string `json:"flagged_categories,omitempty"`
}

// batchResponse summarizes a batch-analyze request.
type batchResponse struct {
	BatchInfo struct {
		TotalImages      int   `json:"total_images"`
		Successful       int   `json:"successful_analyses"`
		Failed           int   `json:"failed_analyses"`
		UnsafeImages     int   `json:"unsafe_images_count"`
		ProcessingTimeMS int64 `json:"processing_time_ms"`
	} `json:"batch_info"`
	Results []batchResult `json:"results"`
	Summary struct {
		BatchIsSafe      bool    `json:"batch_is_safe"`
		HighestRiskScore float64 `json:"highest_risk_score"`
	} `json:"summary"`
}

// HandleBatchAnalyze analyzes up to MaxBatchSize images in one request.
// POST /moderate/batch-analyze, multipart form field "files" (repeated).
func (h *Handler) HandleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "validation_error", "Request too large")
			return
		}
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", `Missing multipart field "files"`)
		return
	}
	if len(files) > MaxBatchSize {
		writeError(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("Maximum %d images allowed per batch request", MaxBatchSize))
		return
	}

	var resp batchResponse
	resp.Results = make([]batchResult, 0, len(files))
	resp.Summary.BatchIsSafe = true

	for i, header := range files {
		entry := h.analyzeBatchEntry(r, i, header)
		if entry.Status == "success" {
			resp.BatchInfo.Successful++
			if entry.IsSafe != nil && !*entry.IsSafe {
				resp.BatchInfo.UnsafeImages++
				resp.Summary.BatchIsSafe = false
			}
			if entry.OverallScore != nil && *entry.OverallScore > resp.Summary.HighestRiskScore {
				resp.Summary.HighestRiskScore = *entry.OverallScore
			}
		}
		resp.Results = append(resp.Results, entry)
	}

	resp.BatchInfo.TotalImages = len(files)
	resp.BatchInfo.Failed = len(files) - resp.BatchInfo.Successful
	resp.BatchInfo.ProcessingTimeMS = time.Since(start).Milliseconds()

	writeJSON(w, http.StatusOK, resp)
}

// analyzeBatchEntry validates and analyzes one file of a batch. Per-file
// failures are reported in the entry, never as a request-level error.
func (h *Handler) analyzeBatchEntry(r *http.Request, index int, header *multipart.FileHeader) batchResult {
	entry := batchResult{
		FileIndex: index,
		Filename:  header.Filename,
	}

	file, err := header.Open()
	if err != nil {
		entry.Status = "error"
		entry.Error = "Failed to read file"
		return entry
	}
	defer file.Close() //nolint:errcheck

	upload, errResp := h.readUpload(file, header)
	if errResp != nil {
		entry.Status = "error"
		entry.Error = errResp.message
		return entry
	}

	result, err := h.analyzer.Analyze(r.Context(), upload.content, header.Filename)
	if err != nil {
		entry.Status = "error"
		entry.Error = "Image analysis failed"
		return entry
	}

	metrics.RecordImageAnalyzed(verdictLabel(result.IsSafe))

	entry.Status = "success"
	entry.IsSafe = &result.IsSafe
	entry.OverallScore = &result.OverallScore
	entry.FlaggedCategories = result.FlaggedCategories()
	return entry
}

// uploadedImage is a validated, decoded upload.
type uploadedImage struct {
	content     []byte
	contentType string
	width       int
	height      int
	format      string
	hash        string
}

// handlerError carries an HTTP error triple out of validation helpers.
type handlerError struct {
	status  int
	code    string
	message string
}

// readUpload reads and validates one uploaded file: content type on the
// allowed list, size within bounds, and bytes that actually decode as an
// image of the declared kind.
func (h *Handler) readUpload(file multipart.File, header *multipart.FileHeader) (*uploadedImage, *handlerError) {
	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		return nil, &handlerError{
			status:  http.StatusBadRequest,
			code:    "validation_error",
			message: fmt.Sprintf("Unsupported image type: %s", contentType),
		}
	}

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, &handlerError{
			status:  http.StatusBadRequest,
			code:    "validation_error",
			message: "Failed to read uploaded file",
		}
	}
	if int64(len(content)) > h.maxUploadBytes {
		return nil, &handlerError{
			status:  http.StatusRequestEntityTooLarge,
			code:    "validation_error",
			message: fmt.Sprintf("File too large. Maximum size: %.1fMB", float64(h.maxUploadBytes)/(1024*1024)),
		}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, &handlerError{
			status:  http.StatusBadRequest,
			code:    "validation_error",
			message: "Invalid image file or corrupted data",
		}
	}

	sum := md5.Sum(content) //nolint:gosec // duplicate-detection fingerprint only

	return &uploadedImage{
		content:     content,
		contentType: contentType,
		width:       cfg.Width,
		height:      cfg.Height,
		format:      format,
		hash:        hex.EncodeToString(sum[:]),
	}, nil
}

// isBodyTooLarge reports whether err came from http.MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func verdictLabel(isSafe bool) string {
	if isSafe {
		return "safe"
	}
	return "unsafe"
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response write errors are unrecoverable
	json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
