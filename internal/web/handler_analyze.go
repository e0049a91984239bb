package web

import (
	"context"
	"io"
	"net/http"

	"github.com/vbonduro/kenglema/internal/domain"
)

const maxUploadSize = 50 * 1024 * 1024 // 50 MB across all images

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// itemResponse is a WineItem with its display badge attached.
type itemResponse struct {
	domain.WineItem
	Badge      domain.Badge `json:"badge"`
	BadgeLabel string       `json:"badgeLabel"`
}

type analysisResponse struct {
	Kind    domain.Kind    `json:"type"`
	Summary string         `json:"summary"`
	Items   []itemResponse `json:"items"`
}

func newAnalysisResponse(result *domain.AnalysisResult) analysisResponse {
	items := make([]itemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		badge := domain.ClassifyBadge(item)
		items = append(items, itemResponse{WineItem: item, Badge: badge, BadgeLabel: badge.Label()})
	}
	return analysisResponse{Kind: result.Kind, Summary: result.Summary, Items: items}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	var images [][]byte
	for _, fh := range r.MultipartForm.File["image"] {
		file, err := fh.Open()
		if err != nil {
			http.Error(w, "failed to read file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		closeWithLog(file, "upload file", s.logger)
		if err != nil {
			http.Error(w, "failed to read file", http.StatusInternalServerError)
			s.logger.Error("read upload failed", "request_id", reqID, "filename", fh.Filename, "error", err)
			return
		}
		if _, ok := allowedImageMIME(data); !ok {
			http.Error(w, "unsupported image format", http.StatusBadRequest)
			return
		}
		images = append(images, data)
	}

	s.logger.Info("analyze started", "request_id", reqID, "image_count", len(images))

	// Use a detached context so that the analysis runs to completion even if
	// the client goes away and the request context is cancelled.
	result := s.analysis.Analyze(context.WithoutCancel(r.Context()), images)
	s.writeJSON(w, http.StatusOK, newAnalysisResponse(result))
}
