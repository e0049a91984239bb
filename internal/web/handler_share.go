package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/kenglema/internal/domain"
	"github.com/vbonduro/kenglema/internal/share"
	"github.com/vbonduro/kenglema/internal/sharestore"
)

const maxShareBody = 1 << 20

type shareResponse struct {
	Text string `json:"text"`
	Key  string `json:"key"`
	URL  string `json:"url"`
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	var result domain.AnalysisResult
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxShareBody)).Decode(&result); err != nil {
		http.Error(w, "invalid analysis result", http.StatusBadRequest)
		return
	}

	export, err := s.shares.Share(r.Context(), s.shareGate, &result)
	switch {
	case errors.Is(err, share.ErrInFlight):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		http.Error(w, "failed to share", http.StatusInternalServerError)
		s.logger.Error("share failed", "request_id", requestID(r.Context()), "error", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, shareResponse{
		Text: export.Text,
		Key:  export.Key,
		URL:  "/shares/" + export.Key,
	})
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	card, err := s.shares.Card(r.Context(), key)
	if err != nil {
		if errors.Is(err, sharestore.ErrNotFound) || errors.Is(err, sharestore.ErrInvalidKey) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to load share", http.StatusInternalServerError)
		s.logger.Error("get share failed", "request_id", requestID(r.Context()), "key", key, "error", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(card)); err != nil {
		s.logger.Error("write share failed", "key", key, "error", err)
	}
}
