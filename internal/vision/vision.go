package vision

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Request is a single multimodal completion: one instruction block plus
// zero or more JPEG images, sent as one user message.
type Request struct {
	Prompt    string
	Images    [][]byte
	MaxTokens int
	// JSONMode asks the provider for constrained JSON output where supported.
	// Parsing still goes through ParseResponse either way.
	JSONMode bool
}

// Usage contains token usage as reported by the provider, zero if unreported.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

type Completion struct {
	Text  string
	Usage Usage
}

// Completer sends a Request to a remote model and returns its free-text reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// APIError is an application error reported by the endpoint itself, as
// opposed to a transport failure.
type APIError struct {
	Provider string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}

// ImageMIMEType is the media type of every image handed to a Completer.
const ImageMIMEType = "image/jpeg"

// DataURL encodes a JPEG as an inline data: URL.
func DataURL(image []byte) string {
	return "data:" + ImageMIMEType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// Preview truncates s to at most n runes for logging.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
