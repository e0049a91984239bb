package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vbonduro/kenglema/internal/domain"
)

var (
	ErrNoJSONObject = errors.New("no JSON object found in response")
	ErrUnparseable  = errors.New("无法解析 AI 返回的数据，请重试。")
)

var (
	fenceMarkers  = strings.NewReplacer("```json", "", "```", "")
	controlRun    = regexp.MustCompile(`[\r\n\t]+`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// StripFences removes markdown code-fence markers anywhere in text.
func StripFences(text string) string {
	return strings.TrimSpace(fenceMarkers.Replace(text))
}

// ExtractJSONObject returns the span from the first '{' to the last '}',
// inclusive, tolerating prose around the object.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// Repair is the second-chance rewrite for JSON that failed a strict parse.
// Runs of CR, LF and TAB become a single space (models put raw newlines inside
// string values), and trailing commas before '}' or ']' are dropped.
// This is lossy: intended newlines in text fields are flattened too.
func Repair(candidate string) string {
	s := controlRun.ReplaceAllString(candidate, " ")
	return trailingComma.ReplaceAllString(s, "$1")
}

// ParseResponse recovers an AnalysisResult from a model's free-text reply.
// It tries a strict parse of the extracted object, then exactly one parse of
// the repaired object. The result is not yet normalized.
func ParseResponse(text string) (*domain.AnalysisResult, error) {
	candidate, err := ExtractJSONObject(StripFences(text))
	if err != nil {
		return nil, err
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(candidate), &result); err == nil {
		return &result, nil
	}

	result = domain.AnalysisResult{}
	if err := json.Unmarshal([]byte(Repair(candidate)), &result); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrUnparseable, err)
	}
	return &result, nil
}
