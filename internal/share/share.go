// Package share renders an analysis result into the forms a user can pass on:
// a short clipboard text and a long-form report card.
package share

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/vbonduro/kenglema/internal/domain"
)

// Export is the outcome of one share: the clipboard text and the key the
// rendered card was stored under.
type Export struct {
	Text string `json:"text"`
	Key  string `json:"key"`
}

// Text returns the clipboard message for result.
func Text(result *domain.AnalysisResult) string {
	return "🍷 坑了么分析报告\n\n" + result.Summary + "\n\n(快保存截图分享)"
}

var cardTmpl = template.Must(template.New("card").Parse(`🍷 坑了么分析报告

🤖 毒舌点评
{{.Summary}}
{{range .Items}}
────────────
{{.Name}}  ⭐ {{.Rating}}/10
店内价: {{.MenuPrice}}
🍷 特色：{{.Characteristics}}
电商参考价: {{.OnlinePrice}}
{{.Badge}}{{if .Ratio}} ({{.Ratio}}){{end}}
{{end}}
Powered by 坑了么 AI
`))

type cardItem struct {
	Name            string
	Rating          string
	MenuPrice       string
	OnlinePrice     string
	Characteristics string
	Badge           string
	Ratio           string
}

type cardView struct {
	Summary string
	Items   []cardItem
}

// Card renders the long-form report for result.
func Card(result *domain.AnalysisResult) (string, error) {
	view := cardView{Summary: result.Summary, Items: make([]cardItem, 0, len(result.Items))}
	for _, item := range result.Items {
		ci := cardItem{
			Name:            item.Name,
			Rating:          fmt.Sprintf("%g", item.Rating),
			MenuPrice:       "店内价未知",
			OnlinePrice:     "查询中",
			Characteristics: item.Characteristics,
			Badge:           domain.ClassifyBadge(item).Label(),
		}
		if item.MenuPrice.Valid && !item.MenuPrice.Decimal.IsZero() {
			ci.MenuPrice = "¥" + item.MenuPrice.Decimal.String()
		}
		if item.OnlinePrice.Valid && !item.OnlinePrice.Decimal.IsZero() {
			ci.OnlinePrice = "¥" + item.OnlinePrice.Decimal.String()
		}
		if item.Ratio != nil && *item.Ratio != 0 {
			ci.Ratio = fmt.Sprintf("%.1fx", *item.Ratio)
		}
		view.Items = append(view.Items, ci)
	}

	var sb strings.Builder
	if err := cardTmpl.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("failed to render share card: %w", err)
	}
	return sb.String(), nil
}
