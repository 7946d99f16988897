package tools

import (
	"context"
	"fmt"
	"strings"

	"concierge/pkg/llm"
)

// FAQEntry is one question/answer pair in the knowledge base.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Topic    string `json:"topic"`
}

// defaultFAQ is the built-in knowledge base used when no corpus is supplied.
var defaultFAQ = []FAQEntry{
	{
		Topic:    "billing",
		Question: "How do I update my payment method?",
		Answer:   "Go to Settings > Billing and select 'Payment methods'. New cards take effect on the next invoice.",
	},
	{
		Topic:    "billing",
		Question: "Can I get a refund?",
		Answer:   "Refunds are available within 30 days of purchase. Open a ticket with your order number to start the process.",
	},
	{
		Topic:    "account",
		Question: "How do I reset my password?",
		Answer:   "Use the 'Forgot password' link on the sign-in page. The reset email is valid for one hour.",
	},
	{
		Topic:    "account",
		Question: "How do I delete my account?",
		Answer:   "Account deletion is permanent. Go to Settings > Account > Delete account, or ask support to do it for you.",
	},
	{
		Topic:    "shipping",
		Question: "How long does shipping take?",
		Answer:   "Standard shipping takes 3-5 business days, express 1-2 business days. Tracking is emailed on dispatch.",
	},
	{
		Topic:    "shipping",
		Question: "Do you ship internationally?",
		Answer:   "Yes, to most countries. International orders take 7-14 business days and may incur customs fees.",
	},
}

// SearchFAQTool looks up answers in the FAQ corpus with simple keyword
// matching.
type SearchFAQTool struct {
	Entries []FAQEntry
}

// NewSearchFAQTool returns the tool backed by the built-in corpus.
func NewSearchFAQTool() *SearchFAQTool {
	return &SearchFAQTool{Entries: defaultFAQ}
}

func (t *SearchFAQTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "search_faq",
		Description: "Search the FAQ knowledge base for answers to common customer questions.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Keywords describing the customer's question",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (default 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *SearchFAQTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	limit := 3
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	terms := strings.Fields(strings.ToLower(query))
	type scored struct {
		entry FAQEntry
		score int
	}
	var matches []scored
	for _, e := range t.Entries {
		haystack := strings.ToLower(e.Topic + " " + e.Question + " " + e.Answer)
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{entry: e, score: score})
		}
	}

	// Stable selection: corpus order breaks score ties
	var results []FAQEntry
	for len(results) < limit && len(matches) > 0 {
		best := 0
		for i := 1; i < len(matches); i++ {
			if matches[i].score > matches[best].score {
				best = i
			}
		}
		results = append(results, matches[best].entry)
		matches = append(matches[:best], matches[best+1:]...)
	}

	if len(results) == 0 {
		return map[string]any{
			"results": []FAQEntry{},
			"message": "No FAQ entries matched the query",
		}, nil
	}
	return map[string]any{"results": results}, nil
}
