package llm

import "strings"

// Context budgets per call site, in characters.
const (
	ChatContextBudget   = 8000
	MindmapPerDocBudget = 3000
	MindmapTotalBudget  = 8000
	QuizPerDocBudget    = 2000
	QuizTotalBudget     = 5000
	HistoryWindowLength = 20
)

// TruncateFunc cuts text down to a budget. The default counts characters; a
// token-aware strategy can be swapped in without touching call sites.
type TruncateFunc func(text string, budget int) string

// TruncateChars is the default truncation: a hard rune-count cutoff.
func TruncateChars(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget])
}

// Parts is the ordered input to prompt assembly. Empty parts are skipped,
// never rendered as blank segments.
type Parts struct {
	System       string
	Context      string
	History      []Turn // chronological
	Question     string
	AssistantCue bool // append "Assistant:" for raw-completion backends
}

func roleLabel(role string) string {
	switch role {
	case "assistant":
		return "Assistant"
	default:
		return "User"
	}
}

// AssemblePrompt joins the parts in their fixed order with blank lines:
// system, context, history turns, current question, optional trailing cue.
func AssemblePrompt(p Parts) string {
	var parts []string
	if p.System != "" {
		parts = append(parts, p.System)
	}
	if p.Context != "" {
		parts = append(parts, p.Context)
	}
	for _, t := range p.History {
		if t.Content == "" {
			continue
		}
		parts = append(parts, roleLabel(t.Role)+": "+t.Content)
	}
	if p.Question != "" {
		if len(p.History) > 0 {
			parts = append(parts, roleLabel("user")+": "+p.Question)
		} else {
			parts = append(parts, p.Question)
		}
	}
	if p.AssistantCue {
		parts = append(parts, "Assistant:")
	}
	return strings.Join(parts, "\n\n")
}

// BuildContext renders retrieved chunks as a labeled context block, each
// source truncated to perDoc and the whole block to total (0 disables a
// limit). Used by chat, quiz and mindmap prompt construction.
func BuildContext(truncate TruncateFunc, sources []string, perDoc, total int) string {
	if truncate == nil {
		truncate = TruncateChars
	}
	var b strings.Builder
	b.WriteString("Use the following document content to answer:\n")
	for i, src := range sources {
		if src == "" {
			continue
		}
		if perDoc > 0 {
			src = truncate(src, perDoc)
		}
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(src)
	}
	out := b.String()
	if total > 0 {
		out = truncate(out, total)
	}
	return out
}

// WindowHistory keeps the most recent n turns. Input arrives newest-first
// from the store; the result is re-reversed to chronological order.
func WindowHistory(newestFirst []Turn, n int) []Turn {
	if n <= 0 {
		n = HistoryWindowLength
	}
	if len(newestFirst) > n {
		newestFirst = newestFirst[:n]
	}
	out := make([]Turn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(newestFirst)-1-i] = t
	}
	return out
}
