package mail

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/routemesh/provider"
)

const summarySystemPrompt = "You summarize a single email into one short paragraph. " +
	"Start your answer with a priority tag: [high], [medium] or [low]. " +
	"High priority means the mail needs action soon; low priority means it is informational only. " +
	"After the tag, give the summary. Output nothing else."

// priorityTagPattern captures a leading [high|medium|low] tag, case
// insensitive.
var priorityTagPattern = regexp.MustCompile(`(?i)^\s*\[(high|medium|low)\]\s*`)

// Summariser turns messages into prioritized summaries via a completer.
type Summariser struct {
	completer provider.Completer
}

// NewSummariser creates a Summariser over a completer.
func NewSummariser(completer provider.Completer) *Summariser {
	return &Summariser{completer: completer}
}

// Summarise produces one summary for a message. The priority comes from a
// leading tag in the completion; an unparseable or missing tag falls back
// to medium.
func (s *Summariser) Summarise(ctx context.Context, msg Message) (Summary, error) {
	prompt := fmt.Sprintf(
		"From: %s\nSubject: %s\n\n%s",
		msg.Sender, msg.Subject, msg.Body,
	)

	out, err := s.completer(ctx, prompt, provider.WithSystemPrompt(summarySystemPrompt))
	if err != nil {
		return Summary{}, fmt.Errorf("summarise %s: %w", msg.ID, err)
	}

	priority, content := parsePriority(out)

	title := strings.TrimSpace(msg.Subject)
	if title == "" {
		title = "(no subject)"
	}

	return Summary{
		MessageID: msg.ID,
		Title:     title,
		Content:   content,
		Priority:  priority,
	}, nil
}

// parsePriority splits a leading priority tag off a completion. Missing or
// unknown tags default to medium.
func parsePriority(text string) (Priority, string) {
	m := priorityTagPattern.FindStringSubmatch(text)
	if m == nil {
		return PriorityMedium, strings.TrimSpace(text)
	}

	rest := strings.TrimSpace(priorityTagPattern.ReplaceAllString(text, ""))

	switch strings.ToLower(m[1]) {
	case "high":
		return PriorityHigh, rest
	case "low":
		return PriorityLow, rest
	default:
		return PriorityMedium, rest
	}
}

// renderMarkdown renders summaries grouped by priority, high first. Order
// within a bucket follows the input order.
func renderMarkdown(summaries []Summary) string {
	sorted := make([]Summary, len(summaries))
	copy(sorted, summaries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.order() < sorted[j].Priority.order()
	})

	var sb strings.Builder
	sb.WriteString("# Mail digest\n")

	headings := map[Priority]string{
		PriorityHigh:   "High priority",
		PriorityMedium: "Medium priority",
		PriorityLow:    "Low priority",
	}

	var current Priority
	started := false
	for _, s := range sorted {
		if !started || s.Priority != current {
			count := 0
			for _, o := range sorted {
				if o.Priority == s.Priority {
					count++
				}
			}
			sb.WriteString(fmt.Sprintf("\n## %s (%d)\n", headings[s.Priority], count))
			current = s.Priority
			started = true
		}

		sb.WriteString(fmt.Sprintf("\n### %s\n", s.Title))
		if s.Content != "" {
			sb.WriteString("\n" + s.Content + "\n")
		}
	}

	if !started {
		sb.WriteString("\n> No mail found in the requested window.\n")
	}

	return sb.String()
}
