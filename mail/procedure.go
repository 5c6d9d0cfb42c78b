package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/procedure"
)

// NewSummariseProcedure builds the summarise_past_email procedure over a
// fetcher and a summariser.
//
// Params: past_days and past_hours select the time window (both zero means
// the past 24 hours), folder and unread_only narrow the fetch, limit caps
// the number of messages. The result is a structured response with keys
// markdown, total_emails, summarised, time_used and warnings. Per-message
// summarisation failures become warnings; only a fetch failure fails the
// procedure.
func NewSummariseProcedure(fetcher Fetcher, summariser *Summariser) procedure.Procedure {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"past_days": map[string]any{
				"type":        "integer",
				"description": "Days to look back.",
			},
			"past_hours": map[string]any{
				"type":        "integer",
				"description": "Hours to look back. Both zero means 24 hours.",
			},
			"folder": map[string]any{
				"type":        "string",
				"description": "Mailbox folder to read.",
			},
			"unread_only": map[string]any{
				"type":        "boolean",
				"description": "Only consider unread mail.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of messages, 0 for unlimited.",
			},
		},
	}

	run := func(ctx context.Context, params, metadata map[string]any) (payload.Response, error) {
		start := time.Now()
		warnings := []string{}

		since := time.Now().UTC().Add(-window(params))

		opts := FetchOptions{
			Since:      since,
			UnreadOnly: boolParam(params, "unread_only"),
			Limit:      intParam(params, "limit"),
		}
		if folder, ok := params["folder"].(string); ok {
			opts.Folder = folder
		}

		messages, err := fetcher.Fetch(ctx, opts)
		if err != nil {
			return payload.Response{}, procedure.NewProcedureError(
				"summarise_past_email",
				fmt.Sprintf("fetch failed: %v", err),
				"EXECUTION_ERROR",
			)
		}

		summaries := make([]Summary, 0, len(messages))
		for _, msg := range messages {
			s, err := summariser.Summarise(ctx, msg)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("summarise failed: %s: %v", msg.ID, err))
				continue
			}
			summaries = append(summaries, s)
		}

		resp := payload.NewStructuredResponse(map[string]any{
			"markdown":     renderMarkdown(summaries),
			"total_emails": len(messages),
			"summarised":   len(summaries),
			"time_used":    time.Since(start).Seconds(),
			"warnings":     warnings,
		})

		return resp.MergeMetadata(metadata), nil
	}

	return procedure.NewFunctionProcedure(
		"summarise_past_email",
		"Summarises recent mail into a prioritized Markdown digest.",
		params,
		run,
	)
}

// window derives the look-back duration from past_days and past_hours.
// Both absent or zero means 24 hours.
func window(params map[string]any) time.Duration {
	days := intParam(params, "past_days")
	hours := intParam(params, "past_hours")

	if days <= 0 && hours <= 0 {
		hours = 24
	}
	if days < 0 {
		days = 0
	}
	if hours < 0 {
		hours = 0
	}

	return time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}
