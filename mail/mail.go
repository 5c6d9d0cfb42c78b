// Package mail summarizes recent mail into a prioritized Markdown digest.
// Mailbox access sits behind the Fetcher interface so the summarization
// pipeline stays independent of any concrete mail client.
package mail

import (
	"context"
	"time"
)

// Message is a normalized mail message handed to the summariser.
type Message struct {
	ID         string
	Subject    string
	Sender     string
	Recipients []string
	Body       string
	Timestamp  time.Time
	Unread     bool
}

// Priority buckets for summaries, rendered high first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// order returns the render position of a priority bucket.
func (p Priority) order() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Summary is one summarized message.
type Summary struct {
	MessageID string
	Title     string
	Content   string
	Priority  Priority
}

// FetchOptions narrow a fetch to a time window, folder and read state.
type FetchOptions struct {
	// Since drops messages older than this instant.
	Since time.Time

	// Folder selects the mailbox folder. Empty means the fetcher default.
	Folder string

	// UnreadOnly restricts the fetch to unread messages.
	UnreadOnly bool

	// Limit caps the number of fetched messages. Zero or negative means
	// unlimited.
	Limit int
}

// Fetcher retrieves messages from a mailbox.
type Fetcher interface {
	Fetch(ctx context.Context, opts FetchOptions) ([]Message, error)
}

// StaticFetcher serves a fixed message list, applying the fetch options
// in memory. It backs tests and examples where no real mailbox exists.
type StaticFetcher struct {
	Messages []Message
}

// Fetch implements Fetcher.
func (f *StaticFetcher) Fetch(_ context.Context, opts FetchOptions) ([]Message, error) {
	var out []Message

	for _, m := range f.Messages {
		if !opts.Since.IsZero() && m.Timestamp.Before(opts.Since) {
			continue
		}
		if opts.UnreadOnly && !m.Unread {
			continue
		}
		out = append(out, m)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}

	return out, nil
}
