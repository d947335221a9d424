// Package logging provides the slog handler shared by the power-tracker
// commands. Records carry a "topic" attribute and can be filtered by it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Topics used across the daemon.
const (
	TopicEnumerate = "enumerate"
	TopicSample    = "sample"
	TopicPresent   = "present"
	TopicSchedule  = "schedule"
	TopicDBus      = "dbus"
	TopicConfig    = "config"
	TopicSleep     = "sleep"
)

// topicHandler wraps an slog.Handler and filters records by a "topic" attribute.
// Records without a topic always pass through (startup messages, errors).
// Records with a topic only pass if that topic is enabled, or no topics were
// selected at all.
type topicHandler struct {
	inner  slog.Handler
	topics map[string]bool
	topic  string // set when WithAttrs includes a "topic" key
}

// New returns a logger writing text records to w. level gates every record
// and can be changed at runtime. topics is a comma-separated list of topics
// to keep ("all" or empty keeps everything).
func New(w io.Writer, level *slog.LevelVar, topics string) *slog.Logger {
	return slog.New(&topicHandler{
		inner:  slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
		topics: ParseTopics(topics),
	})
}

// ParseTopics splits a comma-separated topic list.
func ParseTopics(s string) map[string]bool {
	topics := make(map[string]bool)
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics[t] = true
		}
	}
	return topics
}

func (h *topicHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *topicHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.topics) == 0 || h.topics["all"] {
		return h.inner.Handle(ctx, r)
	}
	topic := h.topic
	if topic == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "topic" {
				topic = a.Value.String()
				return false
			}
			return true
		})
	}
	if topic != "" && !h.topics[topic] {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *topicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	topic := h.topic
	for _, a := range attrs {
		if a.Key == "topic" {
			topic = a.Value.String()
		}
	}
	return &topicHandler{inner: h.inner.WithAttrs(attrs), topics: h.topics, topic: topic}
}

func (h *topicHandler) WithGroup(name string) slog.Handler {
	return &topicHandler{inner: h.inner.WithGroup(name), topics: h.topics, topic: h.topic}
}

// SetDebug switches level between Debug and Info.
func SetDebug(level *slog.LevelVar, debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}
