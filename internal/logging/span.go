package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one background operation, such as persisting an uploaded
// document, and logs its outcome once.
type Span struct {
	logger *slog.Logger
	start  time.Time
	now    func() time.Time
	done   bool
}

// SpanFromContext returns the id of the innermost span started on ctx.
func SpanFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(spanKey).(string)
	return id
}

// StartSpan opens a span named op. Nested spans record their parent so the
// log lines of one upload can be stitched together.
func StartSpan(ctx context.Context, op string, attrs ...any) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	logger := FromContext(ctx).With(slog.String("op", op), slog.String("span_id", id))
	if parent := SpanFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	ctx = context.WithValue(WithLogger(ctx, logger), spanKey, id)
	return ctx, &Span{logger: logger, start: time.Now(), now: time.Now}
}

// Annotate adds attributes to the completion line.
func (s *Span) Annotate(attrs ...any) {
	if s == nil {
		return
	}
	s.logger = s.logger.With(attrs...)
}

// Finish logs the span duration at info, or at error when err is non-nil.
// Only the first call logs.
func (s *Span) Finish(err error) {
	if s == nil || s.done {
		return
	}
	s.done = true
	elapsed := slog.Duration("duration", s.now().Sub(s.start))
	if err != nil {
		s.logger.Error("operation failed", elapsed, slog.String("error", err.Error()))
		return
	}
	s.logger.Info("operation finished", elapsed)
}
