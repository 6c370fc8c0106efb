package present

import (
	"errors"
	"sort"
	"strings"

	"github.com/intega/platform/internal/client"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/mutation"
	"github.com/intega/platform/internal/query"
)

// ErrorBanner renders err inline. Failures that may succeed on a second
// attempt carry a retry hint naming retryCmd.
func (p *Printer) ErrorBanner(err error, retryCmd string) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.banner.Render("✗ " + describe(err)))

	var verr *form.ValidationError
	var apiErr *client.APIError
	switch {
	case errors.As(err, &verr):
		writeFields(&b, verr.Fields)
	case errors.As(err, &apiErr):
		writeFields(&b, apiErr.Fields)
	}

	if client.Retryable(err) {
		hint := "Retry the request."
		if retryCmd != "" {
			hint = "Retry with: " + retryCmd
		}
		b.WriteString("\n" + p.hint.Render(hint))
	}
	return b.String()
}

func writeFields(b *strings.Builder, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("\n  " + name + ": " + fields[name])
	}
}

func describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrTransport):
		return "Could not reach the Intega service."
	case errors.Is(err, client.ErrUnauthorized):
		return "You are not signed in or your session expired. Run `intega login`."
	case errors.Is(err, client.ErrInvalidResponse):
		return "The service returned an unexpected response."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return capitalize(apiErr.Message) + "."
	}
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		return "Please fix the highlighted fields."
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Result renders a query result: data when present, a banner when the last
// load failed, or a loading hint when nothing has arrived yet.
func Result[T any](p *Printer, res query.Result[T], retryCmd string, render func(T) string) string {
	switch {
	case res.HasData() && res.Err != nil:
		return render(res.Data) + "\n" + p.ErrorBanner(res.Err, retryCmd)
	case res.HasData():
		out := render(res.Data)
		if res.IsStale {
			out += "\n" + p.hint.Render("Refreshing…")
		}
		return out
	case res.Err != nil:
		return p.ErrorBanner(res.Err, retryCmd)
	default:
		return p.hint.Render("Loading…")
	}
}

// Notification renders a mutation outcome as a one-line toast.
func (p *Printer) Notification(n mutation.Notification) string {
	label := strings.ReplaceAll(string(n.Kind), "_", " ")
	switch n.Level {
	case mutation.LevelSuccess:
		return p.badges[toneSuccess].Render("✓ " + label)
	case mutation.LevelWarning:
		return p.badges[toneWarning].Render("! "+label) + " " + describe(n.Err)
	default:
		return p.ErrorBanner(n.Err, "")
	}
}
