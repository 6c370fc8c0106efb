package present

import "github.com/intega/platform/internal/models"

// Status is any enumerated value with a display label.
type Status interface {
	~string
	Valid() bool
	Label() string
}

var tones = map[string]tone{
	"pending":      toneWarning,
	"reviewing":    toneInfo,
	"interviewing": toneInfo,
	"in_progress":  toneInfo,
	"approved":     toneSuccess,
	"accepted":     toneSuccess,
	"completed":    toneSuccess,
	"ready":        toneSuccess,
	"active":       toneSuccess,
	"rejected":     toneDanger,
	"failed":       toneDanger,
	"inactive":     toneMuted,
}

// Badge renders a colored status label. Values outside their enumeration
// render as models.UnknownLabel.
func Badge[S Status](p *Printer, s S) string {
	if !s.Valid() {
		return p.badges[toneMuted].Render(models.UnknownLabel)
	}
	t, ok := tones[string(s)]
	if !ok {
		t = toneMuted
	}
	return p.badges[t].Render(s.Label())
}

func activeBadge(p *Printer, active bool) string {
	if active {
		return Badge(p, models.PartnershipActive)
	}
	return Badge(p, models.PartnershipInactive)
}
