package present

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/intega/platform/internal/models"
)

const dateLayout = "2006-01-02"

// Print writes a rendered block followed by a newline.
func (p *Printer) Print(block string) {
	fmt.Fprintln(p.w, block)
}

func (p *Printer) table(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return p.hint.Render("Nothing to show.")
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return p.cell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// Internships renders postings with their review and open state.
func (p *Printer) Internships(items []models.Internship) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			shortID(it.ID),
			it.Title,
			it.Location,
			strconv.Itoa(it.DurationWeeks) + "w",
			strings.Join(it.Skills, ", "),
			Badge(p, it.Status),
			activeBadge(p, it.IsActive),
		})
	}
	return p.table([]string{"ID", "Title", "Location", "Duration", "Skills", "Status", "Open"}, rows)
}

// Applications renders submissions with their review status.
func (p *Printer) Applications(items []models.Application) string {
	rows := make([][]string, 0, len(items))
	for _, a := range items {
		rows = append(rows, []string{
			shortID(a.ID),
			shortID(a.InternshipID),
			shortID(a.StudentID),
			Badge(p, a.Status),
			a.CreatedAt.Format(dateLayout),
		})
	}
	return p.table([]string{"ID", "Internship", "Student", "Status", "Submitted"}, rows)
}

// Documents renders the caller's uploads.
func (p *Printer) Documents(items []models.Document) string {
	rows := make([][]string, 0, len(items))
	for _, d := range items {
		rows = append(rows, []string{
			shortID(d.ID),
			d.Name,
			d.Type,
			humanSize(d.Size),
			Badge(p, d.StorageStatus),
			d.CreatedAt.Format(dateLayout),
		})
	}
	return p.table([]string{"ID", "Name", "Type", "Size", "Storage", "Uploaded"}, rows)
}

// SharedDocuments renders documents shared with the caller.
func (p *Printer) SharedDocuments(items []models.SharedDocument) string {
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		forwarded := "-"
		if s.Forwarded() {
			forwarded = shortID(*s.ForwardedToCompanyID)
		}
		rows = append(rows, []string{
			shortID(s.ID),
			s.Document.Name,
			s.Document.Type,
			shortID(s.OwnerID),
			forwarded,
			s.SharedAt.Format(dateLayout),
		})
	}
	return p.table([]string{"Share", "Name", "Type", "From", "Forwarded to", "Shared"}, rows)
}

// DocumentRequests renders requests for administrative documents.
func (p *Printer) DocumentRequests(items []models.DocumentRequest) string {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{
			shortID(r.ID),
			Badge(p, r.RequestType),
			shortID(r.StudentID),
			shortID(r.SchoolID),
			Badge(p, r.Status),
			truncate(r.Message, 40),
		})
	}
	return p.table([]string{"ID", "Type", "Student", "School", "Status", "Message"}, rows)
}

// Partnerships renders school/company links.
func (p *Printer) Partnerships(items []models.Partnership) string {
	rows := make([][]string, 0, len(items))
	for _, ps := range items {
		rows = append(rows, []string{
			shortID(ps.ID),
			shortID(ps.SchoolID),
			shortID(ps.CompanyID),
			Badge(p, ps.Status),
			ps.StartDate.Format(dateLayout),
		})
	}
	return p.table([]string{"ID", "School", "Company", "Status", "Since"}, rows)
}

// Conversations renders one row per peer with the latest message.
func (p *Printer) Conversations(items []models.Conversation) string {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		unread := ""
		if c.UnreadCount > 0 {
			unread = p.badges[toneInfo].Render(strconv.Itoa(c.UnreadCount))
		}
		rows = append(rows, []string{
			c.PeerID,
			truncate(c.LastMessage.Content, 50),
			unread,
			c.LastMessage.CreatedAt.Format(time.DateTime),
		})
	}
	return p.table([]string{"Peer", "Last message", "Unread", "At"}, rows)
}

// Thread renders messages oldest first, marking those sent by selfID.
func (p *Printer) Thread(msgs []models.Message, selfID string) string {
	if len(msgs) == 0 {
		return p.hint.Render("No messages yet.")
	}
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		who := "them"
		if m.SenderID == selfID {
			who = "you"
		}
		status := ""
		if m.SenderID == selfID && m.IsRead {
			status = " " + p.hint.Render("(read)")
		}
		fmt.Fprintf(&b, "%s %s: %s%s", p.hint.Render(m.CreatedAt.Format(time.DateTime)), p.header.UnsetPadding().Render(who), m.Content, status)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
