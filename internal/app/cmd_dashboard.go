package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/present"
	"github.com/intega/platform/internal/query"
)

const dashboardConcurrency = 4

// section is one list on the dashboard. load stores its result for view.
type section struct {
	title string
	load  func(ctx context.Context)
	view  func() string
}

func listSection[T any](p *present.Printer, title string, fetch func(context.Context, ...query.Option) query.Result[T], render func(T) string) section {
	var res query.Result[T]
	return section{
		title: title,
		load:  func(ctx context.Context) { res = fetch(ctx) },
		view:  func() string { return present.Result(p, res, "intega dashboard", render) },
	}
}

func newDashboardCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Overview for the signed-in account",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			me := env.client.Me(ctx)
			if me.Err != nil {
				return env.fail(me.Err, "intega dashboard")
			}

			sections := dashboardSections(env, me.Data.Type)
			var g errgroup.Group
			g.SetLimit(dashboardConcurrency)
			for _, s := range sections {
				g.Go(func() error {
					s.load(ctx)
					return nil
				})
			}
			_ = g.Wait()

			env.out.Print(fmt.Sprintf("%s · %s", me.Data.Username, me.Data.Type.Label()))
			for _, s := range sections {
				env.out.Print("\n" + s.title)
				env.out.Print(s.view())
			}
			return nil
		}),
	}
}

func dashboardSections(env *apiEnv, userType models.UserType) []section {
	c, p := env.client, env.out
	switch userType {
	case models.UserStudent:
		return []section{
			listSection(p, "Open internships", c.Internships, p.Internships),
			listSection(p, "My applications", c.StudentApplications, p.Applications),
			listSection(p, "Document requests", c.DocumentRequests, p.DocumentRequests),
			listSection(p, "Documents", c.Documents, p.Documents),
			listSection(p, "Conversations", c.Conversations, p.Conversations),
		}
	case models.UserCompany:
		return []section{
			listSection(p, "My internships", c.CompanyInternships, p.Internships),
			listSection(p, "Applications received", c.CompanyApplications, p.Applications),
			listSection(p, "Partnerships", c.Partnerships, p.Partnerships),
			listSection(p, "Shared with me", c.SharedDocuments, p.SharedDocuments),
			listSection(p, "Conversations", c.Conversations, p.Conversations),
		}
	default:
		return []section{
			listSection(p, "Partner internships", c.SchoolInternships, p.Internships),
			listSection(p, "Document requests", c.DocumentRequests, p.DocumentRequests),
			listSection(p, "Partnerships", c.Partnerships, p.Partnerships),
			listSection(p, "Shared with me", c.SharedDocuments, p.SharedDocuments),
			listSection(p, "Conversations", c.Conversations, p.Conversations),
		}
	}
}
