package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/filter"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/query"
)

func newApplicationsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "applications",
		Short: "Submit and review applications",
	}
	cmd.AddCommand(
		newApplicationsListCmd(flags),
		newApplicationsApplyCmd(flags),
		newApplicationsSetStatusCmd(flags),
	)
	return cmd
}

func newApplicationsListCmd(flags *globalFlags) *cobra.Command {
	var (
		as     string
		status string
		f      filter.ApplicationFilter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your applications (students) or those received (companies)",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			if status != "" {
				parsed, ok := models.ParseApplicationStatus(status)
				if !ok {
					return fmt.Errorf("unknown application status %q", status)
				}
				f.Status = parsed
			}

			var res query.Result[[]models.Application]
			switch as {
			case "student":
				res = env.client.StudentApplications(ctx)
			case "company":
				res = env.client.CompanyApplications(ctx)
			default:
				return fmt.Errorf("unknown perspective %q (student or company)", as)
			}
			return show(env, res, "intega applications list --as "+as, func(items []models.Application) string {
				return env.out.Applications(f.Apply(items))
			})
		}),
	}
	cmd.Flags().StringVar(&as, "as", "student", "student or company")
	cmd.Flags().StringVar(&status, "status", "", "pending, reviewing, interviewing, accepted or rejected")
	cmd.Flags().StringVar(&f.Query, "query", "", "match cover letter or internship id")
	return cmd
}

func newApplicationsApplyCmd(flags *globalFlags) *cobra.Command {
	var req form.Application
	cmd := &cobra.Command{
		Use:   "apply <internship-id>",
		Short: "Apply to an internship (students)",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			req.InternshipID = args[0]
			application, err := env.client.Apply(ctx, req)
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.Applications([]models.Application{application}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.CoverLetter, "cover-letter", "", "cover letter")
	return cmd
}

func newApplicationsSetStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Move an application through review (companies)",
		Args:  cobra.ExactArgs(2),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			application, err := env.client.UpdateApplicationStatus(ctx, args[0], form.ApplicationStatus{Status: args[1]})
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.Applications([]models.Application{application}))
			return nil
		}),
	}
}
