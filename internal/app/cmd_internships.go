package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/filter"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/query"
)

func newInternshipsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "internships",
		Short: "Browse and manage internships",
	}
	cmd.AddCommand(
		newInternshipsListCmd(flags),
		newInternshipsCreateCmd(flags),
		newInternshipsReviewCmd(flags),
		newInternshipsToggleCmd(flags),
	)
	return cmd
}

func newInternshipsListCmd(flags *globalFlags) *cobra.Command {
	var (
		f      filter.InternshipFilter
		status string
		scope  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List internships with optional filters",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			if status != "" {
				parsed, ok := models.ParseInternshipStatus(status)
				if !ok {
					return fmt.Errorf("unknown internship status %q", status)
				}
				f.Status = parsed
			}

			var res query.Result[[]models.Internship]
			switch scope {
			case "catalog":
				res = env.client.Internships(ctx)
			case "company":
				res = env.client.CompanyInternships(ctx)
			case "school":
				res = env.client.SchoolInternships(ctx)
			default:
				return fmt.Errorf("unknown scope %q (catalog, company or school)", scope)
			}
			return show(env, res, "intega internships list", func(items []models.Internship) string {
				return env.out.Internships(f.Apply(items))
			})
		}),
	}
	cmd.Flags().StringVar(&scope, "scope", "catalog", "catalog, company (own postings) or school (partner postings)")
	cmd.Flags().StringVar(&f.Query, "query", "", "match title, description or location")
	cmd.Flags().StringSliceVar(&f.Skills, "skill", nil, "require a skill (repeatable)")
	cmd.Flags().StringVar(&f.Location, "location", "", "match location")
	cmd.Flags().StringVar(&status, "status", "", "pending, approved or rejected")
	cmd.Flags().IntVar(&f.MinWeeks, "min-weeks", 0, "minimum duration in weeks")
	cmd.Flags().IntVar(&f.MaxWeeks, "max-weeks", 0, "maximum duration in weeks")
	cmd.Flags().BoolVar(&f.ActiveOnly, "active", false, "only open internships")
	return cmd
}

func newInternshipsCreateCmd(flags *globalFlags) *cobra.Command {
	var req form.Internship
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post an internship (companies)",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			internship, err := env.client.CreateInternship(ctx, req)
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.Internships([]models.Internship{internship}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "title")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().StringVar(&req.Location, "location", "", "location")
	cmd.Flags().IntVar(&req.DurationWeeks, "weeks", 0, "duration in weeks")
	cmd.Flags().StringSliceVar(&req.Skills, "skill", nil, "required skill (repeatable)")
	return cmd
}

func newInternshipsReviewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "review <id> <approved|rejected>",
		Short: "Approve or reject a partner's internship (schools)",
		Args:  cobra.ExactArgs(2),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			internship, err := env.client.ReviewInternship(ctx, args[0], form.InternshipReview{Status: args[1]})
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.Internships([]models.Internship{internship}))
			return nil
		}),
	}
}

func newInternshipsToggleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set-active <id> <true|false>",
		Short: "Open or close one of your internships (companies)",
		Args:  cobra.ExactArgs(2),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("parse active flag: %w", err)
			}
			internship, err := env.client.SetInternshipActive(ctx, args[0], active)
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.Internships([]models.Internship{internship}))
			return nil
		}),
	}
}
