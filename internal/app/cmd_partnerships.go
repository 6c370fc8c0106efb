package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
)

func newPartnershipsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partnerships",
		Short: "Manage school and company partnerships",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your partnerships",
			Args:  cobra.NoArgs,
			RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
				return show(env, env.client.Partnerships(ctx), "intega partnerships list", env.out.Partnerships)
			}),
		},
		newPartnershipsCreateCmd(flags),
		&cobra.Command{
			Use:   "set-status <id> <active|inactive>",
			Short: "Activate or deactivate a partnership (schools)",
			Args:  cobra.ExactArgs(2),
			RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
				partnership, err := env.client.SetPartnershipStatus(ctx, args[0], form.PartnershipStatus{Status: args[1]})
				if err != nil {
					return env.fail(err, "")
				}
				env.out.Print(env.out.Partnerships([]models.Partnership{partnership}))
				return nil
			}),
		},
	)
	return cmd
}

func newPartnershipsCreateCmd(flags *globalFlags) *cobra.Command {
	var req form.Partnership
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Partner with a company (schools)",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			partnership, err := env.client.CreatePartnership(ctx, req)
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.Partnerships([]models.Partnership{partnership}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.CompanyID, "company", "", "company user id")
	return cmd
}
