package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/form"
)

func newSignUpCmd(flags *globalFlags) *cobra.Command {
	var req form.SignUp
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			req.UserType = strings.ToUpper(req.UserType)
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			user, err := env.client.SignUp(ctx, req)
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(fmt.Sprintf("Signed up as %s (%s).", user.Username, user.Type.Label()))
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&req.UserType, "type", "student", "account type: student, company or school")
	return cmd
}

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var req form.Login
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			user, err := env.client.Login(ctx, req)
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(fmt.Sprintf("Signed in as %s (%s).", user.Username, user.Type.Label()))
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the remembered session",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			if err := env.client.Logout(ctx); err != nil {
				return env.fail(err, "intega logout")
			}
			env.out.Print("Signed out.")
			return nil
		}),
	}
}
