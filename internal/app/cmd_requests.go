package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/filter"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
)

func newRequestsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Request administrative documents from a school",
	}
	cmd.AddCommand(newRequestsListCmd(flags), newRequestsCreateCmd(flags), newRequestsResolveCmd(flags))
	return cmd
}

func newRequestsListCmd(flags *globalFlags) *cobra.Command {
	var status, requestType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your requests (students) or those addressed to you (schools)",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			var f filter.DocumentRequestFilter
			if status != "" {
				parsed, ok := models.ParseDocumentRequestStatus(status)
				if !ok {
					return fmt.Errorf("unknown request status %q", status)
				}
				f.Status = parsed
			}
			if requestType != "" {
				parsed, ok := models.ParseDocumentRequestType(requestType)
				if !ok {
					return fmt.Errorf("unknown request type %q", requestType)
				}
				f.Type = parsed
			}
			return show(env, env.client.DocumentRequests(ctx), "intega requests list", func(items []models.DocumentRequest) string {
				return env.out.DocumentRequests(f.Apply(items))
			})
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress, completed or rejected")
	cmd.Flags().StringVar(&requestType, "type", "", "request type")
	return cmd
}

func newRequestsCreateCmd(flags *globalFlags) *cobra.Command {
	var req form.DocumentRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Ask a school for a document (students)",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			request, err := env.client.CreateDocumentRequest(ctx, req)
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.DocumentRequests([]models.DocumentRequest{request}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.SchoolID, "school", "", "school user id")
	cmd.Flags().StringVar(&req.RequestType, "type", "", "internship_agreement, attendance_certificate, transcript, recommendation_letter or other")
	cmd.Flags().StringVar(&req.ApplicationID, "application", "", "related application id")
	cmd.Flags().StringVar(&req.Message, "message", "", "note for the school")
	return cmd
}

func newRequestsResolveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id> <in_progress|completed|rejected>",
		Short: "Answer a document request (schools)",
		Args:  cobra.ExactArgs(2),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			request, err := env.client.ResolveDocumentRequest(ctx, args[0], form.DocumentRequestResolve{Status: args[1]})
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.DocumentRequests([]models.DocumentRequest{request}))
			return nil
		}),
	}
}
