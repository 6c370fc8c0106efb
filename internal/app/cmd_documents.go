package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
)

func newDocumentsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Upload, share and forward documents",
	}
	cmd.AddCommand(
		newDocumentsListCmd(flags),
		newDocumentsUploadCmd(flags),
		newDocumentsShareCmd(flags),
		newDocumentsForwardCmd(flags),
		newDocumentsDownloadCmd(flags),
	)
	return cmd
}

func newDocumentsListCmd(flags *globalFlags) *cobra.Command {
	var shared bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your documents or those shared with you",
		Args:  cobra.NoArgs,
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
			if shared {
				return show(env, env.client.SharedDocuments(ctx), "intega documents list --shared", env.out.SharedDocuments)
			}
			return show(env, env.client.Documents(ctx), "intega documents list", env.out.Documents)
		}),
	}
	cmd.Flags().BoolVar(&shared, "shared", false, "list documents shared with you")
	return cmd
}

func newDocumentsUploadCmd(flags *globalFlags) *cobra.Command {
	var docType string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			doc, err := env.client.UploadDocument(ctx, form.DocumentUpload{File: args[0], Type: docType})
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.Documents([]models.Document{doc}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&docType, "type", "", "document type, e.g. cv or transcript")
	return cmd
}

func newDocumentsShareCmd(flags *globalFlags) *cobra.Command {
	var (
		docType     string
		recipientID string
		documentID  string
	)
	cmd := &cobra.Command{
		Use:   "share [file]",
		Short: "Upload and share a file, or share an existing document with --document",
		Args:  cobra.MaximumNArgs(1),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			var (
				share models.SharedDocument
				err   error
			)
			if documentID != "" {
				share, err = env.client.ShareExistingDocument(ctx, form.ShareExisting{DocumentID: documentID, RecipientID: recipientID})
			} else {
				req := form.DocumentShare{Type: docType, RecipientID: recipientID}
				if len(args) > 0 {
					req.File = args[0]
				}
				share, err = env.client.ShareDocument(ctx, req)
			}
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.SharedDocuments([]models.SharedDocument{share}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&recipientID, "to", "", "recipient user id")
	cmd.Flags().StringVar(&docType, "type", "", "document type for a new upload")
	cmd.Flags().StringVar(&documentID, "document", "", "share an already uploaded document")
	return cmd
}

func newDocumentsForwardCmd(flags *globalFlags) *cobra.Command {
	var companyID string
	cmd := &cobra.Command{
		Use:   "forward <share-id>",
		Short: "Forward a document shared with you to a company",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			share, err := env.client.ForwardDocument(ctx, args[0], form.Forward{CompanyID: companyID})
			if err != nil {
				return env.fail(err, "")
			}
			env.out.Print(env.out.SharedDocuments([]models.SharedDocument{share}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company user id")
	return cmd
}

func newDocumentsDownloadCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Save a stored document to a local file",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			if output == "" {
				output = args[0]
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			n, err := env.client.DownloadDocument(ctx, args[0], f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(output)
				return env.fail(err, "intega documents download "+args[0])
			}
			env.out.Print(fmt.Sprintf("Saved %d bytes to %s.", n, output))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (defaults to the document id)")
	return cmd
}
