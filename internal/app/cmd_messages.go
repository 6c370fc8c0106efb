package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/filter"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
)

func newMessagesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Direct messages",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "conversations",
			Short: "List conversations with unread counts",
			Args:  cobra.NoArgs,
			RunE: withClient(flags, func(ctx context.Context, env *apiEnv, _ []string) error {
				return show(env, env.client.Conversations(ctx), "intega messages conversations", env.out.Conversations)
			}),
		},
		newMessagesThreadCmd(flags),
		&cobra.Command{
			Use:   "send <peer-id> <text...>",
			Short: "Send a message",
			Args:  cobra.MinimumNArgs(2),
			RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
				msg, err := env.client.SendMessage(ctx, form.Message{ReceiverID: args[0], Content: strings.Join(args[1:], " ")})
				if err != nil {
					return env.fail(err, "")
				}
				env.out.Print(fmt.Sprintf("Sent message %s.", msg.ID))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "read <message-id>",
			Short: "Mark a received message as read",
			Args:  cobra.ExactArgs(1),
			RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
				if _, err := env.client.MarkMessageRead(ctx, args[0]); err != nil {
					return env.fail(err, "intega messages read "+args[0])
				}
				return nil
			}),
		},
	)
	return cmd
}

func newMessagesThreadCmd(flags *globalFlags) *cobra.Command {
	var f filter.MessageFilter
	cmd := &cobra.Command{
		Use:   "thread <peer-id>",
		Short: "Show the conversation with a user",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(flags, func(ctx context.Context, env *apiEnv, args []string) error {
			me := env.client.Me(ctx)
			if me.Err != nil {
				return env.fail(me.Err, "intega messages thread "+args[0])
			}
			return show(env, env.client.Conversation(ctx, args[0]), "intega messages thread "+args[0], func(msgs []models.Message) string {
				return env.out.Thread(f.Apply(msgs), me.Data.ID)
			})
		}),
	}
	cmd.Flags().BoolVar(&f.UnreadOnly, "unread", false, "only unread messages")
	cmd.Flags().StringVar(&f.Query, "query", "", "match message text")
	return cmd
}
