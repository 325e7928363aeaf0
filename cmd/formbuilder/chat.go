package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/tbxark/formbuilder/assistant"
)

func newChatCmd(a *app) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat FORM_ID",
		Short: "Talk with the assistant about a saved form",
		Long:  "Talk with the assistant about a saved form. Type /reset to forget the conversation and /exit to leave.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formID := args[0]
			forms, err := a.formStore(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := forms.Read(cmd.Context(), formID)
			if err != nil {
				return err
			}
			asst, err := a.assistant(cmd.Context())
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = assistant.DefaultSessionID(formID)
			}
			ctx := assistant.WithSessionID(assistant.WithFormID(cmd.Context(), formID), sessionID)
			runner := adk.NewRunner(ctx, adk.RunnerConfig{
				Agent: assistant.NewAgent(
					"FormAssistant",
					"An assistant that helps users adjust or improve a generated form",
					asst,
				),
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chatting about %q (%s). /reset clears the conversation, /exit quits.\n", doc.FormContent.FormTitle, formID)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "\nYou: ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				input := strings.TrimSpace(scanner.Text())
				switch input {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				case "/reset":
					if err := asst.Reset(ctx, formID, sessionID); err != nil {
						return err
					}
					fmt.Fprintln(out, "Conversation cleared.")
					continue
				}
				iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
				for {
					event, ok := iter.Next()
					if !ok {
						break
					}
					if event.Err != nil {
						return event.Err
					}
					if event.Output == nil || event.Output.MessageOutput == nil {
						continue
					}
					msg, err := event.Output.MessageOutput.GetMessage()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "\nAssistant: %s\n", msg.Content)
				}
			}
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default session_<form_id>)")
	return cmd
}
