package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locallink/backend/internal/app"
	"github.com/locallink/backend/internal/service/conversation"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			ctrl, err := application.Conversations.Open(cmd.Context())
			if err != nil {
				return err
			}
			return runChat(cmd, ctrl, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runChat(cmd *cobra.Command, ctrl *conversation.Controller, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, botStyle.Render("bot> ")+conversation.Greeting)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := scanner.Text()
		if strings.TrimSpace(text) == "/quit" {
			return nil
		}

		turn, err := ctrl.Submit(cmd.Context(), text)
		if errors.Is(err, conversation.ErrEmptyInput) {
			continue
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, intentStyle.Render("["+string(turn.Intent)+"]"))
		fmt.Fprintln(out, botStyle.Render("bot> ")+turn.Reply.Text)
	}
}
