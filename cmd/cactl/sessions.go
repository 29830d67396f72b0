package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/examprep-backend/internal/app"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and revoke editor sessions",
	}
	cmd.AddCommand(newSessionsRevokeCmd())
	return cmd
}

func newSessionsRevokeCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "revoke <uid>",
		Short: "Revoke every active session of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := strings.TrimSpace(args[0])
			if uid == "" {
				return fmt.Errorf("uid is required")
			}
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.Services.Session.RevokeAll(cmd.Context(), uid, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d session(s) for %s\n", n, uid)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", identity.RevokeAdmin, "Revocation reason recorded on each session")
	return cmd
}
