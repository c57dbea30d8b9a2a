package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pwkm/pkg/auth"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Run the Google Calendar OAuth flow and cache the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := auth.CalendarService(cmd.Context()); err != nil {
				return fmt.Errorf("google auth: %w", err)
			}
			path, err := auth.TokenPath()
			if err != nil {
				return err
			}
			fmt.Printf("Authorized. Token cached at %s\n", path)
			return nil
		},
	}
}
