package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckinCmd() *cobra.Command {
	var emergencyContact string

	cmd := &cobra.Command{
		Use:   "checkin <user> <site> <HH:MM>",
		Short: "Check in at a site until the given local checkout time",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newSyncClient()
			if err != nil {
				return err
			}
			msg, err := c.CheckIn(cmd.Context(), args[0], args[1], args[2], emergencyContact)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&emergencyContact, "contact", "", `emergency contact reference ("name | phone")`)
	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <user> <site>",
		Short: "Cancel the active check-in for a user at a site",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newSyncClient()
			if err != nil {
				return err
			}
			msg, err := c.Cancel(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}
