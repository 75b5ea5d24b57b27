package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List active check-ins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newSyncClient()
			if err != nil {
				return err
			}
			if err := c.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Print(renderActive(c.Display()))
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past check-ins, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newSyncClient()
			if err != nil {
				return err
			}
			if err := c.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Print(renderHistory(c.Display()))
			return nil
		},
	}
}

func newContactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List saved emergency contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newSyncClient()
			if err != nil {
				return err
			}
			contacts, err := c.Contacts(cmd.Context())
			if err != nil {
				return err
			}
			if len(contacts) == 0 {
				fmt.Println("No contacts saved.")
				return nil
			}
			for _, contact := range contacts {
				line := fmt.Sprintf("%s | %s", contact.Name, contact.Phone)
				if contact.Notes != "" {
					line += " - " + contact.Notes
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newAddContactCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "add-contact <name> <phone>",
		Short: "Save a new emergency contact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newSyncClient()
			if err != nil {
				return err
			}
			if err := c.AddContact(cmd.Context(), args[0], args[1], notes); err != nil {
				return err
			}
			fmt.Printf("Contact %s added\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes for the contact")
	return cmd
}
