package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/pkg/models"
)

func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage client records",
	}
	cmd.AddCommand(newClientAddCmd())
	cmd.AddCommand(newClientListCmd())
	return cmd
}

func newClientAddCmd() *cobra.Command {
	var ws, id, name, industry, contact, email string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Catalogue a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || name == "" {
				return fmt.Errorf("--workspace and --name are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if id == "" {
				id = fmt.Sprintf("cl-%d", time.Now().UnixNano())
			}
			c := models.Client{ID: id, Name: name, Industry: industry, ContactPerson: contact, Email: email, CreatedAt: time.Now().UTC()}
			if err := st.PutClient(cmd.Context(), ws, c); err != nil {
				return err
			}
			_, _ = st.AppendActivity(cmd.Context(), ws, models.ActivityEntry{
				Source:  models.SourceClient,
				Author:  "SYSTEM",
				Content: "New corporate entity catalogued: " + c.Name,
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added client %s (%s)\n", c.ID, c.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Client ID (generated if empty)")
	cmd.Flags().StringVar(&name, "name", "", "Client name")
	cmd.Flags().StringVar(&industry, "industry", "", "Industry")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact person")
	cmd.Flags().StringVar(&email, "email", "", "Contact email")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newClientListCmd() *cobra.Command {
	var ws string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List client records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" {
				return fmt.Errorf("--workspace is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			clients, err := st.ListClients(cmd.Context(), ws)
			if err != nil {
				return err
			}
			for _, c := range clients {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  industry=%s contact=%s\n", c.ID, c.Name, c.Industry, c.ContactPerson)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}
