package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/config"
	"github.com/DesmondSol/speedops/internal/store"
)

// openStore opens the home-directory store for direct CLI operations.
func openStore(cmd *cobra.Command) (store.Store, error) {
	home := config.MustHomeFrom(cmd.Context())
	return store.Open(home)
}

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
	}
	cmd.AddCommand(newWorkspaceCreateCmd())
	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceJoinCmd())
	cmd.AddCommand(newWorkspaceDeleteCmd())
	return cmd
}

func newWorkspaceCreateCmd() *cobra.Command {
	var name, owner string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ws, err := st.CreateWorkspace(cmd.Context(), name, owner)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created workspace %s (invite code %s)\n", ws.ID, ws.InviteCode)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Workspace name")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner member ID")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			workspaces, err := st.ListWorkspaces(cmd.Context())
			if err != nil {
				return err
			}
			for _, ws := range workspaces {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (invite %s, %d members)\n",
					ws.ID, ws.Name, ws.InviteCode, len(ws.Members))
			}
			return nil
		},
	}
}

func newWorkspaceJoinCmd() *cobra.Command {
	var inviteCode, memberID string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a workspace via invite code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inviteCode == "" || memberID == "" {
				return fmt.Errorf("--code and --member are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ws, err := st.GetWorkspaceByInviteCode(cmd.Context(), inviteCode)
			if err != nil {
				return err
			}
			if err := st.AddWorkspaceMember(cmd.Context(), ws.ID, memberID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Joined workspace %s (%s)\n", ws.ID, ws.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&inviteCode, "code", "", "Invite code")
	cmd.Flags().StringVar(&memberID, "member", "", "Member ID to add")
	return cmd
}

func newWorkspaceDeleteCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a workspace and everything under it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.DeleteWorkspace(cmd.Context(), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted workspace %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Workspace ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
