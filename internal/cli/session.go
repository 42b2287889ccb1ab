package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/session"
)

// sessionCommand manages persisted explorer sessions.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage persisted explorer sessions",
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionDeleteCommand())
	cmd.AddCommand(c.sessionPruneCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(session.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := session.Open(ctx, cfg.Session.Config)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List unexpired sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				list, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No sessions")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, s := range list {
					rows = append(rows, []string{
						s.ID,
						s.Name,
						strconv.Itoa(s.Graph.NodeCount()),
						strconv.Itoa(len(s.Snapshot.Selected)),
						formatAge(s.UpdatedAt),
					})
				}
				printTable([]string{"ID", "Name", "Authors", "Selected", "Updated"}, rows)
				return nil
			})
		},
	}
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.completeSessionIDs(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				s, err := getSession(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				printKeyValue("ID", s.ID)
				if s.Name != "" {
					printKeyValue("Name", s.Name)
				}
				printKeyValue("Graph", s.GraphHash[:12])
				printKeyValue("Authors", strconv.Itoa(s.Graph.NodeCount()))
				printKeyValue("Links", strconv.Itoa(s.Graph.LinkCount()))
				printKeyValue("Selected", strings.Join(s.Snapshot.Selected, ", "))
				if s.Snapshot.Focused != "" {
					printKeyValue("Focused", s.Snapshot.Focused)
				}
				if s.Snapshot.Query != "" {
					printKeyValue("Filter", strconv.Quote(s.Snapshot.Query))
				}
				printKeyValue("Created", s.CreatedAt.Format(time.DateTime))
				printKeyValue("Expires", s.ExpiresAt.Format(time.DateTime))
				return nil
			})
		},
	}
}

func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete [id...]",
		Short:             "Delete sessions",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeSessionIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				for _, id := range args {
					if err := errors.ValidateSessionID(id); err != nil {
						return err
					}
					if err := store.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

func (c *CLI) sessionPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(store session.Store) error {
				if err := store.Cleanup(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Removed expired sessions")
				return nil
			})
		},
	}
}

// getSession loads id, treating a missing or expired session as an error.
func getSession(ctx context.Context, store session.Store, id string) (*session.Session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	s, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return s, nil
}

// formatAge renders t relative to now ("just now", "5m ago", "3d ago").
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h ago"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + "d ago"
	}
}
