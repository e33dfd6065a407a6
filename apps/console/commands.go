package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core/resource"
)

var errConfirmRequired = errors.New("refusing to delete without confirmation; pass --yes")

func newResourcesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources the console manages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderDefinitions(cmd.OutOrStdout(), app.registry.All())
			return nil
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	var (
		search string
		page   int
		size   int
		where  []string
	)

	cmd := &cobra.Command{
		Use:     "list <resource>",
		Aliases: []string{"ls"},
		Short:   "Show one page of a resource, newest first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseWhere(where)
			if err != nil {
				return err
			}
			c, err := app.controller(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := c.LoadWhere(cmd.Context(), params); err != nil {
				return err
			}
			c.SetSearch(search)
			if size > 0 {
				c.SetPageSize(size)
			}
			c.SetPage(page)
			renderView(cmd.OutOrStdout(), c.Definition(), c.View())
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Keep rows whose searchable fields contain this text")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 0, "Rows per page (overrides --page-size)")
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Server-side filter field=value (repeatable)")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <resource> <id>",
		Short: "Show every field of one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.controller(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := c.Load(cmd.Context()); err != nil {
				return err
			}
			e, err := c.Find(args[1])
			if err != nil {
				return err
			}
			renderEntity(cmd.OutOrStdout(), c.Definition(), e)
			return nil
		},
	}
}

func newCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <resource> field=value...",
		Short: "Create an entity",
		Long: strings.TrimSpace(`
Create an entity from field=value pairs.
Values that read as JSON keep their type (42, true, null, {"a":1}); anything else is text.`),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			c, err := app.controller(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := c.Create(cmd.Context(), fields); err != nil {
				return reportedError{err}
			}
			return nil
		},
	}
}

func newUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update <resource> <id> field=value...",
		Short: "Update fields of an entity",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			c, err := app.controller(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := c.Update(cmd.Context(), args[1], patch); err != nil {
				return reportedError{err}
			}
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.controller(cmd, args[0])
			if err != nil {
				return err
			}
			name, id := c.Definition().Name, args[1]
			if !yes {
				if !isTerminalFunc(int(os.Stdin.Fd())) {
					return errConfirmRequired
				}
				if !confirm(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), fmt.Sprintf("Delete %s %s?", name, id)) {
					fmt.Fprintln(cmd.OutOrStdout(), styles.muted.Render("cancelled"))
					return nil
				}
			}
			if _, err := c.Delete(cmd.Context(), id); err != nil {
				return reportedError{err}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <resource> <id> <flag>",
		Short: "Flip a boolean field, e.g. a course's published flag",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.controller(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := c.Load(cmd.Context()); err != nil {
				return err
			}
			if _, err := c.Toggle(cmd.Context(), args[1], args[2]); err != nil {
				if errors.Is(err, resource.ErrNotToggleable) || errors.Is(err, resource.ErrEntityNotFound) || errors.Is(err, resource.ErrNotBoolean) {
					return err
				}
				return reportedError{err}
			}
			return nil
		},
	}
}

// confirm asks a yes/no question; only an explicit yes counts.
func confirm(w io.Writer, r *bufio.Reader, question string) bool {
	fmt.Fprint(w, question+" [y/N] ")
	answer, _ := r.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
