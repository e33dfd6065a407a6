package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
)

var (
	errNoResource     = errors.New("pick a resource first: use <resource>")
	errUnknownCommand = errors.New("unknown command; type help")
)

const shellHelp = `Commands:
  resources                 list manageable resources
  use <resource>            switch resource and load it
  list                      show the current page
  search [text]             filter rows locally; no text clears it
  page <n> | next | prev    move between pages
  size <n>                  rows per page
  where [field=value...]    reload with server-side filters; none clears them
  refresh                   reload with the current filters
  show <id>                 every field of one row
  new [field=value...]      open the create dialog
  edit <id> [field=value...] open the edit dialog
  set field=value...        change fields of the open dialog
  dialog                    show the open dialog
  save                      submit the open dialog
  cancel                    close the open dialog
  delete <id>               delete a row (asks first)
  toggle <id> <flag>        flip a boolean field
  help | exit`

func newShellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell [resource]",
		Short: "Browse and edit resources interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := newShell(app, cmd)
			if len(args) == 1 {
				if err := sh.use(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			return sh.run(cmd.Context())
		},
	}
}

// shell is a line-oriented session keeping one Controller per visited resource.
type shell struct {
	app   *App
	cmd   *cobra.Command
	out   io.Writer
	in    *bufio.Reader
	ctrls map[string]*resource.Controller
	cur   *resource.Controller
}

func newShell(app *App, cmd *cobra.Command) *shell {
	return &shell{
		app:   app,
		cmd:   cmd,
		out:   cmd.OutOrStdout(),
		in:    bufio.NewReader(cmd.InOrStdin()),
		ctrls: make(map[string]*resource.Controller),
	}
}

func (sh *shell) prompt() string {
	if sh.cur == nil {
		return "masomo> "
	}
	p := "masomo/" + sh.cur.Definition().Name
	switch sh.cur.View().Dialog.(type) {
	case resource.Creating:
		p += " [new]"
	case resource.Editing:
		p += " [edit]"
	}
	return p + "> "
}

func (sh *shell) run(ctx context.Context) error {
	for {
		fmt.Fprint(sh.out, sh.prompt())
		line, readErr := sh.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			quit, err := sh.exec(ctx, line)
			if err != nil {
				fmt.Fprintln(sh.out, styles.err.Render("error: "+core.UserMessage(err)))
			}
			if quit {
				return nil
			}
		}
		if readErr == io.EOF {
			fmt.Fprintln(sh.out)
			return nil
		}
		if readErr != nil {
			return errors.Wrap(readErr, "reading input")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one line. Gateway failures of mutations are reported by the notifier and not returned.
func (sh *shell) exec(ctx context.Context, line string) (quit bool, err error) {
	words, err := splitLine(line)
	if err != nil {
		return false, err
	}
	name, args := words[0], words[1:]

	switch name {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
		return false, nil
	case "exit", "quit":
		return true, nil
	case "resources":
		renderDefinitions(sh.out, sh.app.registry.All())
		return false, nil
	case "use":
		if len(args) != 1 {
			return false, errors.New("usage: use <resource>")
		}
		return false, sh.use(ctx, args[0])
	}

	c := sh.cur
	if c == nil {
		return false, errNoResource
	}
	switch name {
	case "list", "ls":
	case "search":
		c.SetSearch(strings.Join(args, " "))
	case "page", "size":
		if len(args) != 1 {
			return false, errors.Errorf("usage: %s <n>", name)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, errors.Errorf("%s: %q is not a number", name, args[0])
		}
		if name == "page" {
			c.SetPage(n)
		} else {
			c.SetPageSize(n)
		}
	case "next":
		c.NextPage()
	case "prev":
		c.PrevPage()
	case "where":
		params, err := parseWhere(args)
		if err != nil {
			return false, err
		}
		_, _ = c.LoadWhere(ctx, params) // failures show in the view
	case "refresh":
		_, _ = c.Refresh(ctx)
	case "show":
		if len(args) != 1 {
			return false, errors.New("usage: show <id>")
		}
		e, err := c.Find(args[0])
		if err != nil {
			return false, err
		}
		renderEntity(sh.out, c.Definition(), e)
		return false, nil
	case "new":
		fields, err := parseAssignments(args)
		if err != nil {
			return false, err
		}
		if err := c.OpenCreate(fields); err != nil {
			return false, err
		}
		sh.showDialog()
		return false, nil
	case "edit":
		if len(args) < 1 {
			return false, errors.New("usage: edit <id> [field=value...]")
		}
		fields, err := parseAssignments(args[1:])
		if err != nil {
			return false, err
		}
		if err := c.OpenEdit(args[0]); err != nil {
			return false, err
		}
		if err := sh.set(fields); err != nil {
			return false, err
		}
		sh.showDialog()
		return false, nil
	case "set":
		fields, err := parseAssignments(args)
		if err != nil {
			return false, err
		}
		if err := sh.set(fields); err != nil {
			return false, err
		}
		sh.showDialog()
		return false, nil
	case "dialog":
		sh.showDialog()
		return false, nil
	case "save":
		if _, err := c.SubmitDialog(ctx, nil); err != nil {
			if errors.Is(err, resource.ErrDialogClosed) || errors.Is(err, resource.ErrNoIdentifier) {
				return false, err
			}
			sh.showDialog()
			return false, nil
		}
	case "cancel":
		c.CancelDialog()
		return false, nil
	case "delete":
		if len(args) != 1 {
			return false, errors.New("usage: delete <id>")
		}
		if !confirm(sh.out, sh.in, fmt.Sprintf("Delete %s %s?", c.Definition().Name, args[0])) {
			fmt.Fprintln(sh.out, styles.muted.Render("cancelled"))
			return false, nil
		}
		_, _ = c.Delete(ctx, args[0])
	case "toggle":
		if len(args) != 2 {
			return false, errors.New("usage: toggle <id> <flag>")
		}
		if _, err := c.Toggle(ctx, args[0], args[1]); err != nil && core.KindOf(err) == core.KindUnknown {
			return false, err
		}
	default:
		return false, errUnknownCommand
	}
	renderView(sh.out, c.Definition(), c.View())
	return false, nil
}

// use switches to the named resource, loading it on first visit.
func (sh *shell) use(ctx context.Context, name string) error {
	def, err := sh.app.registry.Lookup(name)
	if err != nil {
		return err
	}
	c, ok := sh.ctrls[def.Name]
	if !ok {
		if c, err = sh.app.controller(sh.cmd, def.Name); err != nil {
			return err
		}
		sh.ctrls[def.Name] = c
		_, _ = c.Load(ctx)
	}
	sh.cur = c
	renderView(sh.out, def, c.View())
	return nil
}

func (sh *shell) set(fields resource.Entity) error {
	for field, value := range fields {
		if err := sh.cur.SetField(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (sh *shell) showDialog() {
	v := sh.cur.View()
	renderDialog(sh.out, sh.cur.Definition(), v.Dialog, v.DialogMessage)
}
