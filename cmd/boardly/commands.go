package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/dori/boardly/internal/api"
	"github.com/dori/boardly/internal/app"
	"github.com/dori/boardly/internal/model"
)

// cli carries what every subcommand needs
type cli struct {
	app    *app.App
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer // prompts
}

type command func(c *cli, ctx context.Context, args []string) error

var commands = map[string]command{
	"signup": (*cli).signUp,
	"signin": (*cli).signIn,
	"logout": (*cli).logout,
	"whoami": (*cli).whoami,
	"boards": (*cli).listBoards,
	"board":  (*cli).board,
	"todos":  (*cli).listTodos,
	"todo":   (*cli).todo,
	"theme":  (*cli).theme,
}

var errNotSignedIn = errors.New("not signed in (run boardly signin <email>)")

func (c *cli) requireSession() error {
	if !c.app.Sessions.Snapshot().IsAuthenticated {
		return errNotSignedIn
	}
	return nil
}

// password reads BOARDLY_PASSWORD, falling back to a prompt. A terminal
// gets a no-echo read; piped input is read one line at a time.
func (c *cli) password() (string, error) {
	if p := os.Getenv("BOARDLY_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(c.errOut, "Password: ")

	var pw string
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(c.errOut)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		pw = string(b)
	} else {
		line, err := bufio.NewReader(c.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

func (c *cli) signUp(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("boardly signup <name> <email>")
	}
	pw, err := c.password()
	if err != nil {
		return err
	}
	reg := api.Registration{Name: args[0], Email: args[1], Password: pw}
	if err := c.app.Sessions.SignUp(ctx, reg); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Registered %s. Sign in with: boardly signin %s\n", reg.Email, reg.Email)
	return nil
}

func (c *cli) signIn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("boardly signin <email>")
	}
	pw, err := c.password()
	if err != nil {
		return err
	}
	if err := c.app.Sessions.SignIn(ctx, api.Credentials{Email: args[0], Password: pw}); err != nil {
		return err
	}
	user := c.app.Sessions.Snapshot().Session.User
	fmt.Fprintf(c.out, "Signed in as %s\n", user.DisplayName())
	return nil
}

func (c *cli) logout(_ context.Context, args []string) error {
	if len(args) != 0 {
		return usage("boardly logout")
	}
	if err := c.app.Sessions.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *cli) whoami(_ context.Context, args []string) error {
	if len(args) != 0 {
		return usage("boardly whoami")
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	s := c.app.Sessions.Snapshot().Session
	if s.User == nil {
		fmt.Fprintln(c.out, "Signed in (user unknown)")
	} else {
		fmt.Fprintf(c.out, "%s <%s>\n", s.User.DisplayName(), s.User.Email)
	}
	if s.ExpiresAt != nil {
		state := "expires"
		if s.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(c.out, "Token %s %s\n", state, s.ExpiresAt.Local().Format("Mon, Jan 2 15:04"))
	}
	fmt.Fprintf(c.out, "Server %s\n", c.app.Client.BaseURL())
	return nil
}

func (c *cli) listBoards(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return usage("boardly boards")
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	if err := c.app.Boards.FetchBoards(ctx); err != nil {
		return err
	}
	boards := c.app.Boards.Snapshot().Boards
	if len(boards) == 0 {
		fmt.Fprintln(c.out, "No boards yet. Create one with: boardly board add <title>")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, b := range boards {
		fmt.Fprintf(w, "%s\t%s\n", b.ID, b.Title)
	}
	return w.Flush()
}

func (c *cli) board(ctx context.Context, args []string) error {
	const help = "boardly board add <title...> | rename <id> <title...> | rm <id> | show <id>"
	if len(args) == 0 {
		return usage(help)
	}
	if err := c.requireSession(); err != nil {
		return err
	}

	switch sub, args := args[0], args[1:]; sub {
	case "add":
		if len(args) == 0 {
			return usage("boardly board add <title...>")
		}
		b, err := c.app.Boards.CreateBoard(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created board %s (%s)\n", b.Title, b.ID)
	case "rename":
		if len(args) < 2 {
			return usage("boardly board rename <id> <title...>")
		}
		b, err := c.app.Boards.UpdateBoard(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Renamed board to %s\n", b.Title)
	case "rm":
		if len(args) != 1 {
			return usage("boardly board rm <id>")
		}
		if err := c.app.Boards.DeleteBoard(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted board %s\n", args[0])
	case "show":
		if len(args) != 1 {
			return usage("boardly board show <id>")
		}
		b, err := c.app.Boards.FetchBoard(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "ID:      %s\nTitle:   %s\n", b.ID, b.Title)
		if b.CreatedAt != nil {
			fmt.Fprintf(c.out, "Created: %s\n", b.CreatedAt.Local().Format(time.RFC3339))
		}
		if b.UpdatedAt != nil {
			fmt.Fprintf(c.out, "Updated: %s\n", b.UpdatedAt.Local().Format(time.RFC3339))
		}
	default:
		return usage(help)
	}
	return nil
}

func (c *cli) listTodos(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("boardly todos <boardId>")
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	if err := c.app.Todos.FetchTodos(ctx, args[0]); err != nil {
		return err
	}
	todos := c.app.Todos.Snapshot().Todos
	if len(todos) == 0 {
		fmt.Fprintln(c.out, "No todos on this board")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tTITLE\tDESCRIPTION")
	for _, t := range todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\n", t.ID, mark, t.Title, t.Description)
	}
	done, pending := model.TodoStats(todos)
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d done, %d open\n", done, pending)
	return nil
}

func (c *cli) todo(ctx context.Context, args []string) error {
	const help = "boardly todo add <boardId> <title...> [-d description] | done <id> | edit <id> <title...> | rm <id>"
	if len(args) == 0 {
		return usage(help)
	}
	if err := c.requireSession(); err != nil {
		return err
	}

	switch sub, args := args[0], args[1:]; sub {
	case "add":
		words, desc, err := splitDescription(args)
		if err != nil {
			return err
		}
		if len(words) < 2 {
			return usage("boardly todo add <boardId> <title...> [-d description]")
		}
		t, err := c.app.Todos.CreateTodo(ctx, model.NewTodo{
			BoardID:     words[0],
			Title:       strings.Join(words[1:], " "),
			Description: desc,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created todo %s (%s)\n", t.Title, t.ID)
	case "done":
		if len(args) != 1 {
			return usage("boardly todo done <id>")
		}
		completed := true
		t, err := c.app.Todos.UpdateTodo(ctx, args[0], model.TodoPatch{Completed: &completed})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Completed %s\n", t.Title)
	case "edit":
		if len(args) < 2 {
			return usage("boardly todo edit <id> <title...>")
		}
		title := strings.Join(args[1:], " ")
		t, err := c.app.Todos.UpdateTodo(ctx, args[0], model.TodoPatch{Title: &title})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Renamed todo to %s\n", t.Title)
	case "rm":
		if len(args) != 1 {
			return usage("boardly todo rm <id>")
		}
		if err := c.app.Todos.DeleteTodo(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted todo %s\n", args[0])
	default:
		return usage(help)
	}
	return nil
}

// splitDescription pulls "-d <text>" out of args wherever it appears
func splitDescription(args []string) (words []string, desc string, err error) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-d", "--description":
			if i+1 >= len(args) {
				return nil, "", usage("-d needs a description")
			}
			desc = args[i+1]
			i++
		default:
			words = append(words, args[i])
		}
	}
	return words, desc, nil
}

func (c *cli) theme(_ context.Context, args []string) error {
	if len(args) != 0 {
		return usage("boardly theme")
	}
	dark, err := c.app.Theme.ToggleTheme()
	if err != nil {
		return err
	}
	mode := "light"
	if dark {
		mode = "dark"
	}
	fmt.Fprintf(c.out, "Theme: %s\n", mode)
	return nil
}
