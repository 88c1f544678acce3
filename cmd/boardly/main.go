package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/boardly/internal/app"
	"github.com/dori/boardly/internal/config"
	"github.com/dori/boardly/internal/logging"
	"github.com/dori/boardly/internal/ui"
)

var (
	version = "0.1.0"
)

// usageError is reported with exit code 2
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usage(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("boardly", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.Load(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		if err := runTUI(cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	switch rest[0] {
	case "version":
		fmt.Fprintf(stdout, "boardly v%s\n", version)
		return 0
	case "help", "-h", "--help":
		printHelp(stdout)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = runCommand(ctx, cfg, rest, stdin, stdout, stderr)
	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "Usage: %s\n", ue.msg)
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func printHelp(w io.Writer) {
	help := `boardly - boards and todos against a REST backend

Usage:
  boardly                                   Start the TUI
  boardly signup <name> <email>             Create an account
  boardly signin <email>                    Sign in and store the token
  boardly logout                            Forget the stored session
  boardly whoami                            Show the signed-in user
  boardly boards                            List boards
  boardly board add <title...>              Create a board
  boardly board rename <id> <title...>      Rename a board
  boardly board rm <id>                     Delete a board
  boardly board show <id>                   Show one board
  boardly todos <boardId>                   List a board's todos
  boardly todo add <boardId> <title...> [-d description]
  boardly todo done <id>                    Mark a todo completed
  boardly todo edit <id> <title...>         Retitle a todo
  boardly todo rm <id>                      Delete a todo
  boardly theme                             Toggle dark/light
  boardly version                           Show version
  boardly help                              Show this help

Passwords are read from BOARDLY_PASSWORD or prompted for.

Global flags (before the command):
  --api <url>          Backend base URL
  --data-dir <dir>     Directory for the local session store
  --log-level <level>  debug, info, warn, error
  --log-format <fmt>   text, json, logfmt

Keybindings (TUI):
  Navigation:   ↑/↓ or j/k    Move cursor
                g/G           Go to top/bottom
                tab           Switch pane
  Boards:       enter         Open board
                a / r / d     Add, rename, delete
  Todos:        a             Add todo
                e / D         Edit title, description
                space         Toggle done
                d             Delete (with confirm)
  Global:       R             Refresh
                ctrl+t        Toggle theme
                ctrl+l        Log out
                ?             Help
                q             Quit`

	fmt.Fprintln(w, help)
}

func runTUI(cfg *config.Config) error {
	logger, closer, err := logging.OpenFile(cfg.LogPath(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer closer.Close()

	application, err := app.New(cfg, app.Options{Lock: true, Logger: logger})
	if err != nil {
		return err
	}
	defer application.Close()

	model := ui.NewRootModel(application)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Store changes made by in-flight commands trigger a redraw
	unsubscribe := application.OnChange(func() { go p.Send(ui.StoreChangedMsg{}) })
	defer unsubscribe()

	_, err = p.Run()
	return err
}

func openApp(cfg *config.Config, stderr io.Writer) (*app.App, error) {
	logger := logging.FromConfig(stderr, cfg.LogLevel, cfg.LogFormat)
	// No lock: subcommands may run alongside the TUI
	return app.New(cfg, app.Options{Logger: logger})
}

func runCommand(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd, args := args[0], args[1:]
	if _, ok := commands[cmd]; !ok {
		return usage("unknown command %q (see boardly help)", cmd)
	}

	a, err := openApp(cfg, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	c := &cli{app: a, stdin: stdin, out: stdout, errOut: stderr}
	return commands[cmd](c, ctx, args)
}
