package main

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dori/boardly/internal/mockapi"
)

type harness struct {
	t    *testing.T
	api  string
	data string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := httptest.NewServer(mockapi.New(mockapi.WithBcryptCost(bcrypt.MinCost)))
	t.Cleanup(srv.Close)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("BOARDLY_CONFIG", "")
	t.Setenv("BOARDLY_PASSWORD", "")
	return &harness{t: t, api: srv.URL, data: t.TempDir()}
}

// exec runs one boardly invocation and returns exit code and stdout
func (h *harness) exec(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--api", h.api, "--data-dir", h.data, "--log-level", "error"}, args...)
	code := run(full, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (h *harness) mustExec(stdin string, args ...string) string {
	h.t.Helper()
	code, out, errOut := h.exec(stdin, args...)
	if code != 0 {
		h.t.Fatalf("boardly %v: exit %d, stderr %q", args, code, errOut)
	}
	return out
}

func TestSessionCommands(t *testing.T) {
	h := newHarness(t)

	if code, _, errOut := h.exec("", "whoami"); code != 1 || !strings.Contains(errOut, "not signed in") {
		t.Fatalf("whoami before signin: exit %d, stderr %q", code, errOut)
	}

	if out := h.mustExec("secret\n", "signup", "Ada", "ada@example.com"); strings.Contains(out, "Password:") {
		t.Errorf("password prompt written to stdout: %q", out)
	}

	if code, _, errOut := h.exec("nope\n", "signin", "ada@example.com"); code != 1 || !strings.Contains(errOut, "Invalid email or password") {
		t.Fatalf("bad password: exit %d, stderr %q", code, errOut)
	}

	t.Setenv("BOARDLY_PASSWORD", "secret")
	out := h.mustExec("", "signin", "ada@example.com")
	if !strings.Contains(out, "Signed in as Ada") {
		t.Errorf("signin output = %q", out)
	}

	out = h.mustExec("", "whoami")
	if !strings.Contains(out, "Ada <ada@example.com>") || !strings.Contains(out, "Token expires") || !strings.Contains(out, "Server "+h.api) {
		t.Errorf("whoami output = %q", out)
	}

	h.mustExec("", "logout")
	if code, _, _ := h.exec("", "boards"); code != 1 {
		t.Errorf("boards after logout: exit %d, want 1", code)
	}
}

func TestBoardAndTodoCommands(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BOARDLY_PASSWORD", "secret")
	h.mustExec("", "signup", "Ada", "ada@example.com")
	h.mustExec("", "signin", "ada@example.com")

	out := h.mustExec("", "boards")
	if !strings.Contains(out, "No boards yet") {
		t.Errorf("empty boards output = %q", out)
	}

	out = h.mustExec("", "board", "add", "Home", "chores")
	id := between(t, out, "(", ")")

	out = h.mustExec("", "board", "rename", id, "House")
	if !strings.Contains(out, "House") {
		t.Errorf("rename output = %q", out)
	}
	out = h.mustExec("", "board", "show", id)
	if !strings.Contains(out, "Title:   House") {
		t.Errorf("show output = %q", out)
	}

	out = h.mustExec("", "todo", "add", id, "Sweep", "floor", "-d", "kitchen too")
	todoID := between(t, out, "(", ")")

	h.mustExec("", "todo", "done", todoID)
	out = h.mustExec("", "todos", id)
	if !strings.Contains(out, "[x]") || !strings.Contains(out, "Sweep floor") || !strings.Contains(out, "kitchen too") {
		t.Errorf("todos output = %q", out)
	}
	if !strings.Contains(out, "1 done, 0 open") {
		t.Errorf("todos stats = %q", out)
	}

	h.mustExec("", "todo", "edit", todoID, "Mop")
	h.mustExec("", "todo", "rm", todoID)
	out = h.mustExec("", "todos", id)
	if !strings.Contains(out, "No todos") {
		t.Errorf("todos after rm = %q", out)
	}

	h.mustExec("", "board", "rm", id)
	if code, _, errOut := h.exec("", "board", "show", id); code != 1 || !strings.Contains(errOut, "Board not found") {
		t.Errorf("show deleted board: exit %d, stderr %q", code, errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BOARDLY_PASSWORD", "secret")
	h.mustExec("", "signup", "Ada", "ada@example.com")
	h.mustExec("", "signin", "ada@example.com")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"signup missing email", []string{"signup", "Ada"}},
		{"board without subcommand", []string{"board"}},
		{"board unknown subcommand", []string{"board", "paint"}},
		{"todo add without title", []string{"todo", "add", "b1"}},
		{"todo add dangling -d", []string{"todo", "add", "b1", "title", "-d"}},
		{"todos without board", []string{"todos"}},
		{"unknown flag", []string{"--bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := h.exec("", tt.args...); code != 2 {
				t.Errorf("exit %d, want 2", code)
			}
		})
	}
}

func TestValidationIsRuntimeError(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BOARDLY_PASSWORD", "secret")
	h.mustExec("", "signup", "Ada", "ada@example.com")
	h.mustExec("", "signin", "ada@example.com")

	code, _, errOut := h.exec("", "board", "add", "   ")
	if code != 1 || !strings.Contains(errOut, "title") {
		t.Errorf("blank board title: exit %d, stderr %q", code, errOut)
	}
}

func TestThemeAndVersion(t *testing.T) {
	h := newHarness(t)
	if out := h.mustExec("", "theme"); !strings.Contains(out, "Theme: dark") {
		t.Errorf("first toggle = %q", out)
	}
	if out := h.mustExec("", "theme"); !strings.Contains(out, "Theme: light") {
		t.Errorf("second toggle = %q", out)
	}
	if out := h.mustExec("", "version"); !strings.Contains(out, "boardly v"+version) {
		t.Errorf("version = %q", out)
	}
}

func TestPasswordFromPipedInput(t *testing.T) {
	t.Setenv("BOARDLY_PASSWORD", "")

	tests := []struct {
		name    string
		stdin   string
		want    string
		wantErr bool
	}{
		{"line", "s3cret\n", "s3cret", false},
		{"crlf", "s3cret\r\n", "s3cret", false},
		{"no newline", "s3cret", "s3cret", false},
		{"only first line", "one\ntwo\n", "one", false},
		{"empty", "", "", true},
		{"blank line", "\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			c := &cli{stdin: strings.NewReader(tt.stdin), out: &out, errOut: &errOut}
			got, err := c.password()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !strings.Contains(errOut.String(), "Password:") {
				t.Errorf("prompt missing from stderr: %q", errOut.String())
			}
			if out.Len() != 0 {
				t.Errorf("stdout = %q, want nothing", out.String())
			}
		})
	}
}

func TestPasswordFromEnvironment(t *testing.T) {
	t.Setenv("BOARDLY_PASSWORD", "from-env")
	var out, errOut bytes.Buffer
	c := &cli{stdin: strings.NewReader("ignored\n"), out: &out, errOut: &errOut}
	got, err := c.password()
	if err != nil || got != "from-env" {
		t.Fatalf("got %q, %v; want from-env", got, err)
	}
	if errOut.Len() != 0 {
		t.Errorf("prompted although BOARDLY_PASSWORD was set: %q", errOut.String())
	}
}

func TestSplitDescription(t *testing.T) {
	words, desc, err := splitDescription([]string{"b1", "-d", "details here", "Buy", "milk"})
	if err != nil {
		t.Fatalf("splitDescription: %v", err)
	}
	if got := strings.Join(words, " "); got != "b1 Buy milk" {
		t.Errorf("words = %q", got)
	}
	if desc != "details here" {
		t.Errorf("desc = %q", desc)
	}
}

func between(t *testing.T, s, open, close string) string {
	t.Helper()
	i := strings.LastIndex(s, open)
	j := strings.LastIndex(s, close)
	if i < 0 || j <= i {
		t.Fatalf("no %s...%s in %q", open, close, s)
	}
	return s[i+1 : j]
}
