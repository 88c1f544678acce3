package views

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/boardly/internal/api"
	"github.com/dori/boardly/internal/store"
	"github.com/dori/boardly/internal/ui/theme"
)

// AuthMode selects between the sign-in and sign-up forms
type AuthMode int

const (
	AuthSignIn AuthMode = iota
	AuthSignUp
)

func (m AuthMode) String() string {
	if m == AuthSignUp {
		return "Sign up"
	}
	return "Sign in"
}

const (
	fieldName = iota
	fieldEmail
	fieldPassword
)

// SignedInMsg is emitted when SignIn succeeds
type SignedInMsg struct{}

type signInDoneMsg struct{ err error }

type signUpDoneMsg struct{ err error }

// AuthView is the sign-in / sign-up form
type AuthView struct {
	sessions *store.SessionStore
	width    int
	height   int

	mode    AuthMode
	inputs  []textinput.Model
	focus   int
	notice  string
	invalid string // client-side validation failure, never sent to the server
}

// NewAuthView creates the form in sign-in mode
func NewAuthView(sessions *store.SessionStore) AuthView {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 128
		ti.Width = 40
		return ti
	}

	name := newInput("Name")
	email := newInput("Email")
	password := newInput("Password")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	v := AuthView{
		sessions: sessions,
		inputs:   []textinput.Model{name, email, password},
	}
	v.focus = v.firstField()
	v.inputs[v.focus].Focus()
	return v
}

// Init starts the cursor blink
func (v AuthView) Init() tea.Cmd {
	return textinput.Blink
}

// IsInputMode is always true: every key goes to the form
func (v AuthView) IsInputMode() bool { return true }

// SetSize updates the view dimensions
func (v AuthView) SetSize(width, height int) AuthView {
	v.width = width
	v.height = height
	return v
}

// Mode returns the active form
func (v AuthView) Mode() AuthMode { return v.mode }

func (v AuthView) firstField() int {
	if v.mode == AuthSignUp {
		return fieldName
	}
	return fieldEmail
}

func (v AuthView) fields() []int {
	if v.mode == AuthSignUp {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

func (v *AuthView) moveFocus(delta int) {
	fields := v.fields()
	pos := 0
	for i, f := range fields {
		if f == v.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	v.inputs[v.focus].Blur()
	v.focus = fields[pos]
	v.inputs[v.focus].Focus()
}

func (v *AuthView) switchMode() {
	if v.mode == AuthSignIn {
		v.mode = AuthSignUp
	} else {
		v.mode = AuthSignIn
	}
	v.inputs[v.focus].Blur()
	v.focus = v.firstField()
	v.inputs[v.focus].Focus()
	v.notice = ""
	v.invalid = ""
}

// validationText returns the message of a client-side validation error, or ""
func validationText(err error) string {
	if errors.Is(err, store.ErrValidation) {
		return err.Error()
	}
	return ""
}

// Update handles messages
func (v AuthView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signInDoneMsg:
		if msg.err != nil {
			v.invalid = validationText(msg.err)
			return v, nil
		}
		v.inputs[fieldPassword].SetValue("")
		return v, func() tea.Msg { return SignedInMsg{} }

	case signUpDoneMsg:
		if msg.err != nil {
			v.invalid = validationText(msg.err)
			return v, nil
		}
		email := v.inputs[fieldEmail].Value()
		v.switchMode()
		v.inputs[fieldEmail].SetValue(email)
		v.inputs[fieldPassword].SetValue("")
		v.inputs[v.focus].Blur()
		v.focus = fieldPassword
		v.inputs[v.focus].Focus()
		v.notice = "Account created. Sign in to continue."
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			v.moveFocus(1)
			return v, nil
		case "shift+tab", "up":
			v.moveFocus(-1)
			return v, nil
		case "ctrl+n":
			v.switchMode()
			return v, nil
		case "enter":
			if v.focus != fieldPassword {
				v.moveFocus(1)
				return v, nil
			}
			v.invalid = ""
			v.notice = ""
			return v, v.submit()
		}
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd
}

func (v AuthView) submit() tea.Cmd {
	sessions := v.sessions
	name := strings.TrimSpace(v.inputs[fieldName].Value())
	email := strings.TrimSpace(v.inputs[fieldEmail].Value())
	password := v.inputs[fieldPassword].Value()

	if v.mode == AuthSignUp {
		return func() tea.Msg {
			err := sessions.SignUp(context.Background(), api.Registration{Name: name, Email: email, Password: password})
			return signUpDoneMsg{err: err}
		}
	}
	return func() tea.Msg {
		err := sessions.SignIn(context.Background(), api.Credentials{Email: email, Password: password})
		return signInDoneMsg{err: err}
	}
}

// View renders the form
func (v AuthView) View() string {
	styles := theme.Current.Styles
	state := v.sessions.Snapshot()

	var b strings.Builder
	b.WriteString(styles.Title.Render(v.mode.String()))
	b.WriteString("\n")

	labels := []string{"Name", "Email", "Password"}
	for _, f := range v.fields() {
		b.WriteString(styles.Label.Render(labels[f]))
		b.WriteString("\n")
		style := styles.Input
		if f == v.focus {
			style = styles.InputFocused
		}
		b.WriteString(style.Render(v.inputs[f].View()))
		b.WriteString("\n")
	}

	switch {
	case v.invalid != "":
		b.WriteString(styles.Error.Render(v.invalid))
	case state.Loading:
		b.WriteString(styles.Status.Render("Please wait..."))
	case state.Error != "":
		b.WriteString(styles.Error.Render(state.Error))
	case v.notice != "":
		b.WriteString(styles.Status.Render(v.notice))
	}
	b.WriteString("\n\n")

	other := AuthSignUp
	if v.mode == AuthSignUp {
		other = AuthSignIn
	}
	b.WriteString(styles.HelpKey.Render("ctrl+n"))
	b.WriteString(styles.HelpDesc.Render(" " + strings.ToLower(other.String()) + " instead"))

	form := styles.Panel.Render(b.String())
	if v.width == 0 || v.height == 0 {
		return form
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, form)
}

func isValidation(err error) bool {
	return errors.Is(err, store.ErrValidation)
}
