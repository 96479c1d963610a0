package ui

import (
	"fmt"
	"strings"

	"github.com/arnavchau/authd/cmd/tui/client"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginSuccessMsg struct {
	token string
}

type loginErrorMsg struct {
	err error
}

type LoginModel struct {
	emailInput    string
	passwordInput string
	focusedInput  int
	loading       bool
	notice        string
	err           error
	authClient    *client.AuthClient
}

func NewLoginModel(c *client.AuthClient) *LoginModel {
	return &LoginModel{
		focusedInput: 0,
		authClient:   c,
	}
}

func (m *LoginModel) Init() tea.Cmd {
	return nil
}

// SetNotice shows a one-shot status line, e.g. after a successful signup.
func (m *LoginModel) SetNotice(notice string) {
	m.notice = notice
}

func loginCmd(c *client.AuthClient, email, password string) tea.Cmd {
	return func() tea.Msg {
		token, err := c.Login(email, password)
		if err != nil {
			return loginErrorMsg{err: err}
		}
		return loginSuccessMsg{token: token}
	}
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginSuccessMsg:
		m.loading = false
		m.err = nil
		return m, nil

	case loginErrorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "tab", "shift+tab":
			m.focusedInput = (m.focusedInput + 1) % 2
		case "enter":
			if m.emailInput == "" {
				m.err = fmt.Errorf("email cannot be empty")
				return m, nil
			}
			if m.passwordInput == "" {
				m.err = fmt.Errorf("password cannot be empty")
				return m, nil
			}

			m.loading = true
			m.err = nil
			m.notice = ""
			return m, loginCmd(m.authClient, m.emailInput, m.passwordInput)
		case "backspace":
			if m.focusedInput == 0 && len(m.emailInput) > 0 {
				m.emailInput = m.emailInput[:len(m.emailInput)-1]
			} else if m.focusedInput == 1 && len(m.passwordInput) > 0 {
				m.passwordInput = m.passwordInput[:len(m.passwordInput)-1]
			}
		case "ctrl+l":
			m.emailInput = ""
			m.passwordInput = ""
			m.err = nil
		default:
			if len(msg.String()) == 1 {
				if m.focusedInput == 0 {
					m.emailInput += msg.String()
				} else {
					m.passwordInput += msg.String()
				}
			}
		}
	}
	return m, nil
}

func (m *LoginModel) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		Render("🔐 LOGIN")

	subtitle := lipgloss.NewStyle().
		Foreground(Muted).
		Render("Welcome back! Please sign in to continue.")

	b.WriteString(lipgloss.NewStyle().
		Width(80).
		Align(lipgloss.Center).
		MarginTop(2).
		Render(title))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(80).
		Align(lipgloss.Center).
		MarginBottom(3).
		Render(subtitle))
	b.WriteString("\n\n")

	b.WriteString(renderField("Email:", m.emailInput, m.focusedInput == 0))
	b.WriteString("\n\n")
	b.WriteString(renderField("Password:", strings.Repeat("•", len(m.passwordInput)), m.focusedInput == 1))
	b.WriteString("\n\n")

	if m.loading {
		loading := InfoStyle.Render("🔄 Logging in...")
		b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(loading))
		b.WriteString("\n")
	}

	if m.notice != "" {
		notice := SuccessStyle.Render("✔ " + m.notice)
		b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(notice))
		b.WriteString("\n")
	}

	if m.err != nil {
		errMsg := ErrorStyle.Render("❌ " + m.err.Error())
		b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := InfoStyle.Render("tab switch  •  enter login  •  ctrl+l clear  •  ctrl+s signup  •  q quit")
	b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(help))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(2, 4).
		Width(76).
		Render(b.String())
}

func renderField(label, value string, focused bool) string {
	fieldLabel := LabelStyle.Width(15).Render(label)

	style := InputStyle
	if focused {
		style = FocusedInputStyle
	}
	fieldValue := style.Width(50).Render(value)

	field := lipgloss.JoinHorizontal(lipgloss.Left, fieldLabel, fieldValue)
	return lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(field)
}
