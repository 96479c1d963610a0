package ui

import (
	"strings"
	"time"

	"github.com/arnavchau/authd/cmd/tui/client"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type profileLoadedMsg struct {
	profile *client.Profile
}

type profileErrorMsg struct {
	err error
}

type ProfileModel struct {
	profile    *client.Profile
	loading    bool
	loaded     bool
	err        error
	token      string
	authClient *client.AuthClient
}

func NewProfileModel(c *client.AuthClient) *ProfileModel {
	return &ProfileModel{authClient: c}
}

func (m *ProfileModel) Init() tea.Cmd {
	return nil
}

func (m *ProfileModel) SetToken(token string) {
	m.token = token
	m.loaded = false
	m.profile = nil
}

// Load kicks off a fetch for the current token.
func (m *ProfileModel) Load() tea.Cmd {
	m.loading = true
	m.loaded = false
	return loadProfileCmd(m.authClient, m.token)
}

func loadProfileCmd(c *client.AuthClient, token string) tea.Cmd {
	return func() tea.Msg {
		profile, err := c.Profile(token)
		if err != nil {
			return profileErrorMsg{err: err}
		}
		return profileLoadedMsg{profile: profile}
	}
}

func (m *ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		m.loading = false
		m.loaded = true
		m.err = nil
		m.profile = msg.profile
		return m, nil

	case profileErrorMsg:
		m.loading = false
		m.loaded = true
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" && !m.loading {
			m.loading = true
			return m, loadProfileCmd(m.authClient, m.token)
		}
	}

	if !m.loaded && !m.loading && m.token != "" {
		m.loading = true
		return m, loadProfileCmd(m.authClient, m.token)
	}

	return m, nil
}

func (m *ProfileModel) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		Render("👤 PROFILE")

	b.WriteString(lipgloss.NewStyle().
		Width(80).
		Align(lipgloss.Center).
		MarginTop(2).
		MarginBottom(2).
		Render(title))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).
			Render(InfoStyle.Render("🔄 Loading profile...")))
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).
			Render(ErrorStyle.Render("❌ " + m.err.Error())))
	case m.profile != nil:
		rows := []string{
			lipgloss.JoinHorizontal(lipgloss.Left, LabelStyle.Render("Name"), ValueStyle.Render(m.profile.Name)),
			lipgloss.JoinHorizontal(lipgloss.Left, LabelStyle.Render("Email"), ValueStyle.Render(m.profile.Email)),
			lipgloss.JoinHorizontal(lipgloss.Left, LabelStyle.Render("User ID"), ValueStyle.Render(m.profile.ID)),
		}
		if !m.profile.CreatedAt.IsZero() {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
				LabelStyle.Render("Member since"),
				ValueStyle.Render(m.profile.CreatedAt.Format(time.DateOnly))))
		}

		card := BoxStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
		b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(card))
	}

	b.WriteString("\n\n")
	help := InfoStyle.Render("r refresh  •  ctrl+d logout  •  q quit")
	b.WriteString(lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(help))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(2, 4).
		Width(76).
		Render(b.String())
}
