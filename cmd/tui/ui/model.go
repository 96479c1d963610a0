package ui

import (
	"errors"

	"github.com/arnavchau/authd/cmd/tui/client"
	tea "github.com/charmbracelet/bubbletea"
)

type View int

const (
	LoginView View = iota
	SignupView
	ProfileView
)

type Model struct {
	currentView View
	login       *LoginModel
	signup      *SignupModel
	profile     *ProfileModel
	authClient  *client.AuthClient
	width       int
	height      int

	// Auth state. The token lives only in memory and is dropped on
	// logout or any 401 from the server.
	isAuthenticated bool
	token           string
}

func NewModel(authClient *client.AuthClient) Model {
	return Model{
		currentView: LoginView,
		login:       NewLoginModel(authClient),
		signup:      NewSignupModel(authClient),
		profile:     NewProfileModel(authClient),
		authClient:  authClient,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loginSuccessMsg:
		updatedLogin, _ := m.login.Update(msg)
		m.login = updatedLogin.(*LoginModel)
		m.isAuthenticated = true
		m.token = msg.token
		m.profile.SetToken(msg.token)
		m.currentView = ProfileView
		return m, m.profile.Load()

	case signupSuccessMsg:
		// Registration does not issue a token; sign in afterwards.
		m.currentView = LoginView
		m.login.SetNotice("account created, please sign in")
		updatedSignup, _ := m.signup.Update(msg)
		m.signup = updatedSignup.(*SignupModel)
		return m, nil

	case profileErrorMsg:
		if errors.Is(msg.err, client.ErrUnauthorized) {
			m.logout()
			m.login.SetNotice("session expired, please sign in again")
			return m, nil
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "ctrl+s":
			// Toggle between login and signup
			if m.currentView == LoginView {
				m.currentView = SignupView
				return m, nil
			} else if m.currentView == SignupView {
				m.currentView = LoginView
				return m, nil
			}

		case "ctrl+d":
			if m.currentView == ProfileView {
				m.logout()
				m.login.SetNotice("signed out")
				return m, nil
			}
		}
	}

	switch m.currentView {
	case LoginView:
		updatedLogin, cmd := m.login.Update(msg)
		m.login = updatedLogin.(*LoginModel)
		return m, cmd

	case SignupView:
		updatedSignup, cmd := m.signup.Update(msg)
		m.signup = updatedSignup.(*SignupModel)
		return m, cmd

	case ProfileView:
		updatedProfile, cmd := m.profile.Update(msg)
		m.profile = updatedProfile.(*ProfileModel)
		return m, cmd
	}

	return m, nil
}

func (m *Model) logout() {
	m.isAuthenticated = false
	m.token = ""
	m.profile.SetToken("")
	m.currentView = LoginView
}

func (m Model) View() string {
	switch m.currentView {
	case LoginView:
		return m.login.View()
	case SignupView:
		return m.signup.View()
	case ProfileView:
		return m.profile.View()
	}
	return ""
}
