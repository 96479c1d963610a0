package events

// Auth event types recorded by the audit pipeline.
const (
	TypeRegister    = "register"
	TypeLoginOK     = "login_ok"
	TypeLoginFailed = "login_failed"
)

type AuthEvent struct {
	Type      string
	UserID    string
	Email     string
	Timestamp int64
	IP        string
	UserAgent string
}
