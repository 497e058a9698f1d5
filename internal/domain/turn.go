package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageID is the opaque id the backend assigns to an assistant answer.
type MessageID string

type Turn struct {
	Role      Role
	Content   string
	MessageID MessageID
}

func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}
