package event

type Type string

const (
	TypeUserRegistered Type = "user.registered"
	TypeUserLoggedIn   Type = "user.logged_in"
	TypeTokenRefreshed Type = "token.refreshed"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	UserUUID  string `json:"user_uuid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
