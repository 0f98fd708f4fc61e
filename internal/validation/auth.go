package validation

import (
	"context"
	"regexp"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// UserExistence is the asynchronous lookup behind the advisory
// uniqueness pre-checks. The repository satisfies it.
type UserExistence interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RegisterSchema validates registration payloads. The uniqueness rules
// run last so storage is only consulted for well-formed values.
func RegisterSchema(users UserExistence, policy PasswordPolicy) Schema {
	return Schema{
		{
			Name:  "username",
			Label: "Username",
			Rules: []Rule{
				Required("Username"),
				String("Username"),
				MaxLen("Username", 255),
				Pattern(usernamePattern, "Username must only contains alphanumeric, dash, and underscore"),
				Unique("Username", users.ExistsByUsername),
			},
		},
		{
			Name:  "email",
			Label: "Email",
			Rules: []Rule{
				Required("Email"),
				String("Email"),
				MaxLen("Email", 255),
				Email("Email"),
				Unique("Email", users.ExistsByEmail),
			},
		},
		{
			Name:  "password",
			Label: "Password",
			Rules: []Rule{
				Required("Password"),
				String("Password"),
				Complexity("Password", policy),
			},
		},
		{
			Name:  "password_confirmation",
			Label: "Password Confirmation",
			Rules: []Rule{
				Required("Password Confirmation"),
				String("Password Confirmation"),
				EqualsField("password", "Password and Password Confirmation does not match"),
			},
		},
		{
			Name:  "is_active",
			Label: "is_active",
			Rules: []Rule{
				Required("is_active"),
				Boolean("is_active"),
			},
		},
		{
			Name:  "created_at",
			Label: "created_at",
			Rules: []Rule{
				Required("created_at"),
				Date("created_at"),
			},
		},
	}
}

// LoginSchema validates login payloads; no storage lookups here, login
// failures stay uniform.
func LoginSchema() Schema {
	return Schema{
		{
			Name:  "email",
			Label: "Email",
			Rules: []Rule{
				Required("Email"),
				String("Email"),
				MaxLen("Email", 255),
				Email("Email"),
			},
		},
		{
			Name:  "password",
			Label: "Password",
			Rules: []Rule{
				Required("Password"),
				String("Password"),
			},
		},
	}
}
