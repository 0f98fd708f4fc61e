package validation

import (
	"context"
	"fmt"
	"regexp"
	"time"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Required fails on absent, nil, or empty-string values.
func Required(label string) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		if value == nil {
			return fmt.Sprintf("%s is required", label), nil
		}
		if s, ok := value.(string); ok && s == "" {
			return fmt.Sprintf("%s is required", label), nil
		}
		return "", nil
	}
}

// String fails present non-string values so later rules in the chain
// only ever see well-typed input.
func String(label string) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("%s must be a string", label), nil
		}
		return "", nil
	}
}

// MaxLen bounds string length. Non-string values are left for the
// type-specific rules to reject.
func MaxLen(label string, max int) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		if s, ok := value.(string); ok && len(s) > max {
			return fmt.Sprintf("%s length must be less than or equal to %d characters long", label, max), nil
		}
		return "", nil
	}
}

// Pattern fails with the supplied message when the value does not match.
func Pattern(re *regexp.Regexp, message string) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		if s, ok := value.(string); ok && !re.MatchString(s) {
			return message, nil
		}
		return "", nil
	}
}

func Email(label string) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		if s, ok := value.(string); ok && !emailPattern.MatchString(s) {
			return fmt.Sprintf("%s must be a valid email", label), nil
		}
		return "", nil
	}
}

func Boolean(label string) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("%s must be a boolean", label), nil
		}
		return "", nil
	}
}

// Date accepts RFC 3339 timestamps and plain dates.
func Date(label string) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s must be a valid date", label), nil
		}
		if _, err := ParseDate(s); err != nil {
			return fmt.Sprintf("%s must be a valid date", label), nil
		}
		return "", nil
	}
}

// EqualsField fails with the supplied message when the value differs
// from another payload field. Only strings can match; comparing raw
// decoded values would panic on non-comparable JSON types.
func EqualsField(other string, message string) Rule {
	return func(_ context.Context, payload map[string]any, value any) (string, error) {
		s, ok := value.(string)
		o, otherOK := payload[other].(string)
		if !ok || !otherOK || s != o {
			return message, nil
		}
		return "", nil
	}
}

// Unique is the asynchronous existence check: exists reports whether the
// value is already taken, hitting storage to find out.
func Unique(label string, exists func(ctx context.Context, value string) (bool, error)) Rule {
	return func(ctx context.Context, _ map[string]any, value any) (string, error) {
		s, ok := value.(string)
		if !ok {
			return "", nil
		}
		taken, err := exists(ctx, s)
		if err != nil {
			return "", fmt.Errorf("check %s uniqueness: %w", label, err)
		}
		if taken {
			return fmt.Sprintf("%s already been taken", label), nil
		}
		return "", nil
	}
}

// ParseDate parses the formats Date accepts.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// PasswordPolicy is the pluggable complexity policy applied to new
// passwords.
type PasswordPolicy struct {
	MinLength        int
	RequireLowercase bool
	RequireUppercase bool
	RequireNumber    bool
	RequireSymbol    bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireLowercase: true,
		RequireUppercase: true,
		RequireNumber:    true,
		RequireSymbol:    true,
	}
}

// Complexity enforces the policy, reporting the first unmet requirement.
func Complexity(label string, policy PasswordPolicy) Rule {
	return func(_ context.Context, _ map[string]any, value any) (string, error) {
		s, ok := value.(string)
		if !ok {
			return "", nil
		}

		var hasLower, hasUpper, hasNumber, hasSymbol bool
		for _, r := range s {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasNumber = true
			default:
				hasSymbol = true
			}
		}

		switch {
		case len(s) < policy.MinLength:
			return fmt.Sprintf("%s must contain at least %d characters", label, policy.MinLength), nil
		case policy.RequireLowercase && !hasLower:
			return fmt.Sprintf("%s must contain at least 1 lowercase letter", label), nil
		case policy.RequireUppercase && !hasUpper:
			return fmt.Sprintf("%s must contain at least 1 uppercase letter", label), nil
		case policy.RequireNumber && !hasNumber:
			return fmt.Sprintf("%s must contain at least 1 number", label), nil
		case policy.RequireSymbol && !hasSymbol:
			return fmt.Sprintf("%s must contain at least 1 symbol", label), nil
		}

		return "", nil
	}
}
