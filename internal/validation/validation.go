package validation

import "context"

// Errors maps a field path to its first failing rule's message.
type Errors map[string]string

// Rule checks one value from the decoded payload. A non-empty message
// fails the field. A non-nil error means the rule itself could not run
// (for example the uniqueness lookup hit the database and failed) and
// aborts validation entirely.
type Rule func(ctx context.Context, payload map[string]any, value any) (string, error)

// Field pairs a payload field with its ordered rule set.
type Field struct {
	Name  string
	Label string
	Rules []Rule
}

// Schema is an ordered list of field rule sets. Validation never short
// circuits across fields: every field is evaluated and all failures are
// collected before reporting. Within a single field, rules stop at the
// first failure so later rules (like uniqueness lookups) only run on
// well-formed input.
type Schema []Field

func (s Schema) Validate(ctx context.Context, payload map[string]any) (Errors, error) {
	collected := Errors{}

	for _, field := range s {
		value := payload[field.Name]
		for _, rule := range field.Rules {
			message, err := rule(ctx, payload, value)
			if err != nil {
				return nil, err
			}
			if message != "" {
				collected[field.Name] = message
				break
			}
		}
	}

	if len(collected) == 0 {
		return nil, nil
	}
	return collected, nil
}
