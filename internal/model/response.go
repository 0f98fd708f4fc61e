package model

// APIResponse is the uniform envelope for every response, success or
// failure. Errors is present only on field-validation failures, keyed
// by field path.
type APIResponse struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}
