package types

import "encoding/json"

// ErrorBody is the JSON shape of every failed request. Fields are merged
// into the top level next to error/message.
type ErrorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details any            `json:"details,omitempty"`
	Fields  map[string]any `json:"-"`
}

// MarshalJSON flattens Fields into the object.
func (b ErrorBody) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Fields)+3)
	for k, v := range b.Fields {
		out[k] = v
	}
	out["error"] = b.Error
	if b.Message != "" {
		out["message"] = b.Message
	}
	if b.Details != nil {
		out["details"] = b.Details
	}
	return json.Marshal(out)
}

// OK is the minimal acknowledgement body.
type OK struct {
	OK bool `json:"ok"`
}
