package backend

import "encoding/json"

// UnwrapEnvelope normalizes the backend's two response shapes, {data: T} and
// bare T, into the inner value. This is the single place that knows about the
// envelope; everything downstream works with the unwrapped object.
func UnwrapEnvelope(body []byte) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return body
}
