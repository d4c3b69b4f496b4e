package util

import "encoding/json"

// ConvertStructToJson marshals v to a JSON string, returning "{}" on failure
// so the result can always be embedded in a message body.
func ConvertStructToJson(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
