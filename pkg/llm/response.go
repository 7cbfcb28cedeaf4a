package llm

import (
	"errors"

	"github.com/tidwall/gjson"
)

// AnswerPath is the location of the answer text inside a generateContent response.
const AnswerPath = "candidates.0.content.parts.0.text"

// ErrMalformedResponse is returned when a response body is not valid JSON.
var ErrMalformedResponse = errors.New("malformed response body")

// ExtractAnswer looks up the answer text at AnswerPath.
// The boolean is false when any segment of the path is absent, the value is not
// a string, or the text is empty. Only a body that does not parse as JSON is an error.
func ExtractAnswer(body []byte) (string, bool, error) {
	if !gjson.ValidBytes(body) {
		return "", false, ErrMalformedResponse
	}

	res := gjson.GetBytes(body, AnswerPath)
	if !res.Exists() || res.Type != gjson.String || res.Str == "" {
		return "", false, nil
	}

	return res.Str, true, nil
}

// FinishReason returns the finish reason of the first candidate, if any.
func FinishReason(body []byte) string {
	return gjson.GetBytes(body, "candidates.0.finishReason").String()
}
