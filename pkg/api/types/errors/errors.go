package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorMessage is the body the platform API sends with a non-2xx status.
type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	See    string `json:"see,omitempty"`
}

func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Reason *string `json:"reason"`
		Advice *string `json:"advice,omitempty"`
		See    *string `json:"see,omitempty"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}

	if f.Reason == nil {
		return fmt.Errorf(`required field missing: "reason"`)
	}
	em.Reason = *f.Reason

	if f.Advice != nil {
		em.Advice = *f.Advice
	}
	if f.See != nil {
		em.See = *f.See
	}

	return nil
}

func (e ErrorMessage) String() string {
	lines := []string{e.Reason}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	if e.See != "" {
		lines = append(lines, "see: "+e.See)
	}
	return strings.Join(lines, "\n")
}

// Parse reads an ErrorMessage from a response body.
//
// Bodies shaped {"message": "..."} are accepted too, and used as the reason.
func Parse(body []byte) (ErrorMessage, bool) {
	em := ErrorMessage{}
	if err := json.Unmarshal(body, &em); err == nil {
		return em, true
	}

	msg := struct {
		Message *string `json:"message"`
	}{}
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != nil {
		return ErrorMessage{Reason: *msg.Message}, true
	}

	return ErrorMessage{}, false
}
