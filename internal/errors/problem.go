package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

const problemContentType = "application/problem+json"

// ProblemDetails is an RFC 7807 problem document. Extensions are flattened
// into the top-level object next to the standard members.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// NewProblemDetails builds a problem. An empty title defaults to the status text.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	if title == "" {
		title = http.StatusText(status)
	}
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension sets an extension member. Keys naming a standard member are ignored.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if isStandardMember(key) {
		return pd
	}
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

// Render sets the status and the problem media type for render.Render.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", problemContentType)
	render.Status(r, pd.Status)
	return nil
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		if !isStandardMember(k) {
			doc[k] = v
		}
	}
	doc["type"] = pd.Type
	doc["title"] = pd.Title
	doc["status"] = pd.Status
	if pd.Detail != "" {
		doc["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		doc["instance"] = pd.Instance
	}
	return json.Marshal(doc)
}

// UnmarshalJSON is the inverse of MarshalJSON; unknown members land in Extensions.
func (pd *ProblemDetails) UnmarshalJSON(data []byte) error {
	type standard ProblemDetails
	var std standard
	if err := json.Unmarshal(data, &std); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*pd = ProblemDetails(std)
	pd.Extensions = make(map[string]interface{})
	for k, raw := range all {
		if isStandardMember(k) {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		pd.Extensions[k] = v
	}
	return nil
}

func isStandardMember(key string) bool {
	switch key {
	case "type", "title", "status", "detail", "instance":
		return true
	}
	return false
}
