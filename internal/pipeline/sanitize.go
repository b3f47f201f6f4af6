package pipeline

import "github.com/microcosm-cc/bluemonday"

// NewResumePolicy returns a user-generated-content policy that also keeps
// the class and id attributes resume themes and highlighted code select on.
func NewResumePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "id").Globally()
	p.AllowElements("section", "header", "footer", "aside", "div", "span")
	return p
}
