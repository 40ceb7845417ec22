package ai

// Tool is an augmentation capability granted to a single generation call.
type Tool string

const ToolWebSearch Tool = "web_search"

// Part is one piece of the user turn: either text or inline binary data.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// IsInline reports whether the part carries binary data.
func (p Part) IsInline() bool { return len(p.Data) > 0 }

// Request is a provider-neutral generation request.
type Request struct {
	Model             string
	SystemInstruction string
	Tools             []Tool
	Schema            *Schema
	Parts             []Part
	Temperature       float32
}

// HasTool reports whether t is enabled for this request.
func (r *Request) HasTool(t Tool) bool {
	for _, x := range r.Tools {
		if x == t {
			return true
		}
	}
	return false
}
