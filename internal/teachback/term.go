package teachback

// Role identifies the speaker of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Utterance is one plain conversation line.
type Utterance struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Term is a glossary entry or a structured chat definition.
type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}
