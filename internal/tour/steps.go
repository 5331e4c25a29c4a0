package tour

// Tab names one of the client's top-level views.
type Tab string

// Client tabs.
const (
	TeachBack  Tab = "teach-back"
	ChatHelper Tab = "chat-helper"
	LiveQA     Tab = "live-qa"
)

// Tabs lists the tabs in display order.
func Tabs() []Tab {
	return []Tab{TeachBack, ChatHelper, LiveQA}
}

// Label returns the tab caption.
func (t Tab) Label() string {
	switch t {
	case TeachBack:
		return "Teach-Back"
	case ChatHelper:
		return "Chat Helper"
	case LiveQA:
		return "Live Q&A"
	}
	return string(t)
}

// Step is one stop on the tour. RequiredTab is empty when the anchor is
// visible from every tab.
type Step struct {
	ID          string
	RequiredTab Tab
	AnchorID    string
	Title       string
	Content     string
}

var script = []Step{
	{ID: "welcome", AnchorID: "body", Title: "Welcome",
		Content: "Welcome to the Teach-Back Engine! Let's take a quick tour of how it works."},
	{ID: "input", RequiredTab: TeachBack, AnchorID: "input-area", Title: "Your instructions",
		Content: "You start here. For this demo, I've added some sample medical instructions."},
	{ID: "input-tools", RequiredTab: TeachBack, AnchorID: "input-buttons", Title: "Input tools",
		Content: "You can also use these buttons to dictate instructions, listen to the text, or upload a PDF."},
	{ID: "generate", RequiredTab: TeachBack, AnchorID: "generate-button", Title: "Generate",
		Content: "After providing text, you'd click this button. For our tour, the results are already generated below."},
	{ID: "simplified", RequiredTab: TeachBack, AnchorID: "simplified-text-card", Title: "Plain language",
		Content: "This is the simplified version of the instructions, written in plain language. Any safety warnings are flagged here."},
	{ID: "quiz", RequiredTab: TeachBack, AnchorID: "quiz-card", Title: "Check your understanding",
		Content: "Next, you take a short quiz to check your understanding of the most important points."},
	{ID: "metrics", RequiredTab: TeachBack, AnchorID: "metrics-footer", Title: "Progress",
		Content: "This footer tracks your progress, showing the reading level, your quiz attempts, and how long it takes to master the material."},
	{ID: "tabs", AnchorID: "tabs", Title: "More help",
		Content: "Beyond the main Teach-Back tool, you have other ways to get help. Let's look at the Chat Helper next."},
	{ID: "chat", RequiredTab: ChatHelper, AnchorID: "chat-helper-content", Title: "Chat Helper",
		Content: "The Chat Helper is perfect for asking specific questions about words or phrases you don't understand."},
	{ID: "live-tab", AnchorID: "live-qa-tab", Title: "Live Q&A",
		Content: "Now let's check out the Live Q&A."},
	{ID: "live", RequiredTab: LiveQA, AnchorID: "live-qa-content", Title: "Talk it through",
		Content: "For a more natural conversation, you can use Live Q&A to talk directly with the AI assistant using your voice."},
	{ID: "session", RequiredTab: TeachBack, AnchorID: "session-buttons", Title: "Save your progress",
		Content: "Finally, remember you can save your progress and load it later, or clear everything to start fresh. Enjoy the app!"},
}

// Steps returns the tour script.
func Steps() []Step {
	return append([]Step(nil), script...)
}
