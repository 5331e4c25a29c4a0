package teachback

// SampleInput is the discharge note used by the guided tour.
const SampleInput = `
Patient: John Doe, DOB: 01/15/1965
Discharge Instructions for Atrial Fibrillation

Medication:
- Eliquis (apixaban) 5 mg tablet. Take one tablet by mouth twice daily. This is an anticoagulant to prevent stroke. Do not stop taking this without consulting your cardiologist.
- Metoprolol Succinate ER 50 mg tablet. Take one tablet by mouth once daily. This is a beta-blocker to control your heart rate.

Follow-up:
- Schedule an appointment with Dr. Smith (Cardiology) in 4 weeks.
- Obtain an outpatient lab draw for a basic metabolic panel (BMP) and complete blood count (CBC) in 2 weeks.

Warning Signs:
- Seek immediate medical attention for signs of major bleeding, such as red or black tarry stools, severe headache, or coughing up blood.
- Contact our office if you experience increased shortness of breath, dizziness, fainting, or chest pain.
`

// DemoClassification returns the canned classifier result for SampleInput.
func DemoClassification() ClassificationResult {
	return ClassificationResult{
		Context:    Discharge,
		Confidence: 0.94,
		TopK: []LabelScore{
			{Label: Discharge, Score: 0.94},
			{Label: Prescription, Score: 0.41},
			{Label: Lab, Score: 0.12},
		},
		UnknownReasons: []string{},
	}
}

// DemoContent returns the canned teach-back content for SampleInput.
// Each call returns a fresh copy.
func DemoContent() Content {
	return Content{
		Context:           Discharge,
		SimplifiedText:    demoSimplifiedText,
		ReadingGradeAfter: 7,
		QA: []QAItem{
			{
				Question:           "How many times a day should you take your Eliquis (apixaban) pill?",
				CorrectAnswer:      "Twice a day",
				Distractors:        []string{"Once a day", "Only when my heart feels fast"},
				ConceptTag:         "dosing",
				RationaleCorrect:   "The instructions clearly state to take one tablet twice daily. This is crucial for preventing strokes.",
				RationaleIncorrect: "Taking it once a day is incorrect and would not be effective. You must take it every day as scheduled, not just based on symptoms.",
			},
			{
				Question:           "Which of these is a reason to get medical help immediately?",
				CorrectAnswer:      "Coughing up blood",
				Distractors:        []string{"You need to schedule a follow-up appointment", "Feeling a little tired"},
				ConceptTag:         "warning signs",
				RationaleCorrect:   "Coughing up blood is a sign of major bleeding, which is a serious side effect of Eliquis and requires immediate attention.",
				RationaleIncorrect: "Scheduling an appointment is a normal follow-up action, not an emergency. Feeling tired can be a side effect, but is not a reason for immediate help unless it's severe.",
			},
			{
				Question:           "When should you get your blood tests done?",
				CorrectAnswer:      "In 2 weeks",
				Distractors:        []string{"In 4 weeks, at your follow-up appointment", "You don't need any blood tests"},
				ConceptTag:         "follow-up",
				RationaleCorrect:   "The instructions specify getting the lab work done in 2 weeks, which is before your 4-week follow-up appointment.",
				RationaleIncorrect: "The appointment is in 4 weeks, but the tests are needed sooner. The instructions explicitly state that blood tests are required.",
			},
		},
		Remediation: Remediation{
			IfWrong: "Let's review the key points. It's very important to take your medicine exactly as prescribed and to know when to seek help for serious problems.",
			Examples: []string{
				"For example, taking Eliquis twice a day is not optional; it's what protects you from a stroke.",
				"A sign of bleeding, like red or black stool, is an emergency. A regular follow-up is not an emergency.",
			},
		},
		SafetyFlags: SafetyFlags{
			UrgentContact:             true,
			ContraindicationMentioned: false,
			RedFlags: []string{
				"major bleeding",
				"red or black tarry stools",
				"severe headache",
				"coughing up blood",
				"shortness of breath",
				"dizziness",
				"fainting",
				"chest pain",
			},
		},
		Domain: Domain{
			Discharge: &DischargeDetails{
				Followups: []string{
					"See Dr. Smith (Cardiology) in 4 weeks",
					"Blood tests (BMP and CBC) in 2 weeks",
				},
				MedChanges: []string{
					"Start Eliquis (apixaban) 5 mg twice daily",
					"Start Metoprolol Succinate ER 50 mg once daily",
				},
				WhenToCall: []string{
					"Signs of major bleeding: red or black tarry stools, severe headache, coughing up blood",
					"More shortness of breath, dizziness, fainting, or chest pain",
				},
				ActivityRestrictions: []string{},
			},
		},
	}
}

const demoSimplifiedText = "Here is a simpler way to understand your instructions for Atrial Fibrillation.\n\n" +
	"**Your Medicines:**\n\n" +
	"*   **Eliquis (apixaban) 5 mg:** Take one pill two times every day. This is a blood thinner that helps prevent strokes. It is very important that you do not stop taking this medicine unless your heart doctor tells you to.\n" +
	"*   **Metoprolol Succinate ER 50 mg:** Take one pill one time every day. This medicine helps keep your heart from beating too fast.\n\n" +
	"**Next Steps:**\n\n" +
	"*   You need to see your heart doctor, Dr. Smith, in about one month.\n" +
	"*   You also need to get some blood tests done in two weeks. These are called a BMP and a CBC.\n\n" +
	"**When to Get Help Right Away:**\n\n" +
	"You must get help immediately if you see signs of serious bleeding. This includes:\n\n" +
	"*   Your stool is red or looks like black tar.\n" +
	"*   You have a very bad headache.\n" +
	"*   You cough up blood.\n\n" +
	"Also, please call the doctor's office if you feel more out of breath, dizzy, feel like you might faint, or have chest pain."

// DemoChat returns the canned chat transcript shown during the tour.
func DemoChat() []Utterance {
	return []Utterance{
		{Role: RoleModel, Text: "Hello! This is a demo of the Chat Helper. I can help explain medical terms."},
		{Role: RoleUser, Text: `What does "anticoagulant" mean?`},
		{Role: RoleModel, Text: `An anticoagulant is a type of medicine often called a "blood thinner." It helps prevent blood clots from forming, which is very important for conditions like Atrial Fibrillation to reduce the risk of a stroke.`},
	}
}

// DemoLiveTranscript returns the canned live Q&A transcript shown during the tour.
func DemoLiveTranscript() []Utterance {
	return []Utterance{
		{Role: RoleUser, Text: "Can you remind me what a beta-blocker does?"},
		{Role: RoleModel, Text: "Of course. A beta-blocker is a medication that helps your heart beat more slowly and with less force. In your case, it's used to help control your heart rate."},
	}
}
