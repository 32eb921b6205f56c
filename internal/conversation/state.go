package conversation

import "time"

// Step is the intake cursor. Steps advance strictly in declaration order;
// StepChat is terminal and absorbs every later message.
type Step string

const (
	StepName           Step = "name"
	StepAge            Step = "age"
	StepSex            Step = "sex"
	StepOperation      Step = "operation"
	StepCFS            Step = "cfs"
	StepMedicalHistory Step = "medical_history"
	StepWorry          Step = "worry"
	StepChat           Step = "chat"
)

var stepOrder = []Step{
	StepName, StepAge, StepSex, StepOperation,
	StepCFS, StepMedicalHistory, StepWorry, StepChat,
}

// Next returns the step following s. StepChat returns itself.
func (s Step) Next() Step {
	for i, step := range stepOrder {
		if step == s && i+1 < len(stepOrder) {
			return stepOrder[i+1]
		}
	}
	return StepChat
}

// Answers holds the normalized values collected during intake. Fields are
// set once per session and never cleared.
type Answers struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Sex            string `json:"sex"`
	Operation      string `json:"operation"`
	CFS            string `json:"cfs"`
	MedicalHistory string `json:"medical_history"`
	Worry          string `json:"worry"`
}

// State is the per-conversation intake cursor. Mutated only by the intake
// engine while the conversation's turn lock is held.
type State struct {
	ID             string    `json:"conversation_id"`
	Step           Step      `json:"step"`
	Answers        Answers   `json:"answers"`
	PatientID      string    `json:"patient_id,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
