package patient

import "time"

// Patient is the durable record filled in over one or more intake sessions.
type Patient struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Sex            string    `json:"sex"`
	Operation      string    `json:"operation"`
	CFS            string    `json:"cfs"`
	MedicalHistory string    `json:"medical_history"`
	Worry          string    `json:"worry"`
	CreatedAt      time.Time `json:"created_at"`
}

// IntakeComplete reports whether every intake field has been populated,
// making the record eligible for free-form Q&A.
func (p Patient) IntakeComplete() bool {
	return p.Name != "" && p.Sex != "" && p.Operation != "" &&
		p.CFS != "" && p.MedicalHistory != "" && p.Worry != ""
}

// Category tags a conversation log entry.
type Category string

const (
	// CategoryUser and CategoryBot record individual intake-flow turns.
	CategoryUser Category = "user"
	CategoryBot  Category = "bot"
	// CategoryChat records a free-form question and its generated answer
	// as a single paired entry.
	CategoryChat Category = "chat"
	// CategorySummary records the generated intake recap.
	CategorySummary Category = "summary"
)

// LogEntry is one immutable conversation log record. For user turns only
// Message is set, for bot turns only Response; chat entries carry both.
type LogEntry struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Category  Category  `json:"category"`
	Message   string    `json:"message,omitempty"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SelfPayItem is an optional paid service selected by a patient.
type SelfPayItem struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	SelectedAt time.Time `json:"selected_at"`
}

// IntakeUpdate carries the fields committed onto a bound patient record
// when the structured intake completes. Name is set at resolution time
// and is not part of the commit.
type IntakeUpdate struct {
	Age            int
	Sex            string
	Operation      string
	CFS            string
	MedicalHistory string
	Worry          string
}
