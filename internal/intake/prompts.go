package intake

import (
	"fmt"

	"github.com/yctsai/anesconsult/internal/conversation"
)

// Fixed dialog texts. The assistant speaks Traditional Chinese; texts are
// matched against the deployed question flow and must not drift casually.
const (
	// Greeting is the name-step prompt a client shows when a conversation
	// opens; the first user message is already processed at the name step.
	Greeting = "您好！我是麻醉諮詢助手。為了更好地為您服務，請告訴我您的姓名。"

	// AgeQuestionFormat personalizes the age question with the resolved name.
	AgeQuestionFormat = "您好，%s！請問您的年齡是？"

	// ChatInvite is appended to the intake summary when free-form Q&A opens.
	ChatInvite = "\n\n您可以問我關於麻醉的問題，我會盡力為您解答。"

	// RetryMessage is returned when a durable write fails mid-intake.
	RetryMessage = "抱歉，系統發生錯誤，請再傳送一次。"

	// Apology is the fixed response for any free-form turn failure.
	Apology = "抱歉，我現在無法回答您的問題。請稍後再試。"

	// NoProfileMessage is returned when a chat turn arrives without a bound
	// patient record.
	NoProfileMessage = "抱歉，找不到您的病人資料。請重新開始對話。"
)

// questions holds the fixed prompt asked when the cursor reaches each step.
// The age question is personalized and handled separately.
var questions = map[conversation.Step]string{
	conversation.StepName:           Greeting,
	conversation.StepSex:            "請問您的性別是？（男/女）",
	conversation.StepOperation:      "請問您預計要進行什麼手術？",
	conversation.StepCFS:            "您是否能夠自行外出，不需要他人協助？（是/否）",
	conversation.StepMedicalHistory: "請問您有什麼重要的病史嗎？例如：高血壓、糖尿病、心臟病等。如果沒有，請回答「無」",
	conversation.StepWorry:          "您最擔心什麼？您可以點選或輸入您的擔憂。如果沒有特別擔心的，請點選「沒有特別擔心」。",
}

// reprompts holds the per-step validation failure texts.
var reprompts = map[conversation.Step]string{
	conversation.StepName:           "請告訴我您的姓名。",
	conversation.StepSex:            "抱歉，請選擇「男」或「女」",
	conversation.StepOperation:      "請告訴我您預計要進行的手術。",
	conversation.StepMedicalHistory: "請告訴我您的病史，如果沒有請回答「無」。",
	conversation.StepWorry:          "請告訴我您的擔憂，如果沒有特別擔心的，請點選「沒有特別擔心」。",
}

const (
	ageNotANumber = "抱歉，我沒有理解您的年齡，請直接輸入數字，例如：25"
	ageOutOfRange = "請輸入有效的年齡（0-150歲）"
)

// Question returns the fixed prompt text for a step.
func Question(step conversation.Step) string {
	return questions[step]
}

// PendingPrompt returns the question currently awaiting an answer, so a
// client can restore its view of the conversation. Empty once free-form
// chat is open.
func PendingPrompt(state conversation.State) string {
	if state.Step == conversation.StepAge {
		return fmt.Sprintf(AgeQuestionFormat, state.Answers.Name)
	}
	return questions[state.Step]
}
