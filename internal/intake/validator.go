package intake

import (
	"strconv"
	"strings"

	"github.com/yctsai/anesconsult/internal/conversation"
)

// Value is the normalized answer for one intake step. Age is meaningful
// only for the age step; every other step normalizes to Text.
type Value struct {
	Text string
	Age  int
}

// Result is the outcome of validating raw input at a step: either OK with
// the normalized value, or a re-prompt to show the user. Rejection is a
// value, not an error; the caller leaves the cursor untouched.
type Result struct {
	OK       bool
	Value    Value
	Reprompt string
}

func accept(v Value) Result    { return Result{OK: true, Value: v} }
func reject(msg string) Result { return Result{Reprompt: msg} }

// cfsAffirmative are the tokens treated as "can go out unassisted".
// Anything else, including unrecognized input, normalizes to 否.
var cfsAffirmative = map[string]struct{}{
	"是":  {},
	"yes": {},
	"y":   {},
	"可以": {},
}

// Validate checks raw user text against the rules for step and produces a
// normalized value or a re-prompt. Pure function; no side effects.
func Validate(step conversation.Step, raw string) Result {
	trimmed := strings.TrimSpace(raw)

	switch step {
	case conversation.StepName:
		if trimmed == "" {
			return reject(reprompts[step])
		}
		return accept(Value{Text: trimmed})

	case conversation.StepAge:
		text := strings.TrimSpace(strings.TrimSuffix(trimmed, "歲"))
		age, err := strconv.Atoi(text)
		if err != nil {
			return reject(ageNotANumber)
		}
		if age < 0 || age > 150 {
			return reject(ageOutOfRange)
		}
		return accept(Value{Text: text, Age: age})

	case conversation.StepSex:
		if trimmed != "男" && trimmed != "女" {
			return reject(reprompts[step])
		}
		return accept(Value{Text: trimmed})

	case conversation.StepCFS:
		if _, ok := cfsAffirmative[strings.ToLower(trimmed)]; ok {
			return accept(Value{Text: "是"})
		}
		return accept(Value{Text: "否"})

	case conversation.StepOperation, conversation.StepMedicalHistory, conversation.StepWorry:
		if trimmed == "" {
			return reject(reprompts[step])
		}
		return accept(Value{Text: trimmed})

	default:
		return reject(reprompts[conversation.StepName])
	}
}
