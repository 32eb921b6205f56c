package intake

import (
	"fmt"
	"strings"

	"github.com/yctsai/anesconsult/internal/conversation"
)

const (
	absentHistory = "無特殊病史"
	absentWorry   = "無特殊擔憂"

	cfsIndependent = "可以自行外出"
	cfsAssisted    = "需要他人協助"
)

// negativeTokens are the answers canonicalized to the absent marker when the
// summary is rendered. Validation keeps the raw text; only display changes.
var negativeTokens = map[string]struct{}{
	"沒有": {},
	"無":  {},
}

func isNegative(text string) bool {
	_, ok := negativeTokens[strings.TrimSpace(text)]
	return ok
}

// BuildSummary renders the fixed intake recap from the collected answers.
// Deterministic pure function: identical answers yield identical output.
func BuildSummary(a conversation.Answers) string {
	cfs := cfsAssisted
	if a.CFS == "是" {
		cfs = cfsIndependent
	}

	history := a.MedicalHistory
	if isNegative(history) {
		history = absentHistory
	}
	worry := a.Worry
	if isNegative(worry) {
		worry = absentWorry
	}

	var b strings.Builder
	b.WriteString("## 您提供的資訊摘要\n\n")
	fmt.Fprintf(&b, "* **姓名**：%s\n", a.Name)
	fmt.Fprintf(&b, "* **年齡**：%d歲\n", a.Age)
	fmt.Fprintf(&b, "* **性別**：%s\n", a.Sex)
	fmt.Fprintf(&b, "* **預定手術**：%s\n", a.Operation)
	fmt.Fprintf(&b, "* **行動能力**：%s\n", cfs)
	fmt.Fprintf(&b, "* **病史**：%s\n", history)
	fmt.Fprintf(&b, "* **擔憂**：%s", worry)
	return b.String()
}
