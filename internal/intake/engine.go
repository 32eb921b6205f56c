package intake

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yctsai/anesconsult/internal/conversation"
	"github.com/yctsai/anesconsult/internal/observability"
	"github.com/yctsai/anesconsult/internal/patient"
)

// Generator produces a consultation answer from an assembled prompt.
// Implemented by the genai adapters; a black box from the engine's side.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine drives a conversation through the structured intake and hands off
// to free-form Q&A once the record commits. Every failure is turn-scoped:
// the user always gets a response text and the cursor never corrupts.
type Engine struct {
	conversations *conversation.Manager
	store         patient.Store
	resolver      *patient.Resolver
	gen           Generator
	metrics       *observability.Metrics
}

func NewEngine(
	conversations *conversation.Manager,
	store patient.Store,
	resolver *patient.Resolver,
	gen Generator,
	metrics *observability.Metrics,
) *Engine {
	return &Engine{
		conversations: conversations,
		store:         store,
		resolver:      resolver,
		gen:           gen,
		metrics:       metrics,
	}
}

// HandleMessage processes one inbound message for a conversation and returns
// the response text. The conversation's turn lock is held for the whole call,
// so messages for one id apply strictly in order.
func (e *Engine) HandleMessage(ctx context.Context, conversationID, text string) string {
	state, created, release := e.conversations.Acquire(conversationID)
	defer release()

	if created {
		e.metrics.ActiveConversations.Set(float64(e.conversations.ActiveCount()))
	}

	if state.Step == conversation.StepChat {
		return e.handleChatTurn(ctx, state, text)
	}
	return e.handleIntakeTurn(ctx, state, text)
}

func (e *Engine) handleIntakeTurn(ctx context.Context, state *conversation.State, text string) string {
	e.logExchange(ctx, state.PatientID, patient.CategoryUser, text, "")

	res := Validate(state.Step, text)
	if !res.OK {
		e.metrics.IntakeSteps.WithLabelValues(string(state.Step), "rejected").Inc()
		e.logExchange(ctx, state.PatientID, patient.CategoryBot, "", res.Reprompt)
		return res.Reprompt
	}

	var reply string
	switch state.Step {
	case conversation.StepName:
		reply = e.completeNameStep(ctx, state, res.Value)
	case conversation.StepWorry:
		reply = e.completeWorryStep(ctx, state, res.Value)
	default:
		completed := state.Step
		e.setAnswer(state, res.Value)
		state.Step = state.Step.Next()
		reply = Question(state.Step)
		e.metrics.IntakeSteps.WithLabelValues(string(completed), "accepted").Inc()
	}

	e.logExchange(ctx, state.PatientID, patient.CategoryBot, "", reply)
	return reply
}

// completeNameStep resolves the patient identity and advances to the age
// question. On a persistence failure the cursor stays at name.
func (e *Engine) completeNameStep(ctx context.Context, state *conversation.State, v Value) string {
	p, createdNew, err := e.resolver.Resolve(ctx, v.Text)
	if err != nil {
		log.Printf("identity resolution failed for conversation %s: %v", state.ID, err)
		e.metrics.StoreErrors.WithLabelValues("resolve").Inc()
		return RetryMessage
	}
	if !createdNew {
		log.Printf("conversation %s bound to returning patient %s", state.ID, p.ID)
	}

	state.Answers.Name = v.Text
	state.PatientID = p.ID
	state.Step = conversation.StepAge
	e.metrics.IntakeSteps.WithLabelValues(string(conversation.StepName), "accepted").Inc()
	return fmt.Sprintf(AgeQuestionFormat, v.Text)
}

// completeWorryStep commits the collected answers onto the bound record and
// opens free-form chat. The record is always bound here: the cursor cannot
// pass the name step without a successful resolve. The patient update and
// the summary log entry are one durable transaction; on failure nothing
// advances.
func (e *Engine) completeWorryStep(ctx context.Context, state *conversation.State, v Value) string {
	answers := state.Answers
	answers.Worry = v.Text

	summary := BuildSummary(answers)
	update := patient.IntakeUpdate{
		Age:            answers.Age,
		Sex:            answers.Sex,
		Operation:      answers.Operation,
		CFS:            answers.CFS,
		MedicalHistory: answers.MedicalHistory,
		Worry:          answers.Worry,
	}
	if err := e.store.CommitIntake(ctx, state.PatientID, update, summary); err != nil {
		log.Printf("intake commit failed for patient %s: %v", state.PatientID, err)
		e.metrics.StoreErrors.WithLabelValues("commit_intake").Inc()
		return RetryMessage
	}

	state.Answers = answers
	state.Step = conversation.StepChat
	e.metrics.IntakeSteps.WithLabelValues(string(conversation.StepWorry), "accepted").Inc()
	e.metrics.LogEntries.WithLabelValues(string(patient.CategorySummary)).Inc()
	return summary + ChatInvite
}

// handleChatTurn routes a free-form question through context assembly and
// the generation collaborator, logging the paired exchange on success.
func (e *Engine) handleChatTurn(ctx context.Context, state *conversation.State, question string) string {
	if state.PatientID == "" {
		return NoProfileMessage
	}

	p, err := e.store.Get(ctx, state.PatientID)
	if err != nil {
		log.Printf("load patient %s failed: %v", state.PatientID, err)
		e.metrics.StoreErrors.WithLabelValues("get").Inc()
		return NoProfileMessage
	}

	prompt := BuildConsultPrompt(p, question)

	start := time.Now()
	answer, err := e.gen.Generate(ctx, prompt)
	e.metrics.ObserveGenerationLatency(time.Since(start))
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			log.Printf("generation failed for patient %s: %v", p.ID, err)
		}
		e.metrics.GenerationErrors.Inc()
		return Apology
	}

	entry := patient.LogEntry{
		PatientID: p.ID,
		Category:  patient.CategoryChat,
		Message:   question,
		Response:  answer,
	}
	if err := e.store.AppendLog(ctx, entry); err != nil {
		log.Printf("chat log append failed for patient %s: %v", p.ID, err)
		e.metrics.StoreErrors.WithLabelValues("append_log").Inc()
		return Apology
	}
	e.metrics.LogEntries.WithLabelValues(string(patient.CategoryChat)).Inc()

	return answer
}

func (e *Engine) setAnswer(state *conversation.State, v Value) {
	switch state.Step {
	case conversation.StepAge:
		state.Answers.Age = v.Age
	case conversation.StepSex:
		state.Answers.Sex = v.Text
	case conversation.StepOperation:
		state.Answers.Operation = v.Text
	case conversation.StepCFS:
		state.Answers.CFS = v.Text
	case conversation.StepMedicalHistory:
		state.Answers.MedicalHistory = v.Text
	}
}

// logExchange appends a raw intake turn once a patient is bound. Logging is
// best-effort and never blocks the turn.
func (e *Engine) logExchange(ctx context.Context, patientID string, category patient.Category, message, response string) {
	if patientID == "" {
		return
	}
	entry := patient.LogEntry{
		PatientID: patientID,
		Category:  category,
		Message:   message,
		Response:  response,
	}
	if err := e.store.AppendLog(ctx, entry); err != nil {
		log.Printf("log append failed for patient %s: %v", patientID, err)
		e.metrics.StoreErrors.WithLabelValues("append_log").Inc()
		return
	}
	e.metrics.LogEntries.WithLabelValues(string(category)).Inc()
}
