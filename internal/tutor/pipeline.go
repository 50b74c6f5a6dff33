// Package tutor composes the tutoring engine: one atomic turn over a
// session, plus the end and new-doubt lifecycle operations.
package tutor

import (
	"context"
	"log/slog"
	"time"

	"socratic/internal/intent"
	"socratic/internal/llm"
	"socratic/internal/metrics"
	"socratic/internal/misconception"
	"socratic/internal/orchestrator"
	"socratic/internal/question"
	"socratic/internal/session"
	"socratic/internal/store"
	"socratic/internal/strategy"
)

// summaryTurnInterval is how often the rolling session summary refreshes.
const summaryTurnInterval = 3

// mirrorTimeout bounds fire-and-forget persistence writes so they never
// outlive the process shutdown by much.
const mirrorTimeout = 5 * time.Second

// Pipeline wires the classifier, orchestrator, session registry, metrics,
// and the persistence mirror into the turn-processing operations.
type Pipeline struct {
	sessions   *session.Store
	classifier intent.Classifier
	orch       *orchestrator.Orchestrator
	recorder   store.Recorder
	metrics    *metrics.Metrics
	logger     *slog.Logger
	modelID    string

	now func() time.Time
}

// Deps are the collaborators a Pipeline composes. Sessions, Classifier,
// and Orchestrator are required; Recorder defaults to a no-op, Metrics
// and Logger to fresh instances.
type Deps struct {
	Sessions   *session.Store
	Classifier intent.Classifier
	Orch       *orchestrator.Orchestrator
	Recorder   store.Recorder
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	ModelID    string
}

// NewPipeline builds the turn pipeline.
func NewPipeline(deps Deps) *Pipeline {
	if deps.Recorder == nil {
		deps.Recorder = store.NopRecorder{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{
		sessions:   deps.Sessions,
		classifier: deps.Classifier,
		orch:       deps.Orch,
		recorder:   deps.Recorder,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		modelID:    deps.ModelID,
		now:        time.Now,
	}
}

// ProcessTurn runs one tutoring turn. The session lock is held for the
// whole turn: concurrent requests for the same session serialize, other
// sessions proceed independently. Classification failures abort the turn;
// generation failures degrade to a canned fallback question inside the
// orchestrator. Ledger mutations that happened before a failure are kept.
func (p *Pipeline) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess, created := p.sessions.GetOrCreate(req.SessionID, req.UserID)
	sess.Lock()
	defer sess.Unlock()

	now := p.now()
	sess.LastActive = now

	if created {
		p.metrics.ActiveSessions.Set(float64(p.sessions.Len()))
		p.mirror("initialize session", func(ctx context.Context) error {
			return p.recorder.InitializeSession(ctx, sess.ID, sess.UserID, sess.StartedAt)
		})
		sess.Mirrored = true
		if len(req.History) > 0 {
			sess.History = toLLMHistory(req.History)
		}
	}

	message := question.SanitizeInput(req.Message)
	codeContext := question.SanitizeInput(req.Context)

	sess.State.TurnIndex++
	turn := sess.State.TurnIndex

	p.refreshSummary(ctx, sess, turn)

	res := p.classifier.Classify(message, sess.State.LearnerConfidence)
	sess.State.LearnerConfidence = res.LearnerConfidence
	sess.RecordIntent(res.Message, res.Reasoning)

	classified, err := p.orch.Classify(ctx, orchestrator.ClassifyInput{
		Message:      message,
		Context:      codeContext,
		Summary:      sess.State.Summary,
		LastQuestion: sess.State.LastQuestion,
	})
	if err != nil {
		p.logger.Error("misconception classification failed",
			"session_id", sess.ID, "turn", turn, "error", err)
		return nil, err
	}
	sess.TokensIn += classified.Usage.InputTokens
	sess.TokensOut += classified.Usage.OutputTokens

	prior := make(misconception.Ledger, len(sess.State.Ledger))
	for id, v := range sess.State.Ledger {
		prior[id] = v
	}

	update := sess.State.Ledger.ApplyVerdicts(classified.Verdicts)

	var targeted misconception.ID
	var topConfidence *float64
	if top := sess.State.Ledger.Top(); top != nil {
		targeted = top.ID
		topConfidence = &top.Confidence
	}

	strat := strategy.Choose(res.Coarse, sess.State.LearnerConfidence, topConfidence)

	generated, err := p.orch.Generate(ctx, orchestrator.GenerateInput{
		Targeted:     targeted,
		Strategy:     strat,
		Message:      message,
		Summary:      sess.State.Summary,
		Context:      codeContext,
		LastQuestion: sess.State.LastQuestion,
		History:      sess.History,
	})
	if err != nil {
		return nil, err
	}
	sess.TokensIn += generated.Usage.InputTokens
	sess.TokensOut += generated.Usage.OutputTokens

	if generated.Fallback {
		p.metrics.BlockedPrompts.Inc()
	}
	p.metrics.HintLevel.Observe(float64(generated.Attempts))

	sess.State.LastQuestion = generated.Question
	sess.History = append(sess.History,
		llm.Message{Role: llm.RoleUser, Content: message},
		llm.Message{Role: llm.RoleAssistant, Content: generated.Question},
	)

	resp := &TurnResponse{
		Response:              generated.Question,
		SessionID:             sess.ID,
		TargetedMisconception: targeted,
		ClassifierCertainty:   classified.Certainty,
		Deltas:                update.Deltas,
		ResolutionEvents:      update.ResolutionEvents,
		State: StatePayload{
			Ledger:            sess.State.Ledger.Snapshot(),
			LearnerConfidence: sess.State.LearnerConfidence,
			LastQuestion:      sess.State.LastQuestion,
			Summary:           sess.State.Summary,
			TurnIndex:         turn,
		},
		TokensIn:          sess.TokensIn,
		TokensOut:         sess.TokensOut,
		Intent:            res.Message,
		Resolved:          len(update.ResolutionEvents) > 0,
		AllDoubtsResolved: len(sess.State.Ledger) == 0,
		IsNewSession:      created,
		StudentUnderstood: understood(generated.Raw),
		Strategy:          string(strat),
		Fallback:          generated.Fallback,
	}
	if resp.ResolutionEvents == nil {
		resp.ResolutionEvents = []misconception.ID{}
	}

	if targeted != "" {
		if before, ok := prior[targeted]; ok {
			b := before
			resp.ConfidenceBefore = &b
		}
		if after, ok := sess.State.Ledger[targeted]; ok {
			a := after
			resp.ConfidenceAfter = &a
		}
	}

	p.dispatchTurnRecords(sess, turn, res, strat, targeted, generated, now)

	return resp, nil
}

// refreshSummary re-summarizes the conversation every few turns, or when
// no summary exists yet. Failures keep the previous summary.
func (p *Pipeline) refreshSummary(ctx context.Context, sess *session.Session, turn int) {
	if len(sess.History) == 0 {
		return
	}
	if sess.State.Summary != "" && turn%summaryTurnInterval != 0 {
		return
	}

	summary, usage, err := p.orch.Summarize(ctx, sess.History)
	sess.TokensIn += usage.InputTokens
	sess.TokensOut += usage.OutputTokens
	if err != nil {
		p.logger.Warn("summary refresh failed",
			"session_id", sess.ID, "turn", turn, "error", err)
		return
	}
	sess.State.Summary = summary
}

// dispatchTurnRecords snapshots the turn under the session lock and hands
// the writes to the mirror without blocking the response.
func (p *Pipeline) dispatchTurnRecords(
	sess *session.Session,
	turn int,
	res intent.Result,
	strat strategy.Strategy,
	targeted misconception.ID,
	generated *orchestrator.GenerateResult,
	now time.Time,
) {
	turnRec := store.TurnRecord{
		SessionID:         sess.ID,
		TurnIndex:         turn,
		Intent:            string(res.Message),
		Strategy:          string(strat),
		Targeted:          string(targeted),
		Question:          generated.Question,
		Fallback:          generated.Fallback,
		LearnerConfidence: sess.State.LearnerConfidence,
		TokensIn:          generated.Usage.InputTokens,
		TokensOut:         generated.Usage.OutputTokens,
	}
	metricsRec := sessionMetricsOf(sess, now)

	p.mirror("log turn", func(ctx context.Context) error {
		return p.recorder.LogTurn(ctx, turnRec)
	})
	p.mirror("upsert session metrics", func(ctx context.Context) error {
		return p.recorder.UpsertSessionMetrics(ctx, metricsRec)
	})
}

// End finalizes and removes a session, returning its aggregate. The
// learning summary is produced best-effort from the conversation.
func (p *Pipeline) End(ctx context.Context, sessionID string) (*EndResult, error) {
	if sessionID == "" {
		return nil, &InputError{Field: "session_id", Reason: "must not be empty"}
	}
	sess := p.sessions.Delete(sessionID)
	if sess == nil {
		return nil, &SessionNotFoundError{SessionID: sessionID}
	}
	sess.Lock()
	defer sess.Unlock()

	p.metrics.ActiveSessions.Set(float64(p.sessions.Len()))
	agg := sess.Finalize(p.now())
	p.metrics.TurnsPerSession.Observe(float64(agg.Turns))
	if agg.Turns <= 1 {
		p.metrics.DropOffs.Inc()
	}

	result := &EndResult{
		SessionID:        agg.SessionID,
		Turns:            agg.Turns,
		DirectAnswerPct:  agg.DirectAnswerPct,
		ReasoningPct:     agg.ReasoningPct,
		TokensIn:         agg.TokensIn,
		TokensOut:        agg.TokensOut,
		DurationSecs:     agg.DurationSecs,
		EstimatedCostUSD: llm.EstimateCost(p.modelID, agg.TokensIn, agg.TokensOut),
	}

	if len(sess.History) > 0 {
		summary, _, err := p.orch.Summarize(ctx, sess.History)
		if err != nil {
			p.logger.Warn("learning summary failed",
				"session_id", sessionID, "error", err)
		} else {
			result.LearningSummary = summary
		}
	}

	metricsRec := sessionMetricsOf(sess, p.now())
	p.mirror("final session metrics", func(ctx context.Context) error {
		return p.recorder.UpsertSessionMetrics(ctx, metricsRec)
	})

	return result, nil
}

// NewDoubt ends the current session, when one is given, and opens a fresh
// one for the same user. An unknown current session is not an error: the
// caller may have raced an eviction.
func (p *Pipeline) NewDoubt(ctx context.Context, currentSessionID, userID string) (*NewDoubtResult, error) {
	result := &NewDoubtResult{}

	if currentSessionID != "" {
		if _, err := p.End(ctx, currentSessionID); err == nil {
			result.PreviousSessionID = currentSessionID
		} else {
			p.logger.Info("new-doubt could not end previous session",
				"session_id", currentSessionID, "error", err)
		}
	}

	sess, _ := p.sessions.GetOrCreate("", userID)
	p.metrics.ActiveSessions.Set(float64(p.sessions.Len()))
	p.mirror("initialize session", func(ctx context.Context) error {
		return p.recorder.InitializeSession(ctx, sess.ID, sess.UserID, sess.StartedAt)
	})
	sess.Lock()
	sess.Mirrored = true
	sess.Unlock()

	result.SessionID = sess.ID
	return result, nil
}

// SummarizeHistory produces a summary for a caller-supplied conversation,
// independent of any stored session.
func (p *Pipeline) SummarizeHistory(ctx context.Context, history []HistoryMessage) (string, error) {
	if len(history) == 0 {
		return "", &InputError{Field: "history", Reason: "must not be empty"}
	}
	summary, _, err := p.orch.Summarize(ctx, toLLMHistory(history))
	return summary, err
}

// mirror runs one persistence write in the background. Failures are
// logged and never reach the caller.
func (p *Pipeline) mirror(op string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			p.logger.Warn("persistence mirror write failed", "op", op, "error", err)
		}
	}()
}

func sessionMetricsOf(sess *session.Session, now time.Time) store.SessionMetrics {
	agg := sess.Finalize(now)
	return store.SessionMetrics{
		SessionID:       agg.SessionID,
		Turns:           agg.Turns,
		DirectAnswerPct: agg.DirectAnswerPct,
		ReasoningPct:    agg.ReasoningPct,
		TokensIn:        agg.TokensIn,
		TokensOut:       agg.TokensOut,
		DurationSecs:    agg.DurationSecs,
	}
}
