// Package orchestrator runs the decide/approve/execute loop: one LLM call
// produces a candidate action, the console gate approves or rejects it,
// and on approval the loop repeats with retries, step budgets, and
// auto-completion exactly as main.rs's approve_action did for the Tauri
// shell.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/mrdja026/pcagent/internal/action"
	"github.com/mrdja026/pcagent/internal/broadcast"
	"github.com/mrdja026/pcagent/internal/cdp"
	"github.com/mrdja026/pcagent/internal/desktop"
	"github.com/mrdja026/pcagent/internal/history"
	"github.com/mrdja026/pcagent/internal/llm"
	"github.com/mrdja026/pcagent/internal/logging"
	"github.com/mrdja026/pcagent/internal/mode"
)

const (
	maxSteps              = 20
	maxRetriesPerStep     = 5
	autoCompleteThreshold = 3

	// postSuccessSettle is the outer-loop pause after a successful step,
	// on top of whichever driver's own per-action settle already ran
	// (500ms browser, 200ms desktop) — the loop-level wait before the
	// next observation is captured.
	postSuccessSettle = 1500 * time.Millisecond
)

func settle(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

type Orchestrator struct {
	browser     *cdp.Driver
	desktop     desktop.Driver
	detector    *mode.Detector
	llmClient   *llm.Client
	broadcaster *broadcast.Server
}

func New(browser *cdp.Driver, desktopDriver desktop.Driver, llmClient *llm.Client, broadcaster *broadcast.Server) *Orchestrator {
	return &Orchestrator{
		browser:     browser,
		desktop:     desktopDriver,
		detector:    mode.NewDetector(browser),
		llmClient:   llmClient,
		broadcaster: broadcaster,
	}
}

func (o *Orchestrator) emit(ev broadcast.Event) {
	if o.broadcaster != nil {
		o.broadcaster.Emit(ev)
	}
}

// ExecuteUserCommand starts a new goal: it resets the session's history,
// scans the current UI, and asks the model for the first action. The
// caller is expected to show it for approval before calling ApproveAction.
func (o *Orchestrator) ExecuteUserCommand(ctx context.Context, sess *Session, goal string) (action.Command, error) {
	sess.SetGoal(goal)
	logging.Clear()
	logging.Log("INFO", "SESSION", "goal set: "+goal)

	o.emit(broadcast.Event{Stage: "scanning", Message: "Scanning UI elements..."})
	st, err := o.observe(ctx)
	if err != nil {
		return action.Command{}, err
	}

	o.emit(broadcast.Event{Stage: "thinking", Message: "AI is deciding next action..."})
	prompt := buildUserPrompt(goal, st, nil, 1, maxSteps)
	dec, err := o.llmClient.GetNextAction(ctx, systemPrompt, prompt, len(st.Elements))
	if err != nil {
		return action.Command{}, err
	}
	logging.Logf("INFO", "LLM", "action=%s target=%q input_tokens=%d output_tokens=%d elements=%d prompt_chars=%d",
		dec.Action.Type, dec.Action.Target, dec.InputTokens, dec.OutputTokens, dec.ElementsCount, dec.PromptChars)

	sess.SetPending(dec.Action)
	o.emit(broadcast.Event{Stage: "ready", Message: fmt.Sprintf("Action: %s", dec.Action.Type), Action: dec.Action.Type})
	return dec.Action, nil
}

// ApproveAction runs the inner loop from the session's pending action
// through completion, a budget limit, or outright rejection.
func (o *Orchestrator) ApproveAction(ctx context.Context, sess *Session, approved bool) (ObservedState, error) {
	if !approved {
		sess.ClearPending()
		return ObservedState{}, nil
	}

	current, ok := sess.TakePending()
	if !ok {
		return ObservedState{}, action.Schemaf("ApproveAction", "no pending action")
	}
	goal := sess.Goal()

	consecutiveSuccesses := 0
	currentMode := o.detector.Detect(ctx)
	logging.Logf("INFO", "MODE", "initial mode: %s", currentMode)

	o.emit(broadcast.Event{Stage: "executing", Message: "Starting execution..."})

	st, err := o.observe(ctx)
	if err != nil {
		return ObservedState{}, err
	}

	for loopIter := 0; loopIter < maxSteps; loopIter++ {
		stepNumber := sess.History.Len() + 1
		logging.Logf("INFO", "LOOP", "=== iteration %d, step %d, action %q ===", loopIter+1, stepNumber, current.Type)
		o.emit(broadcast.Event{Stage: "step", Step: stepNumber, Action: current.Type, Message: fmt.Sprintf("Step %d: %s", stepNumber, current.Type)})

		if current.Type == action.Complete {
			logging.Logf("INFO", "COMPLETE", "goal achieved: %s", current.Reasoning)
			sess.History.Append(history.Entry{
				StepNumber: stepNumber, UserInput: goal, Reasoning: orDefault(current.Reasoning, "Goal completed"),
				Action: current, Success: true, Mode: currentMode, WindowContext: st.WindowTitle,
			})
			sess.ClearPending()
			return st, nil
		}

		succeeded, freshState, newMode, retryErr := o.attemptWithRetries(ctx, sess, goal, &current, stepNumber, currentMode, st)
		if retryErr != nil {
			return ObservedState{}, retryErr
		}
		if newMode != currentMode {
			logging.Logf("INFO", "MODE", "*** MODE TRANSITION: %s -> %s ***", currentMode, newMode)
			currentMode = newMode
		}

		if succeeded {
			consecutiveSuccesses++
			st = freshState
		} else {
			consecutiveSuccesses = 0
			refreshed, oerr := o.observe(ctx)
			if oerr == nil {
				st = refreshed
			}
		}

		if succeeded && consecutiveSuccesses >= autoCompleteThreshold {
			return o.checkAutoComplete(ctx, sess, goal, currentMode, consecutiveSuccesses)
		}

		prompt := buildUserPrompt(goal, st, sess.History.Snapshot(), stepNumber+1, maxSteps)
		dec, err := o.llmClient.GetNextAction(ctx, systemPrompt, prompt, len(st.Elements))
		if err != nil {
			logging.Logf("ERROR", "LLM", "call failed: %v", err)
			return ObservedState{}, err
		}
		sess.History.SetLastTokens(dec.InputTokens, dec.OutputTokens)
		current = dec.Action
	}

	logging.Logf("WARN", "LOOP", "max steps (%d) reached without completion", maxSteps)
	sess.ClearPending()
	return st, nil
}

// attemptWithRetries retries a single step up to maxRetriesPerStep times,
// asking the model for an alternative action (with a growing chunk index)
// after every failure short of the last.
func (o *Orchestrator) attemptWithRetries(ctx context.Context, sess *Session, goal string, current *action.Command, stepNumber int, currentMode action.Mode, st ObservedState) (bool, ObservedState, action.Mode, error) {
	chunkIndex := 0
	attempt := *current

	for retry := 1; ; retry++ {
		err := o.execute(ctx, currentMode, attempt)
		if err == nil {
			settle(ctx, postSuccessSettle)
			freshState, ferr := o.observe(ctx)
			if ferr != nil {
				freshState = st
			}
			newMode := o.detector.Detect(ctx)
			reasoning := attempt.Reasoning
			if newMode != currentMode {
				reasoning = fmt.Sprintf("%s [MODE: %s -> %s]", reasoning, currentMode, newMode)
			}
			sess.History.Append(history.Entry{
				StepNumber: stepNumber,
				UserInput:  firstStepGoal(stepNumber, goal),
				Reasoning:  reasoning,
				Action:     attempt, Success: true, Mode: newMode, WindowContext: freshState.WindowTitle,
			})
			*current = attempt
			return true, freshState, newMode, nil
		}

		if retry < maxRetriesPerStep {
			chunkIndex++
			logging.Logf("DEBUG", "RETRY", "step %d retry with chunk %d: %v", stepNumber, chunkIndex, err)
			prompt := buildRetryPrompt(goal, attempt.Type, attempt.Target, err.Error(), st, sess.History.Snapshot(), chunkIndex)
			dec, derr := o.llmClient.GetRetryAction(ctx, systemPrompt, prompt, len(st.Elements))
			if derr != nil {
				return false, ObservedState{}, currentMode, derr
			}
			attempt = dec.Action
			continue
		}

		logging.Logf("WARN", "ACTION", "step %d failed after %d retries", stepNumber, retry)
		sess.History.Append(history.Entry{
			StepNumber: stepNumber,
			UserInput:  firstStepGoal(stepNumber, goal),
			Reasoning:  attempt.Reasoning,
			Action:     attempt, Success: false, Error: err.Error(), Mode: currentMode, WindowContext: st.WindowTitle,
		})
		return false, ObservedState{}, currentMode, nil
	}
}

func (o *Orchestrator) checkAutoComplete(ctx context.Context, sess *Session, goal string, currentMode action.Mode, consecutiveSuccesses int) (ObservedState, error) {
	logging.Logf("INFO", "AUTO_COMPLETE", "threshold reached (%d), checking goal via a11y", consecutiveSuccesses)
	fresh, err := o.observe(ctx)
	if err != nil {
		return ObservedState{}, err
	}
	achieved := goalAchieved(goal, fresh)

	completionType := action.AutoComplete
	errMsg := "[INCOMPLETE] LLM did not signal completion, goal keywords not found in a11y"
	if achieved {
		completionType = action.SmartComplete
		errMsg = ""
		logging.Log("INFO", "AUTO_COMPLETE", "goal keywords found in a11y - marking as COMPLETE")
	} else {
		logging.Log("WARN", "AUTO_COMPLETE", "goal keywords NOT found in a11y - marking as INCOMPLETE")
	}

	reasoningPrefix := "[SMART_COMPLETE]"
	if completionType == action.AutoComplete {
		reasoningPrefix = "[AUTO_COMPLETE]"
	}

	sess.History.Append(history.Entry{
		StepNumber: sess.History.Len() + 1,
		Reasoning:  fmt.Sprintf("%s after %d steps - goal_in_a11y=%v", reasoningPrefix, consecutiveSuccesses, achieved),
		Action:     action.Command{Type: completionType},
		Success:    achieved, Error: errMsg, Mode: currentMode, WindowContext: fresh.WindowTitle,
	})

	o.emit(broadcast.Event{Stage: completionType, Message: fmt.Sprintf("Task %s after %d steps", completionLabel(achieved), consecutiveSuccesses)})
	sess.ClearPending()
	return fresh, nil
}

func completionLabel(achieved bool) string {
	if achieved {
		return "completed"
	}
	return "auto-completed (incomplete)"
}

func firstStepGoal(stepNumber int, goal string) string {
	if stepNumber == 1 {
		return goal
	}
	return ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
