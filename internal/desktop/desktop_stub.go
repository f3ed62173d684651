//go:build !windows

package desktop

import (
	"context"

	"github.com/mrdja026/pcagent/internal/action"
)

// stubDriver satisfies Driver on non-Windows builds by returning
// ErrUnsupportedPlatform from every method, the Go equivalent of the
// original's zero-field WindowsAutomation stub whose constructor always
// errors.
type stubDriver struct{}

// NewDriver returns a Driver that fails every call; native UI automation
// requires the Windows UIA COM surface this build was not compiled with.
func NewDriver() (Driver, error) {
	return stubDriver{}, nil
}

func (stubDriver) GetDesktopState(ctx context.Context) (State, error) {
	return State{}, ErrUnsupportedPlatform
}

func (stubDriver) ExecuteLLMAction(ctx context.Context, cmd action.Command) error {
	return ErrUnsupportedPlatform
}

func (stubDriver) Close() {}
