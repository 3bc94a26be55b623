package deck

import (
	"context"
	"fmt"

	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/vdock"
)

// ExecuteButtonAction runs the action bound to a button. Navigation kinds are
// applied to the engine directly; everything else goes to the executor.
func (e *Engine) ExecuteButtonAction(ctx context.Context, b vdock.Button) (vdock.ActionResult, error) {
	if b.Action == nil {
		return vdock.ActionResult{}, nil
	}

	a := b.Action.Clone()
	if a.IsLocal() {
		e.navigate(a.Kind)
		return vdock.ActionResult{Success: true}, nil
	}

	if e.executor == nil {
		e.warn("execute", ErrNoExecutor, "button", b.ID, "kind", a.Kind)
		return vdock.ActionResult{}, ErrNoExecutor
	}

	result, err := e.executor.ExecuteAction(ctx, a)
	if err != nil {
		return vdock.ActionResult{}, fmt.Errorf("execute %s: %w", a.Kind, err)
	}

	if sys, ok := a.SystemControl(); ok && result.Success && sys.Action == action.SystemFullscreen {
		e.toggleFullscreen()
	}

	return result, nil
}

func (e *Engine) navigate(kind action.Kind) {
	switch kind {
	case action.KindNextPage:
		e.NextPage()
	case action.KindPreviousPage:
		e.PreviousPage()
	case action.KindHomePage:
		e.SelectPage(0)
	}
}

func (e *Engine) toggleFullscreen() {
	if e.fullscreen == nil {
		return
	}
	if err := e.fullscreen.ToggleFullscreen(); err != nil {
		e.log.Errorw("failed to toggle fullscreen", "error", err)
	}
}
