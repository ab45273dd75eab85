package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/jelly/sim"
)

// DrawHUD renders the status line: policy, particle count, fps, and the
// paused indicator.
func DrawHUD(e *sim.Engine) {
	text := fmt.Sprintf("%s | %d particles | %d fps", e.Policy().Name(), e.Size(), rl.GetFPS())
	rl.DrawText(text, 12, 12, 18, rl.RayWhite)
	if e.Paused() {
		rl.DrawText("PAUSED", 12, 34, 18, rl.Orange)
	}
	rl.DrawText("space pause | tab panel | 1-4 policy | r reload | f11 fullscreen", 12, int32(rl.GetScreenHeight())-26, 14, rl.Gray)
}
