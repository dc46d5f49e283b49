package furnish

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// OpacityTween fades every material under a node to a target opacity.
// Call Update(dt) each frame. If the target node is disposed, the tween stops
// immediately.
type OpacityTween struct {
	tween  *gween.Tween
	target *Node
	Done   bool
}

// TweenOpacity creates a tween from the node's current opacity to the given
// value over duration seconds using the easing function. A nil fn means
// linear easing.
func TweenOpacity(node *Node, to float64, duration float32, fn ease.TweenFunc) *OpacityTween {
	if fn == nil {
		fn = ease.Linear
	}
	return &OpacityTween{
		tween:  gween.New(float32(Opacity(node)), float32(to), duration, fn),
		target: node,
	}
}

// Update advances the tween by dt seconds and applies the value.
func (t *OpacityTween) Update(dt float32) {
	if t.Done {
		return
	}
	if t.target == nil || t.target.IsDisposed() {
		t.Done = true
		return
	}
	val, finished := t.tween.Update(dt)
	SetOpacity(t.target, float64(val))
	t.Done = finished
}

// Target returns the node being animated.
func (t *OpacityTween) Target() *Node {
	return t.target
}
