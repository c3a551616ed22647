package viewport

import (
	"time"

	"github.com/tsawler/lectern/geom"
)

// Animation frames target 60 fps.
const frameInterval = time.Second / 60

// smoothstep eases a linear fraction: slow start, fast middle, slow
// landing.
func smoothstep(f float64) float64 {
	return f * f * (3 - 2*f)
}

type animation struct {
	stop chan struct{}
}

// startAnimationLocked begins an animated transition toward target. The
// mutex is held by the caller. Frames interpolate between the transform
// at start time and the already-normalized target; the final frame is
// the target itself, exactly.
func (c *Controller) startAnimationLocked(from, target geom.AffineTransform, d time.Duration) {
	anim := &animation{stop: make(chan struct{})}
	c.anim = anim
	go c.runAnimation(anim, from, target, d)
}

// stopAnimationLocked cancels the running animation, if any. The
// canceled animation publishes no further frames.
func (c *Controller) stopAnimationLocked() {
	if c.anim != nil {
		close(c.anim.stop)
		c.anim = nil
	}
}

func (c *Controller) runAnimation(anim *animation, from, target geom.AffineTransform, d time.Duration) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-anim.stop:
			return
		case <-ticker.C:
		}

		f := float64(time.Since(start)) / float64(d)
		done := f >= 1
		if done {
			f = 1
		}

		c.mu.Lock()
		if c.anim != anim {
			// A newer gesture took over; this frame is stale.
			c.mu.Unlock()
			return
		}
		if done {
			c.transform = target
			c.anim = nil
		} else {
			c.transform = from.Lerp(target, smoothstep(f))
		}
		c.deriveCurrentPageLocked()
		obs := c.snapshotObservers()
		c.mu.Unlock()

		c.notify(obs)
		if done {
			return
		}
	}
}
