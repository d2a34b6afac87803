// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"slices"

	"github.com/ik5/audmix/effect"
)

// The commands below run on the audio goroutine at the start of a mix
// cycle, in push order.

type setParam struct {
	n     *node
	e     effect.Effect
	index int
	v     effect.Param
}

func (c *setParam) Execute() {
	if err := c.e.ReceiveParam(c.index, c.v); err != nil {
		c.n.g.logger.Error("set param", "node", c.n.id, "effect", effectName(c.e), "index", c.index, "err", err)
	}
}

type setPause struct {
	n       *node
	clock   uint64
	release bool
}

func (c *setPause) Execute() { c.n.setPause(true, c.clock, c.release) }

type setUnpause struct {
	n     *node
	clock uint64
}

func (c *setUnpause) Execute() { c.n.setPause(false, c.clock, false) }

type addEffect struct {
	n *node
	e effect.Effect
}

func (c *addEffect) Execute() {
	if c.n.released {
		effect.Detach(c.e)
		return
	}
	c.n.effects = append(c.n.effects, c.e)
}

type removeEffect struct {
	n *node
	e effect.Effect
}

func (c *removeEffect) Execute() { c.n.removeEffect(c.e) }

type addFadePoint struct {
	n *node
	p FadePoint
}

func (c *addFadePoint) Execute() { c.n.fade.add(c.p) }

type removeFadePoints struct {
	n          *node
	begin, end uint64
}

func (c *removeFadePoints) Execute() { c.n.fade.remove(c.begin, c.end) }

type fadeTo struct {
	n     *node
	clock uint64
	value float32
}

func (c *fadeTo) Execute() { c.n.fade.fadeTo(c.n.parentClock, c.clock, c.value) }

type connect struct {
	bus   *Bus
	child Node
}

func (c *connect) Execute() { c.bus.addChild(c.child) }

type disconnect struct {
	bus   *Bus
	child Node
}

func (c *disconnect) Execute() {
	if slices.Contains(c.bus.children, c.child) {
		c.bus.removeChild(c.child)
	}
}

type release struct {
	n *node
}

func (c *release) Execute() {
	c.n.release()
	// a detached node is never reached by a removal pass
	if c.n.parent == nil {
		c.n.finalize()
	}
}

type seek struct {
	v     *Voice
	frame uint64
}

func (c *seek) Execute() { c.v.doSeek(c.frame) }

type setLooping struct {
	v       *Voice
	looping bool
}

func (c *setLooping) Execute() { c.v.doSetLooping(c.looping) }

type setLoopStart struct {
	v     *Voice
	frame uint64
}

func (c *setLoopStart) Execute() { c.v.doSetLoopStart(c.frame) }

type play struct {
	v *Voice
}

func (c *play) Execute() { c.v.doPlay() }

type stop struct {
	v *Voice
}

func (c *stop) Execute() { c.v.doStop() }

type bind struct {
	v      *Voice
	sound  *SoundBuffer
	stream *stream
}

func (c *bind) Execute() {
	if c.v.released {
		if c.stream != nil {
			c.stream.close()
		}
		return
	}
	c.v.doBind(c.sound, c.stream)
}

func effectName(e effect.Effect) string {
	switch e.(type) {
	case *effect.Volume:
		return "volume"
	case *effect.Pan:
		return "pan"
	case *effect.Delay:
		return "delay"
	}
	return "custom"
}
