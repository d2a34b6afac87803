// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"slices"

	"github.com/ik5/audmix/audio"
)

// Bus sums its children, then runs its own fade and effects on the mix.
type Bus struct {
	node

	master bool

	// audio side
	children []Node
	childBuf []float32

	// control side, guarded by g.ctlMu
	ctlChildren []Node
}

func newBus(g *Graph, paused, master bool) *Bus {
	b := &Bus{master: master}
	b.node.init(g, b, paused)
	b.childBuf = make([]float32, g.frames*g.spec.Channels)
	return b
}

// IsMaster reports whether b is the graph's root bus.
func (b *Bus) IsMaster() bool { return b.master }

// Children returns the nodes connected to b, in mixing order.
func (b *Bus) Children() []Node {
	b.g.ctlMu.Lock()
	defer b.g.ctlMu.Unlock()

	return slices.Clone(b.ctlChildren)
}

// Connect moves child under b. Connecting a bus under itself or one of
// its descendants fails with audio.ErrLogic and leaves the graph as is.
func (b *Bus) Connect(child Node) error {
	const op = "mixer.Bus.Connect"

	if child == nil {
		return audio.Errorf(audio.ErrInvalidArg, op, "nil child")
	}
	c := child.core()
	if c.g != b.g {
		return audio.Errorf(audio.ErrInvalidArg, op, "child %s belongs to another graph", c.id)
	}

	b.g.ctlMu.Lock()
	defer b.g.ctlMu.Unlock()

	if b.ctlReleased || c.ctlReleased {
		return audio.Errorf(audio.ErrLogic, op, "connect of a released node")
	}
	if cb, ok := child.(*Bus); ok {
		if cb.master {
			return audio.Errorf(audio.ErrLogic, op, "master bus cannot have a parent")
		}
		for p := b; p != nil; p = p.ctlParent {
			if p == cb {
				return audio.Errorf(audio.ErrLogic, op, "bus %s would feed itself", cb.id)
			}
		}
	}
	if c.ctlParent == b {
		return nil
	}

	if old := c.ctlParent; old != nil {
		old.ctlChildren = deleteNode(old.ctlChildren, child)
	}
	c.ctlParent = b
	b.ctlChildren = append(b.ctlChildren, child)

	return b.g.push(&connect{bus: b, child: child})
}

// Disconnect detaches child from b. The child stays alive but is no longer
// mixed until connected again.
func (b *Bus) Disconnect(child Node) error {
	const op = "mixer.Bus.Disconnect"

	if child == nil {
		return audio.Errorf(audio.ErrInvalidArg, op, "nil child")
	}
	c := child.core()

	b.g.ctlMu.Lock()
	defer b.g.ctlMu.Unlock()

	if c.ctlParent != b {
		return audio.Errorf(audio.ErrInvalidArg, op, "%s is not a child of %s", c.id, b.id)
	}
	b.ctlChildren = deleteNode(b.ctlChildren, child)
	c.ctlParent = nil

	return b.g.push(&disconnect{bus: b, child: child})
}

// Release removes b from the graph. Its children move to the master bus,
// or are released along with it when recursive is set. Releasing the
// master bus fails with audio.ErrLogic.
func (b *Bus) Release(recursive bool) error {
	if b.master {
		return audio.Errorf(audio.ErrLogic, "mixer.Bus.Release", "master bus cannot be released")
	}

	b.g.ctlMu.Lock()
	if b.ctlReleased {
		b.g.ctlMu.Unlock()
		return nil
	}
	children := slices.Clone(b.ctlChildren)
	b.g.ctlMu.Unlock()

	for _, child := range children {
		var err error
		switch c := child.(type) {
		case *Bus:
			if recursive {
				err = c.Release(true)
			} else {
				err = b.g.master.Connect(c)
			}
		case *Voice:
			if recursive {
				err = c.Release()
			} else {
				err = b.g.master.Connect(c)
			}
		}
		if err != nil {
			return err
		}
	}

	return b.g.releaseNode(b)
}

func (b *Bus) fill(dst []float32, frames int) {
	if cap(b.childBuf) < len(dst) {
		b.g.logger.Warn("growing bus buffer", "bus", b.id, "samples", len(dst))
		b.childBuf = make([]float32, len(dst))
	}
	buf := b.childBuf[:len(dst)]

	for _, child := range b.children {
		child.core().read(buf, frames)
		for i, v := range buf {
			dst[i] += v
		}
	}
}

func (b *Bus) setParentClock(clock uint64) {
	b.node.setParentClock(clock)
	for _, child := range b.children {
		if cb, ok := child.(*Bus); ok {
			cb.setParentClock(b.clock)
			continue
		}
		child.core().setParentClock(b.clock)
	}
}

// processRemovals drops released nodes from the subtree.
func (b *Bus) processRemovals() {
	b.children = slices.DeleteFunc(b.children, func(child Node) bool {
		if cb, ok := child.(*Bus); ok {
			cb.processRemovals()
		}
		n := child.core()
		if !n.released {
			return false
		}
		n.finalize()
		return true
	})
}

func (b *Bus) addChild(child Node) {
	c := child.core()
	if c.parent == b {
		return
	}
	if c.parent != nil {
		c.parent.removeChild(child)
	}
	c.parent = b
	c.setParentClock(b.clock)
	b.children = append(b.children, child)
}

func (b *Bus) removeChild(child Node) {
	if i := slices.Index(b.children, child); i >= 0 {
		b.children = slices.Delete(b.children, i, i+1)
	}
	child.core().parent = nil
}
