// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/command"
	"github.com/ik5/audmix/decoder"
)

// Graph is a tree of buses and voices rooted at a master bus. Control
// goroutines mutate it through commands; Mix, called from the device
// callback, applies them and renders the tree.
type Graph struct {
	spec   audio.Spec
	frames int
	opts   options
	logger *slog.Logger

	queue  *command.Queue
	master *Bus

	mu       sync.Mutex // held for a whole mix cycle
	clock    atomic.Uint64
	removals bool

	ctlMu sync.Mutex
}

// NewGraph builds a graph mixing float32 frames of spec, with buffers
// sized for frames frames per callback.
func NewGraph(spec audio.Spec, frames int, opts ...Option) (*Graph, error) {
	const op = "mixer.NewGraph"

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Format != audio.Float32 {
		return nil, audio.Errorf(audio.ErrInvalidArg, op, "graph mixes %v, got %v", audio.Float32, spec.Format)
	}
	if frames <= 0 {
		return nil, audio.Errorf(audio.ErrInvalidArg, op, "buffer of %d frames", frames)
	}

	o := buildOptions(opts)
	g := &Graph{
		spec:   spec,
		frames: frames,
		opts:   o,
		logger: o.logger,
		queue:  command.New(o.queueCapacity, o.logger),
	}
	g.master = newBus(g, false, true)
	return g, nil
}

func (g *Graph) Spec() audio.Spec     { return g.spec }
func (g *Graph) BufferFrames() int    { return g.frames }
func (g *Graph) MasterBus() *Bus      { return g.master }
func (g *Graph) Clock() uint64        { return g.clock.Load() }
func (g *Graph) Logger() *slog.Logger { return g.logger }

// Push queues cmd for the start of the next mix cycle.
func (g *Graph) Push(cmd command.Command) error {
	return g.push(cmd)
}

func (g *Graph) push(cmd command.Command) error {
	if err := g.queue.Push(cmd); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Pending is the number of commands waiting for the next cycle.
func (g *Graph) Pending() int { return g.queue.Len() }

// Lock blocks mixing until Unlock, for callers that need a consistent
// view across several nodes.
func (g *Graph) Lock()   { g.mu.Lock() }
func (g *Graph) Unlock() { g.mu.Unlock() }

// NewBus creates a bus feeding parent, or master when parent is nil.
func (g *Graph) NewBus(parent *Bus, paused bool) (*Bus, error) {
	if parent == nil {
		parent = g.master
	}
	b := newBus(g, paused, false)
	if err := parent.Connect(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewVoice creates an unbound voice feeding parent, or master when parent
// is nil.
func (g *Graph) NewVoice(parent *Bus, paused bool) (*Voice, error) {
	if parent == nil {
		parent = g.master
	}
	v := newVoice(g, paused)
	if err := parent.Connect(v); err != nil {
		return nil, err
	}
	return v, nil
}

// PlayBuffer is NewVoice followed by BindBuffer.
func (g *Graph) PlayBuffer(sb *SoundBuffer, parent *Bus, paused bool) (*Voice, error) {
	v, err := g.NewVoice(parent, paused)
	if err != nil {
		return nil, err
	}
	if err := v.BindBuffer(sb); err != nil {
		_ = v.Release()
		return nil, err
	}
	return v, nil
}

// PlayStream is NewVoice followed by BindStream.
func (g *Graph) PlayStream(dec *decoder.Decoder, parent *Bus, paused, looping bool) (*Voice, error) {
	v, err := g.NewVoice(parent, paused)
	if err != nil {
		return nil, err
	}
	if err := v.SetLooping(looping); err != nil {
		_ = v.Release()
		return nil, err
	}
	if err := v.BindStream(dec); err != nil {
		_ = v.Release()
		return nil, err
	}
	return v, nil
}

// Release removes n from the graph. Buses release non-recursively.
func (g *Graph) Release(n Node) error {
	switch n := n.(type) {
	case *Bus:
		return n.Release(false)
	case *Voice:
		return n.Release()
	}
	return audio.Errorf(audio.ErrInvalidArg, "mixer.Release", "unknown node %T", n)
}

func (g *Graph) releaseNode(n Node) error {
	c := n.core()

	g.ctlMu.Lock()
	if c.ctlReleased {
		g.ctlMu.Unlock()
		return nil
	}
	c.ctlReleased = true
	if p := c.ctlParent; p != nil {
		p.ctlChildren = deleteNode(p.ctlChildren, n)
		c.ctlParent = nil
	}
	g.ctlMu.Unlock()

	return g.push(&release{n: c})
}

// Mix renders frames interleaved frames into out. It is the device
// callback body: pending commands run first, released nodes are pruned,
// then the master bus is read and the clock advances. A panic inside is
// logged and yields silence.
func (g *Graph) Mix(out []float32, frames int) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("mix panicked", "panic", r)
			clear(out)
		}
	}()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.queue.Process()

	if g.removals {
		g.master.processRemovals()
		g.removals = false
	}

	g.master.read(out, frames)

	clock := g.clock.Add(uint64(frames))
	g.master.setParentClock(clock)
}

// Close releases every node, stopping stream prefetchers.
func (g *Graph) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.queue.Process()
	for _, child := range g.master.children {
		child.core().finalize()
	}
	g.master.children = nil
}

func deleteNode(nodes []Node, n Node) []Node {
	for i, c := range nodes {
		if c == n {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// compatible reports whether PCM in spec can be mixed without resampling.
func (g *Graph) compatible(spec audio.Spec) bool {
	return spec.Freq == g.spec.Freq && spec.Channels == g.spec.Channels && spec.Format.Valid()
}
