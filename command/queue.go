// SPDX-License-Identifier: EPL-2.0

package command

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
)

// Command is a deferred mutation. Execute runs on the goroutine that
// drains the queue and must not push onto that same queue.
type Command interface {
	Execute()
}

// Func adapts a plain function to Command.
type Func func()

func (f Func) Execute() { f() }

// Queue collects commands from any goroutine and runs them in push order
// when drained. The zero value is ready to use.
type Queue struct {
	mu   sync.Mutex
	cmds []Command
	// spare is the batch drained last time, reused for the next pushes.
	spare []Command

	// drainer is the id of the goroutine running commands, 0 when idle.
	drainer atomic.Uint64

	Logger *slog.Logger
}

// New returns a queue with room for capacity commands before it grows.
func New(capacity int, logger *slog.Logger) *Queue {
	return &Queue{
		cmds:   make([]Command, 0, capacity),
		spare:  make([]Command, 0, capacity),
		Logger: logger,
	}
}

func (q *Queue) logger() *slog.Logger {
	if q.Logger != nil {
		return q.Logger
	}
	return slog.Default()
}

// Push appends cmd. Pushing from inside a command of the drain in
// progress is refused with audio.ErrLogic; the command is dropped.
func (q *Queue) Push(cmd Command) error {
	if id := q.drainer.Load(); id != 0 && id == goid() {
		q.logger().Error("command pushed while draining, dropped",
			"component", "command",
			"command", fmt.Sprintf("%T", cmd),
		)
		return audio.Errorf(audio.ErrLogic, "command.Push", "push of %T from inside a drain", cmd)
	}

	q.mu.Lock()
	q.cmds = append(q.cmds, cmd)
	q.mu.Unlock()
	return nil
}

func (q *Queue) PushFunc(fn func()) error {
	return q.Push(Func(fn))
}

// Process drains the queue under its lock.
func (q *Queue) Process() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ProcessLocked()
}

// ProcessLocked drains the queue. The caller must hold the lock, see Lock
// and Guard.
//
// The batch is detached before it runs, so every command executes at most
// once. A command that panics is logged and dropped; the rest of the batch
// still runs.
func (q *Queue) ProcessLocked() {
	if len(q.cmds) == 0 {
		return
	}

	batch := q.cmds
	q.cmds = q.spare[:0]

	q.drainer.Store(goid())
	defer func() {
		q.drainer.Store(0)
		clear(batch)
		q.spare = batch[:0]
	}()

	for _, cmd := range batch {
		q.execute(cmd)
	}
}

func (q *Queue) execute(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			q.logger().Error("command panicked, dropped",
				"component", "command",
				"command", fmt.Sprintf("%T", cmd),
				"panic", r,
			)
		}
	}()
	cmd.Execute()
}

func (q *Queue) Lock()   { q.mu.Lock() }
func (q *Queue) Unlock() { q.mu.Unlock() }

// Guard locks the queue and returns the matching unlock:
//
//	defer q.Guard()()
func (q *Queue) Guard() func() {
	q.mu.Lock()
	return q.mu.Unlock
}

// Len is the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.cmds)
}

var goroutinePrefix = []byte("goroutine ")

// goid parses the current goroutine id out of its stack header,
// "goroutine 42 [running]:".
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)

	var id uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
