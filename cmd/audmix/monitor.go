// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/mixer"
)

const (
	monitorInterval = 100 * time.Millisecond
	volumeStep      = 0.05
	panStep         = 0.1
)

type tickMsg time.Time

// monitor is the play --tui model. It also drives engine.Update, so the
// engine is only touched from the bubbletea goroutine.
type monitor struct {
	e      *engine.Engine
	c      *chain
	voices []*mixer.Voice
	names  []string

	volume float32
	pan    float32
	paused bool
	err    error
}

func newMonitor(e *engine.Engine, c *chain, voices []*mixer.Voice, files []string) monitor {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}

	m := monitor{
		e:      e,
		c:      c,
		voices: voices,
		names:  names,
		volume: c.bus.Volume(),
	}
	if c.pan != nil {
		m.pan = c.pan.Position()
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(monitorInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m monitor) Init() tea.Cmd { return tick() }

func (m monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.e.Update()
		if m.allFinished() {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m monitor) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
		if m.paused {
			m.err = m.c.bus.Pause()
		} else {
			m.err = m.c.bus.Unpause()
		}
	case "up", "+":
		m.volume = min(m.volume+volumeStep, 2)
		m.err = m.c.bus.SetVolume(m.volume)
	case "down", "-":
		m.volume = max(m.volume-volumeStep, 0)
		m.err = m.c.bus.SetVolume(m.volume)
	case "left", "right":
		if m.c.pan == nil {
			break
		}
		if msg.String() == "left" {
			m.pan = max(m.pan-panStep, -1)
		} else {
			m.pan = min(m.pan+panStep, 1)
		}
		m.err = m.c.pan.SetPosition(m.pan)
	case "r":
		for _, v := range m.voices {
			if err := v.Seek(0); err != nil {
				m.err = err
			}
		}
	}
	return m, nil
}

func (m monitor) allFinished() bool {
	for _, v := range m.voices {
		if v.State() != mixer.Finished {
			return false
		}
	}
	return true
}

func (m monitor) View() string {
	spec := m.e.Spec()
	var b strings.Builder

	clock := time.Duration(m.e.Clock()) * time.Second / time.Duration(max(spec.Freq, 1))
	fmt.Fprintf(&b, "audmix  %s  %s\n\n", spec, clock.Truncate(10*time.Millisecond))

	state := "playing"
	if m.paused {
		state = "paused"
	}
	fmt.Fprintf(&b, "bus     %-8s volume %s %3.0f%%", state, bar(m.volume/2, 20), m.volume*100)
	if m.c.pan != nil {
		fmt.Fprintf(&b, "  pan %+.1f", m.pan)
	}
	b.WriteString("\n\n")

	for i, v := range m.voices {
		pos := time.Duration(v.Position()) * time.Second / time.Duration(max(spec.Freq, 1))
		fmt.Fprintf(&b, "  %-32s %-12s %s\n", truncate(m.names[i], 32), v.State(), pos.Truncate(100*time.Millisecond))
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\nerror: %v\n", m.err)
	}
	b.WriteString("\nspace:pause  ↑/↓:volume  ←/→:pan  r:restart  q:quit\n")
	return b.String()
}

func bar(frac float32, width int) string {
	n := int(frac*float32(width) + 0.5)
	n = max(0, min(n, width))
	return "[" + strings.Repeat("█", n) + strings.Repeat("░", width-n) + "]"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
