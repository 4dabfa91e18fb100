// Copyright (c) 2016 Company 0, LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tui is the terminal chat front end described in SPEC_FULL.md
// §4.11: a scrollback of received lines over an input line, backed by a
// single *session.Session. It takes the overall shape of
// zkclient/mainwindow.go (title/status/scrollback/input, history of
// commands) but is built directly on termbox-go instead of
// github.com/companyzero/ttk, since this spec has one peer and one
// session rather than ttk's multi-window, multi-conversation model.
package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsf/termbox-go"

	"github.com/kareemv/securechat/session"
)

// Chat drives a terminal UI over a single established session. Run
// blocks until the user quits (Esc/Ctrl-C) or ctx is canceled. When the
// peer disconnects, a "* disconnected" line is added to the scrollback
// and Run keeps running.
type Chat struct {
	sess *session.Session
	peer string

	mu    sync.Mutex
	lines []string
	input []rune

	done chan struct{}
}

// New builds a Chat over sess. peerLabel is used to prefix received
// lines in the scrollback.
func New(sess *session.Session, peerLabel string) *Chat {
	return &Chat{sess: sess, peer: peerLabel, done: make(chan struct{})}
}

// Run initializes the terminal, starts the background receive loop,
// and drives the input event loop until exit.
func (c *Chat) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc)

	go c.recvLoop()
	go func() {
		<-ctx.Done()
		close(c.done)
		termbox.Interrupt()
	}()

	c.redraw()
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			if quit := c.handleKey(ev); quit {
				return nil
			}
		case termbox.EventResize:
			c.redraw()
		case termbox.EventInterrupt:
			select {
			case <-c.done:
				return ctx.Err()
			default:
			}
			c.redraw()
		case termbox.EventError:
			return ev.Err
		}
	}
}

// recvLoop pulls plaintext messages off the session and appends them
// to the scrollback, waking the poll loop via termbox.Interrupt since
// PollEvent otherwise only returns on local input.
func (c *Chat) recvLoop() {
	for {
		msg, err := c.sess.Receive()
		if err != nil {
			c.appendLine(fmt.Sprintf("* disconnected: %v", err))
			termbox.Interrupt()
			return
		}
		c.appendLine(fmt.Sprintf("%s: %s", c.peer, string(msg)))
		termbox.Interrupt()
	}
}

func (c *Chat) appendLine(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

// handleKey applies one key event to the input buffer and returns true
// if the user asked to quit.
func (c *Chat) handleKey(ev termbox.Event) bool {
	switch ev.Key {
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return true
	case termbox.KeyEnter:
		c.submit()
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		c.mu.Lock()
		if len(c.input) > 0 {
			c.input = c.input[:len(c.input)-1]
		}
		c.mu.Unlock()
	case termbox.KeySpace:
		c.mu.Lock()
		c.input = append(c.input, ' ')
		c.mu.Unlock()
	default:
		if ev.Ch != 0 {
			c.mu.Lock()
			c.input = append(c.input, ev.Ch)
			c.mu.Unlock()
		}
	}
	c.redraw()
	return false
}

// submit sends the current input line as one frame and echoes it to
// the local scrollback.
func (c *Chat) submit() {
	c.mu.Lock()
	text := string(c.input)
	c.input = c.input[:0]
	c.mu.Unlock()

	if text == "" {
		return
	}
	if err := c.sess.Send([]byte(text)); err != nil {
		c.appendLine(fmt.Sprintf("* send failed: %v", err))
		return
	}
	c.appendLine(fmt.Sprintf("me: %s", text))
}

func (c *Chat) redraw() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	w, h := termbox.Size()

	c.mu.Lock()
	lines := append([]string(nil), c.lines...)
	input := string(c.input)
	c.mu.Unlock()

	visible := h - 2
	if visible < 0 {
		visible = 0
	}
	start := 0
	if len(lines) > visible {
		start = len(lines) - visible
	}
	for y, line := range lines[start:] {
		drawString(0, y, line, w)
	}

	drawString(0, h-2, separator(w), w)
	drawString(0, h-1, "> "+input, w)

	termbox.SetCursor(2+len(input), h-1)
	termbox.Flush()
}

func drawString(x, y int, s string, maxWidth int) {
	for i, r := range []rune(s) {
		if x+i >= maxWidth {
			break
		}
		termbox.SetCell(x+i, y, r, termbox.ColorDefault, termbox.ColorDefault)
	}
}

func separator(n int) string {
	rs := make([]rune, n)
	for i := range rs {
		rs[i] = '-'
	}
	return string(rs)
}
