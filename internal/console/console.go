// Package console serves an SSH-reachable line console that substitutes
// for the out-of-scope GUI's approve/reject dialog: a pending action is
// printed and the session blocks on a yes/no line from whichever client
// is attached, the same approval gate the original's approve_action
// command exposed to the Tauri window.
package console

import (
	"fmt"
	"strings"

	"github.com/gliderlabs/ssh"
	"golang.org/x/term"
)

// Gate is the shared approval channel between the orchestrator and
// whichever console session is currently attached.
type Gate struct {
	prompts chan prompt
}

type prompt struct {
	text  string
	reply chan bool
}

func NewGate() *Gate {
	return &Gate{prompts: make(chan prompt)}
}

// Ask blocks until a connected console answers yes or no to text.
func (g *Gate) Ask(text string) bool {
	reply := make(chan bool, 1)
	g.prompts <- prompt{text: text, reply: reply}
	return <-reply
}

// Server is the SSH listener accepting console sessions.
type Server struct {
	addr string
	gate *Gate
}

func NewServer(addr string, gate *Gate) *Server {
	return &Server{addr: addr, gate: gate}
}

func (s *Server) ListenAndServe() error {
	return ssh.ListenAndServe(s.addr, func(sess ssh.Session) {
		s.handle(sess)
	})
}

func (s *Server) handle(sess ssh.Session) {
	tty := term.NewTerminal(sess, "pcagent> ")
	fmt.Fprintln(sess, "pc-automation-agent remote console. Waiting for pending actions...")

	for {
		select {
		case p, ok := <-s.gate.prompts:
			if !ok {
				return
			}
			fmt.Fprintf(sess, "\n%s\napprove? [y/N]: ", p.text)
			line, err := tty.ReadLine()
			if err != nil {
				p.reply <- false
				return
			}
			p.reply <- strings.EqualFold(strings.TrimSpace(line), "y")
		case <-sess.Context().Done():
			return
		}
	}
}
