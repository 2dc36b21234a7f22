package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// spinner shows that a long call is in flight. It stays silent in verbose mode,
// where progress lines are printed instead.
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// startSpinner prints message and animates it until the returned spinner is stopped.
func startSpinner(message string) (s *spinner) {
	s = &spinner{
		out:     os.Stdout,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if getVerbose() {
		fmt.Fprintln(s.out, message)
		close(s.done)
		return s
	}

	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.done)

	frames := []string{"|", "/", "-", "\\"}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	fmt.Fprintf(s.out, "%s ", s.message)
	for i := 0; ; i++ {
		select {
		case <-s.stop:
			fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+2))
			return
		case <-ticker.C:
			fmt.Fprintf(s.out, "\r%s %s", s.message, frames[i%len(frames)])
		}
	}
}

// finish stops the animation and waits for the line to be cleared.
func (s *spinner) finish() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}
