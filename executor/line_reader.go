package executor

import (
	"bufio"
	"io"
)

const lineQueueSize = 256

// readLines drains r on its own goroutine and publishes each line, newline
// included, on the returned channel. The channel is closed at end of stream.
// Closing done releases the goroutine if nobody is consuming anymore.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string, lineQueueSize)
	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}
