package aqgo

// commandQueue is the unbounded FIFO between the reader goroutine and the
// dispatch loop. A pump goroutine owns the buffer, so pushes never block on
// dispatcher activity and receive order matches receipt order.
type commandQueue struct {
	in  chan string
	out chan string
}

func newCommandQueue() *commandQueue {
	q := &commandQueue{
		in:  make(chan string),
		out: make(chan string),
	}
	go q.pump()
	return q
}

func (q *commandQueue) pump() {
	var buf []string
	in := q.in
	for in != nil || len(buf) > 0 {
		var out chan string
		var head string
		if len(buf) > 0 {
			out = q.out
			head = buf[0]
		}
		select {
		case line, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, line)
		case out <- head:
			buf = buf[1:]
		}
	}
	close(q.out)
}

// push appends one raw line. It returns as soon as the pump has taken it.
func (q *commandQueue) push(line string) { q.in <- line }

// close marks the end of input; pending lines still drain through out.
func (q *commandQueue) close() { close(q.in) }
