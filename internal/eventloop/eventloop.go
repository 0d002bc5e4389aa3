// Package eventloop implements the single-threaded cooperative dispatch
// loop the core runs on (spec §5, §9). Everything the core touches
// (socket/transport callbacks, timer firings, telephony responses) is
// funneled through one goroutine so the data model never needs locks.
//
// The three primitives named in spec §9 Design Notes map onto this
// package as: watch(fd, ...) is the collaborator delivering an event via
// Post (fd-level polling is a kernel/driver concern, explicitly out of
// scope per spec §1); after(duration, fn) is After; cancel(token) is
// Cancel.
package eventloop

import (
	"sync"
	"time"
)

// Token identifies a scheduled timer so it can be cancelled.
type Token uint64

// Loop is a single-goroutine task queue. All functions submitted to it,
// whether via Post or as a timer firing via After, run strictly
// serially, in submission order for Post, and in fire order for timers.
type Loop struct {
	tasks chan func()
	done  chan struct{}

	mu      sync.Mutex
	timers  map[Token]*time.Timer
	nextTok Token
}

// New creates a Loop with the given task queue depth. A depth of 0 makes
// Post block until the loop goroutine receives the task, so a Post issued
// from a task already running on the loop never completes; callers that
// post from inside loop tasks need a non-zero depth.
func New(queueDepth int) *Loop {
	return &Loop{
		tasks:  make(chan func(), queueDepth),
		done:   make(chan struct{}),
		timers: make(map[Token]*time.Timer),
	}
}

// Run processes tasks until Stop is called. Call it from the one
// goroutine that is to be "the event loop"; every other goroutine in the
// process must reach the core only through Post/After.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return
		}
	}
}

// Post enqueues fn to run on the loop goroutine. Safe to call from any
// goroutine. Called from within a task already running on the loop, it
// blocks forever once the queue is full, since only the loop goroutine
// drains the queue.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// After schedules fn to run on the loop goroutine once after d elapses.
// The returned Token can be passed to Cancel before it fires.
func (l *Loop) After(d time.Duration, fn func()) Token {
	l.mu.Lock()
	tok := l.nextTok
	l.nextTok++
	timer := time.AfterFunc(d, func() {
		l.mu.Lock()
		_, stillArmed := l.timers[tok]
		if stillArmed {
			delete(l.timers, tok)
		}
		l.mu.Unlock()
		if stillArmed {
			l.Post(fn)
		}
	})
	l.timers[tok] = timer
	l.mu.Unlock()
	return tok
}

// Every schedules fn to run on the loop goroutine, repeating every d
// until Cancel(token) is called. Used by the ring scheduler (spec §4.I).
func (l *Loop) Every(d time.Duration, fn func()) Token {
	l.mu.Lock()
	tok := l.nextTok
	l.nextTok++
	l.mu.Unlock()

	var arm func()
	arm = func() {
		l.mu.Lock()
		_, stillArmed := l.timers[tok]
		l.mu.Unlock()
		if !stillArmed {
			return
		}
		fn()
		l.mu.Lock()
		_, stillArmed = l.timers[tok]
		if stillArmed {
			l.timers[tok] = time.AfterFunc(d, func() { l.Post(arm) })
		}
		l.mu.Unlock()
	}

	l.mu.Lock()
	l.timers[tok] = time.AfterFunc(d, func() { l.Post(arm) })
	l.mu.Unlock()
	return tok
}

// Cancel disarms a timer scheduled via After or Every. Idempotent: a
// Token that already fired (After) or was already cancelled is a no-op.
func (l *Loop) Cancel(tok Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if timer, ok := l.timers[tok]; ok {
		timer.Stop()
		delete(l.timers, tok)
	}
}

// Stop terminates Run. Pending timers are left to fire harmlessly: their
// Post either lands in the queue, which nothing drains any more, or
// returns because done is closed.
func (l *Loop) Stop() {
	close(l.done)
}
