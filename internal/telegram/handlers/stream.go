package handlers

import (
	"sync"
	"time"
)

// streamEditor mirrors a streaming answer into one chat message. Chunks
// only record the latest text; a ticker pushes it at most once per
// interval so the producer never waits on Telegram.
type streamEditor struct {
	edit     func(text string)
	interval time.Duration

	mu      sync.Mutex
	latest  string
	shown   string
	stopped bool

	done chan struct{}
	wg   sync.WaitGroup
}

func newStreamEditor(interval time.Duration, edit func(text string)) *streamEditor {
	if interval <= 0 {
		interval = time.Second
	}
	e := &streamEditor{
		edit:     edit,
		interval: interval,
		done:     make(chan struct{}),
	}

	e.wg.Add(1)
	go e.loop()
	return e
}

// Update records the running text. Safe to call after Stop.
func (e *streamEditor) Update(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.stopped {
		e.latest = text
	}
}

func (e *streamEditor) loop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.flush()
		case <-e.done:
			return
		}
	}
}

func (e *streamEditor) flush() {
	e.mu.Lock()
	text := e.latest
	if e.stopped || text == "" || text == e.shown {
		e.mu.Unlock()
		return
	}
	e.shown = text
	e.mu.Unlock()

	e.edit(text)
}

// Stop ends periodic edits; pending text is dropped in favour of the
// caller's final edit.
func (e *streamEditor) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()
}
