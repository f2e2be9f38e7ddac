package status

import "sync"

// Pending is the probe value while a request for the URL is in flight.
const Pending = " "

// Probes caches the last known result of each HTTP probe, keyed by URL.
// Entries are kept for the life of the process.
type Probes struct {
	mu      sync.RWMutex
	results map[string]string
}

// NewProbes returns an empty cache.
func NewProbes() *Probes {
	return &Probes{results: make(map[string]string)}
}

// Begin marks url as pending.
func (p *Probes) Begin(url string) {
	p.Set(url, Pending)
}

// Set records the result for url, replacing any earlier one.
func (p *Probes) Set(url, text string) {
	p.mu.Lock()
	p.results[url] = text
	p.mu.Unlock()
}

// Get returns the result for url.  ok is false if url was never probed.
func (p *Probes) Get(url string) (text string, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	text, ok = p.results[url]
	return text, ok
}

// Len returns the number of URLs probed so far.
func (p *Probes) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.results)
}
