// Package watch listens for new files in a drop directory. Bursts of events
// for the same path (create followed by writes while a download finishes)
// are debounced into a single callback.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	Recursive bool
	Debounce  time.Duration
	Logger    zerolog.Logger
}

// Watcher monitors one directory and reports settled files.
type Watcher struct {
	watcher   *fsnotify.Watcher
	root      string
	recursive bool
	delay     time.Duration
	onFile    func(path string)
	log       zerolog.Logger

	mu       sync.Mutex
	pending  map[string]*pendingFile
	started  bool
	stopped  bool
	inflight sync.WaitGroup
	done     chan struct{}
	loopDone chan struct{}
}

// New creates a watcher on root. onFile is called from its own goroutine once
// a path has been quiet for the debounce delay.
func New(root string, opts Options, onFile func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	w := &Watcher{
		watcher:   fsw,
		root:      root,
		recursive: opts.Recursive,
		delay:     delay,
		onFile:    onFile,
		log:       opts.Logger.With().Str("watch", root).Logger(),
		pending:   make(map[string]*pendingFile),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}

	if err := w.add(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins delivering events.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.run()
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

func (w *Watcher) add(dir string) error {
	if !w.recursive {
		return errors.Wrapf(w.watcher.Add(dir), "watch %s", dir)
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return errors.WithStack(err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return errors.Wrapf(err, "watch %s", p)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.loopDone)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Only care about writes and creates
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.handle(event)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone already, another event moved it.
		return
	}
	if !info.IsDir() {
		w.schedule(event.Name)
		return
	}
	if !w.recursive || event.Op&fsnotify.Create == 0 {
		return
	}

	// A directory moved or created inside the tree: watch it and pick up the
	// files that arrived with it.
	if err := w.add(event.Name); err != nil {
		w.log.Warn().Err(err).Msg("unable to watch new directory")
	}
	_ = filepath.WalkDir(event.Name, func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.Type().IsRegular() {
			w.schedule(p)
		}
		return nil
	})
}

type pendingFile struct {
	timer *time.Timer
}

// schedule debounces path, restarting its timer on every new event.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	p := &pendingFile{}
	p.timer = time.AfterFunc(w.delay, func() { w.fire(path, p) })
	w.pending[path] = p
}

func (w *Watcher) fire(path string, p *pendingFile) {
	w.mu.Lock()
	// A newer event replaced this timer after it had already fired.
	if w.stopped || w.pending[path] != p {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.inflight.Add(1)
	w.mu.Unlock()

	defer w.inflight.Done()
	w.onFile(path)
}

// Stop closes the watcher and waits for running callbacks.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.done)
	w.watcher.Close()
	if started {
		<-w.loopDone
	}
	w.inflight.Wait()
}
