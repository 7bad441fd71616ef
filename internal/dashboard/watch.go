package dashboard

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/firefly-engineering/conduit-console/internal/logging"
)

// Watcher signals when conduit metadata files are added or removed.
type Watcher struct {
	w       *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWatcher watches dir for *.toml create, remove and rename events.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		w:       fw,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes returns a channel that receives a value after relevant events.
// Bursts are coalesced into a single value.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			logging.Debug("conduit directory changed", "op", ev.Op.String(), "path", ev.Name)
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			logging.Debug("watcher error", "error", err)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != ".toml" {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Write)
}

// Close stops the watcher, waits for its goroutine to exit and closes
// the Changes channel.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.w.Close()
		w.wg.Wait()
		close(w.changes)
	})
	return err
}
