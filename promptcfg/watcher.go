package promptcfg

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/logger"
)

// Watcher watches the reference directory and re-syncs the prompt config
// whenever condition.txt or template.txt change. Rapid editor save bursts
// are debounced into one sync.
type Watcher struct {
	referenceDir   string
	configPath     string
	watcher        *fsnotify.Watcher
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	mu             sync.Mutex
	done           chan struct{}
}

// NewWatcher creates a watcher over referenceDir
func NewWatcher(referenceDir, configPath string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(referenceDir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", referenceDir)
	}

	return &Watcher{
		referenceDir:   referenceDir,
		configPath:     configPath,
		watcher:        fw,
		debouncePeriod: 500 * time.Millisecond,
		done:           make(chan struct{}),
	}, nil
}

// Start begins watching for reference file changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop ends watching and releases the underlying watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isReferenceFile(event.Name) {
				continue
			}
			logger.Logger.Infow("reference file changed",
				logger.FieldPath, event.Name,
				"op", event.Op.String())
			w.scheduleSync()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Logger.Warnw("reference watcher error",
				logger.FieldReason, err.Error())
		}
	}
}

// scheduleSync debounces rapid file changes into one sync
func (w *Watcher) scheduleSync() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		if err := Sync(w.referenceDir, w.configPath); err != nil {
			logger.Logger.Errorw("prompt config sync failed",
				logger.FieldReason, err.Error())
			return
		}
		logger.Logger.Infow("prompt config synced",
			logger.FieldPath, w.configPath)
	})
}

func isReferenceFile(path string) bool {
	base := filepath.Base(path)
	return base == ConditionFile || base == TemplateFile
}
