package discovery

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jkindrix/claude-snatch/internal/applog"
)

// ChangeEvent reports that a project or session file under a watched
// root was created, written to, or removed.
type ChangeEvent struct {
	Path      string
	ProjectID string
	SessionID string
	Removed   bool
}

// Follower watches a log store root for live writes, so a caller can
// re-ingest only the sessions that actually changed instead of
// re-scanning the whole tree on a timer.
type Follower struct {
	root     string
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	watched map[string]struct{}
}

// NewFollower creates a Follower rooted at root. Call Start to begin
// watching; the returned channel is closed when ctx is cancelled.
func NewFollower(root string) *Follower {
	return &Follower{root: root, debounce: 200 * time.Millisecond, watched: map[string]struct{}{}}
}

// Start begins watching root and every project directory beneath it,
// emitting a ChangeEvent per debounced burst of writes to a session
// file. The caller must drain the returned channel until ctx is done.
func (f *Follower) Start(ctx context.Context) (<-chan ChangeEvent, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.watcher = w
	f.mu.Unlock()

	if err := f.addWatch(f.root); err != nil {
		_ = w.Close()
		return nil, err
	}
	projects, err := ListProjects(f.root)
	if err == nil {
		for _, p := range projects {
			_ = f.addWatch(p.Path)
		}
	}

	out := make(chan ChangeEvent, 16)
	go f.loop(ctx, out)
	return out, nil
}

func (f *Follower) addWatch(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.watched[dir]; ok {
		return nil
	}
	if err := f.watcher.Add(dir); err != nil {
		return err
	}
	f.watched[dir] = struct{}{}
	return nil
}

func (f *Follower) loop(ctx context.Context, out chan<- ChangeEvent) {
	log := applog.Named("discovery.follow")
	defer close(out)
	defer f.watcher.Close()

	type pending struct {
		timer *time.Timer
		ev    ChangeEvent
	}
	var mu sync.Mutex
	debounced := map[string]*pending{}

	emit := func(ev ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		if p, ok := debounced[ev.Path]; ok {
			p.timer.Stop()
			p.ev = ev
			p.timer.Reset(f.debounce)
			return
		}
		p := &pending{ev: ev}
		p.timer = time.AfterFunc(f.debounce, func() {
			mu.Lock()
			e := p.ev
			delete(debounced, e.Path)
			mu.Unlock()
			select {
			case out <- e:
			case <-ctx.Done():
			}
		})
		debounced[ev.Path] = p
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() &&
				ev.Op&(fsnotify.Create) != 0 {
				_ = f.addWatch(ev.Name)
				continue
			}
			if !strings.HasSuffix(ev.Name, ".jsonl") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			emit(changeEventFor(f.root, ev.Name, ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0))
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("follow watch error")
		}
	}
}

func changeEventFor(root, path string, removed bool) ChangeEvent {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ChangeEvent{Path: path, Removed: removed}
	}
	parts := strings.Split(rel, string(filepath.Separator))
	ev := ChangeEvent{Path: path, Removed: removed}
	if len(parts) >= 1 {
		ev.ProjectID = parts[0]
	}
	if len(parts) >= 2 {
		ev.SessionID = strings.TrimSuffix(parts[len(parts)-1], ".jsonl")
	}
	return ev
}

// Close stops watching and releases the underlying inotify/kqueue
// handle. Safe to call after the context passed to Start is cancelled.
func (f *Follower) Close() error {
	f.mu.Lock()
	w := f.watcher
	f.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
