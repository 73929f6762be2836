package arbor

import (
	"container/list"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
)

// SceneSource supplies the raw bytes of a scene resource. Loading is the
// runtime's only asynchronous path; sources may be hit from loader
// goroutines.
type SceneSource interface {
	Open(path string) ([]byte, error)
}

// FSSource reads scene files from an fs.FS.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a source over the given filesystem.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Open reads the file at path.
func (s *FSSource) Open(path string) ([]byte, error) {
	return fs.ReadFile(s.fsys, path)
}

// MemorySource serves scene documents from an in-memory map. Useful for
// tests and embedded scenes.
type MemorySource struct {
	Files map[string][]byte
}

// Open returns the document stored under path.
func (s *MemorySource) Open(path string) ([]byte, error) {
	data, ok := s.Files[path]
	if !ok {
		return nil, eris.Errorf("scene resource %q not found", path)
	}
	return data, nil
}

// nodeMemoryEstimate is the per-node overhead charged to the cache on top
// of the serialized document size.
const nodeMemoryEstimate = 256

// CacheStats is a snapshot of the preload cache for observability.
type CacheStats struct {
	Count       int
	ApproxBytes int64
	Hits        uint64
	Misses      uint64
	Evictions   uint64
}

type cacheEntry struct {
	path  string
	scene *Scene
	size  int64
	elem  *list.Element
}

// Loader resolves scene paths into Scene instances through a bounded LRU
// preload cache. Loads for the same path are coalesced: concurrent callers
// share one in-flight load and resolve to the same instance. Loads are not
// cancellable; coalescing replaces cancellation for this path.
type Loader struct {
	ctx    *Context
	flight singleflight.Group

	mu         sync.Mutex
	entries    map[string]*cacheEntry
	lru        *list.List     // front = most recently used
	pinned     map[string]int // pin count per path; pinned entries never evict
	totalBytes int64
	hits       uint64
	misses     uint64
	evictions  uint64

	loadCount atomic.Int64
}

// NewLoader creates a loader bound to the context's scene source and cache
// budgets.
func NewLoader(ctx *Context) *Loader {
	return &Loader{
		ctx:     ctx,
		entries: map[string]*cacheEntry{},
		lru:     list.New(),
		pinned:  map[string]int{},
	}
}

// Pin marks path as non-evictable until a matching Unpin. Pins nest: a path
// pinned twice needs two Unpins. The scene tree pins every path on its
// navigation stack so cache pressure cannot unload a scene GoBack still
// needs.
func (l *Loader) Pin(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pinned[path]++
}

// Unpin releases one Pin on path.
func (l *Loader) Unpin(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pinned[path] <= 1 {
		delete(l.pinned, path)
		return
	}
	l.pinned[path]--
}

// LoadCount returns the number of loads actually executed, excluding cache
// hits and coalesced callers.
func (l *Loader) LoadCount() int64 { return l.loadCount.Load() }

// PreloadScene resolves path to a Scene, via the cache or a fresh load.
// At most one load per path is in flight at a time; every caller of an
// in-flight path shares its result. On failure the partially built scene
// is torn down and a SceneLoadError returned.
func (l *Loader) PreloadScene(path string) (*Scene, error) {
	if l.ctx == nil || !l.ctx.ready() {
		return nil, &LifecycleError{Op: "PreloadScene", Msg: "context not initialized"}
	}
	if scene := l.cached(path); scene != nil {
		return scene, nil
	}
	result, err, _ := l.flight.Do(path, func() (any, error) {
		// A caller that lost the race to a completed load still hits the
		// cache here instead of loading again.
		if scene := l.cached(path); scene != nil {
			return scene, nil
		}
		return l.load(path)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Scene), nil
}

// PreloadScenes loads each path in order, reporting progress after every
// completed load. Stops at the first failure.
func (l *Loader) PreloadScenes(paths []string, onProgress func(done, total int, path string)) ([]*Scene, error) {
	scenes := make([]*Scene, 0, len(paths))
	for i, path := range paths {
		scene, err := l.PreloadScene(path)
		if err != nil {
			return scenes, err
		}
		scenes = append(scenes, scene)
		if onProgress != nil {
			onProgress(i+1, len(paths), path)
		}
	}
	return scenes, nil
}

// load executes one real load: read, deserialize, cache.
func (l *Loader) load(path string) (*Scene, error) {
	l.loadCount.Add(1)
	l.mu.Lock()
	l.misses++
	l.mu.Unlock()

	logger := l.ctx.Logger()
	scene := newLoadingScene(l.ctx, path)
	_ = scene.transitionTo(SceneLoading)

	source := l.ctx.source
	if source == nil {
		_ = scene.transitionTo(SceneUnloaded)
		return nil, &SceneLoadError{Path: path, Err: eris.New("no scene source configured")}
	}
	data, err := source.Open(path)
	if err != nil {
		_ = scene.transitionTo(SceneUnloaded)
		return nil, &SceneLoadError{Path: path, Err: eris.Wrap(err, "read scene resource")}
	}

	reg := NewRegistry()
	root, err := deserialize(data, reg, logger)
	if err != nil {
		// Tear down whatever was built before the failure; nothing stays
		// half-attached.
		for _, n := range reg.Nodes() {
			if n.Parent == nil {
				n.Destroy()
			}
		}
		_ = scene.transitionTo(SceneUnloaded)
		return nil, &SceneLoadError{Path: path, Err: eris.Wrap(err, "decode scene resource")}
	}

	scene.root = root
	if root.Name != "" {
		scene.Name = root.Name
	}
	scene.approxSize = int64(len(data)) + int64(root.CountNodes())*nodeMemoryEstimate
	if err := scene.transitionTo(SceneReady); err != nil {
		return nil, &SceneLoadError{Path: path, Err: err}
	}

	l.insert(path, scene)
	logger.Debug().Str("path", path).Int("nodes", root.CountNodes()).Msg("scene loaded")
	return scene, nil
}

// cached returns the cache entry for path, promoting it to most recently
// used, or nil.
func (l *Loader) cached(path string) *Scene {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[path]
	if !ok {
		return nil
	}
	l.hits++
	l.lru.MoveToFront(entry.elem)
	return entry.scene
}

// Contains reports whether path is cached.
func (l *Loader) Contains(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[path]
	return ok
}

// insert adds a loaded scene and evicts least-recently-used entries until
// the cache fits its budgets again. Attached scenes are dropped from the
// cache without being unloaded.
func (l *Loader) insert(path string, scene *Scene) {
	cfg := l.ctx.Config()
	l.mu.Lock()
	var evicted []*Scene
	if old, ok := l.entries[path]; ok {
		l.lru.Remove(old.elem)
		l.totalBytes -= old.size
		delete(l.entries, path)
	}
	entry := &cacheEntry{path: path, scene: scene, size: scene.approxSize}
	entry.elem = l.lru.PushFront(entry)
	l.entries[path] = entry
	l.totalBytes += entry.size

	for len(l.entries) > cfg.CacheMaxScenes || l.totalBytes > cfg.CacheMaxBytes {
		// The newest entry never evicts; pinned entries are passed over.
		var back *list.Element
		for e := l.lru.Back(); e != nil && e != l.lru.Front(); e = e.Prev() {
			if l.pinned[e.Value.(*cacheEntry).path] == 0 {
				back = e
				break
			}
		}
		if back == nil {
			break
		}
		victim := back.Value.(*cacheEntry)
		l.lru.Remove(back)
		delete(l.entries, victim.path)
		l.totalBytes -= victim.size
		l.evictions++
		evicted = append(evicted, victim.scene)
	}
	l.mu.Unlock()

	for _, s := range evicted {
		l.ctx.Logger().Debug().Str("path", s.Path).Msg("scene evicted from preload cache")
		if s.root != nil && !s.root.IsInsideTree() && s.state == SceneReady {
			_ = s.Unload()
		}
	}
}

// Evict removes path from the cache, unloading the scene if it is neither
// attached to a tree nor pinned.
func (l *Loader) Evict(path string) {
	l.mu.Lock()
	entry, ok := l.entries[path]
	if ok {
		l.lru.Remove(entry.elem)
		l.totalBytes -= entry.size
		delete(l.entries, path)
	}
	keepLoaded := l.pinned[path] > 0
	l.mu.Unlock()
	if ok && !keepLoaded {
		s := entry.scene
		if s.root != nil && !s.root.IsInsideTree() && s.state == SceneReady {
			_ = s.Unload()
		}
	}
}

// CacheStats returns the cache's current counters.
func (l *Loader) CacheStats() CacheStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CacheStats{
		Count:       len(l.entries),
		ApproxBytes: l.totalBytes,
		Hits:        l.hits,
		Misses:      l.misses,
		Evictions:   l.evictions,
	}
}
