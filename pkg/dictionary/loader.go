// Package dictionary loads candidate lists from disk into a suggest.Store
// and reloads them on demand.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// LoadWordList reads one candidate list file. Text files hold one candidate
// per line; blank lines and lines starting with '#' are skipped. Repeated
// candidates are dropped, first occurrence wins.
func LoadWordList(path string) ([]string, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var words []string
	switch format {
	case FormatPacked:
		if err := msgpack.NewDecoder(bufio.NewReader(file)).Decode(&words); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	default:
		words, err = ReadWordList(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return utils.Unique(words), nil
}

// ReadWordList parses the text list format from r.
func ReadWordList(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// SavePacked writes words as a packed candidate list.
func SavePacked(path string, words []string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := msgpack.Marshal(words)
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// source is everything a trigger's list is built from.
type source struct {
	inline []string
	path   string
}

// LoaderStats provides statistics about the loaded lists
type LoaderStats struct {
	Triggers   int `msgpack:"triggers"`
	Candidates int `msgpack:"candidates"`
	Files      int `msgpack:"files"`
	Failed     int `msgpack:"failed"`
}

// Loader fills a store from inline lists and list files and can rebuild it
// when the files change on disk.
type Loader struct {
	baseDir string
	store   *suggest.Store
	sources map[string]source
	mu      sync.Mutex
}

// NewLoader creates a loader writing into store. Relative list paths are
// resolved against baseDir.
func NewLoader(baseDir string, store *suggest.Store) *Loader {
	return &Loader{
		baseDir: baseDir,
		store:   store,
		sources: make(map[string]source),
	}
}

// Store returns the store the loader fills.
func (l *Loader) Store() *suggest.Store { return l.store }

// Register sets the list of token to inline followed by the contents of
// path, which may be empty. A file that fails to load is logged and the
// inline candidates are kept.
func (l *Loader) Register(token string, inline []string, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src := source{inline: slices.Clone(inline), path: l.resolve(path)}
	l.sources[token] = src
	_, err := l.load(token, src)
	return err
}

// Reload re-reads every registered file and rebuilds the store.
func (l *Loader) Reload() (LoaderStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokens := make([]string, 0, len(l.sources))
	for token := range l.sources {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	var stats LoaderStats
	var firstErr error
	for _, token := range tokens {
		src := l.sources[token]
		n, err := l.load(token, src)
		stats.Triggers++
		stats.Candidates += n
		if src.path != "" {
			stats.Files++
		}
		if err != nil {
			stats.Failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	log.Debugf("Reloaded %d triggers, %s candidates", stats.Triggers, utils.FormatWithCommas(stats.Candidates))
	return stats, firstErr
}

func (l *Loader) load(token string, src source) (int, error) {
	words := slices.Clone(src.inline)
	var err error
	if src.path != "" {
		var fromFile []string
		fromFile, err = LoadWordList(src.path)
		if err != nil {
			log.Warnf("Failed to load candidates for %q from %s: %v", token, src.path, err)
		} else {
			words = append(words, fromFile...)
		}
	}
	l.store.Set(token, words)
	list, _ := l.store.Candidates(token)
	return len(list), err
}

func (l *Loader) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || l.baseDir == "" {
		return path
	}
	return filepath.Join(l.baseDir, path)
}
