package routes

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

var builtinJokes = []string{
	"An IPv4 address space walks into a bar, \"A strong CIDR please. I'm exhausted.\"",
	"A TCP packet walks into a bar \"I want a beer.\" Bartender responds \"You want a beer?\" Packet responds \"I want a beer.\"",
	"DNS servers must feel sad, nobody calls them by their name.",
	"I'd tell you the one about the CIDR block, but you're too classy.",
	"A UDP packet walks into a bar without a checksum. Nobody cares.",
	"Chuck Norris doesn't do TCP handshake - he does TCP roundhouse-kick to initiate the connection",
	"Doctor: What seems to be the problem? Router: It hurts when IP.",
	"I tried to come up with an IPv4 joke, but the good ones were all already exhausted.",
	"The best thing about UDP jokes is that I don't care if you get them or not.",
	"People who tell routing jokes always exceed their time-to-live.",
	"The problem with TCP/IP jokes is that when I tell them, all I want is an ACK but usually get FINs and RSTs",
	"I had a funny UDP joke to tell, but I lost it somewhere&#8230;",
	"The worst part about HTTP jokes is that you can never remember in which state you heard the last one.",
	"HTTP jokes are rarely better than OK",
	"I really don't GET HTTP 404 jokes.",
}

var errNoJokes = errors.New("jokes file contains no jokes")

// JokeBook holds the joke table served by /joke. The table is swapped
// atomically on reload, readers never lock.
type JokeBook struct {
	path  string
	jokes atomic.Pointer[[]string]
}

// NewJokeBook starts with the built-in table. path, if set, is the file
// Reload and Watch read from.
func NewJokeBook(path string) *JokeBook {
	b := &JokeBook{path: path}
	jokes := slices.Clone(builtinJokes)
	b.jokes.Store(&jokes)
	return b
}

func (b *JokeBook) Path() string { return b.path }

// Jokes returns the current table. It is never empty.
func (b *JokeBook) Jokes() []string {
	return *b.jokes.Load()
}

// Reload reads the jokes file, one joke per line. Blank lines and lines
// starting with '#' are skipped. On any error the current table is kept.
func (b *JokeBook) Reload() error {
	if b.path == "" {
		return nil
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("read jokes file: %w", err)
	}

	jokes, err := parseJokes(data)
	if err != nil {
		return err
	}

	b.jokes.Store(&jokes)
	return nil
}

func parseJokes(data []byte) ([]string, error) {
	var jokes []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		jokes = append(jokes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan jokes file: %w", err)
	}

	if len(jokes) == 0 {
		return nil, errNoJokes
	}
	return jokes, nil
}

// Watch reloads the jokes file whenever it changes until ctx is done. The
// parent directory is watched so editors that replace the file on save are
// picked up too.
func (b *JokeBook) Watch(ctx context.Context, log zerolog.Logger) error {
	if b.path == "" {
		return errors.New("no jokes file configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	target := filepath.Clean(b.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}

				if err := b.Reload(); err != nil {
					log.Warn().Err(err).Str("file", target).Msg("jokes reload failed, keeping previous table")
					continue
				}
				log.Info().Str("file", target).Int("jokes", len(b.Jokes())).Msg("jokes reloaded")

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("jokes watcher error")
			}
		}
	}()

	return nil
}
