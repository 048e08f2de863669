package persistence

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/uprising/internal/rebellion"
)

// Archiver writes compressed weekly state snapshots to disk so past weeks
// can be inspected or restored after the live row has moved on.
type Archiver struct {
	dir string
}

// NewArchiver creates the archive directory if needed.
func NewArchiver(dir string) (*Archiver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archiver{dir: dir}, nil
}

func (a *Archiver) pathForWeek(week int) string {
	return filepath.Join(a.dir, fmt.Sprintf("week_%05d.json.zst", week))
}

// ArchiveWeek writes the state as a compressed snapshot named for its
// week. Writing the same week twice replaces the snapshot.
func (a *Archiver) ArchiveWeek(st *rebellion.State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := a.pathForWeek(st.Week) + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, a.pathForWeek(st.Week))
}

// LoadWeek reads an archived snapshot back into a state.
func (a *Archiver) LoadWeek(week int) (*rebellion.State, error) {
	f, err := os.Open(a.pathForWeek(week))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	return rebellion.FromDocument(raw)
}

// Weeks lists archived week numbers in ascending order.
func (a *Archiver) Weeks() ([]int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}
	var weeks []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "week_") || !strings.HasSuffix(name, ".json.zst") {
			continue
		}
		numPart := strings.TrimSuffix(strings.TrimPrefix(name, "week_"), ".json.zst")
		w, err := strconv.Atoi(numPart)
		if err != nil {
			continue
		}
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}
