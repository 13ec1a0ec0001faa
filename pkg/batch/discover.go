// Package batch finds lum/raw capture pairs in a directory and pushes
// them through the pipeline in parallel, one independent frame per worker.
package batch

import(
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abworrall/skycolor/pkg/frameio"
)

const(
	LumPrefix   = "lum_"
	ColorPrefix = "raw_"
)

// A Pair is one capture: a luminance file and a color file that share
// an ID (the timestamp part of the filename).
type Pair struct {
	ID        string
	LumPath   string
	ColorPath string
}

func (p Pair)String() string {
	return fmt.Sprintf("%s [%s + %s]", p.ID, filepath.Base(p.LumPath), filepath.Base(p.ColorPath))
}

type Discovery struct {
	Pairs     []Pair
	Unmatched []string // files with a known prefix, but no partner
}

// splitName returns the prefix ("lum_" or "raw_") and the ID of a
// capture filename, or ok=false.
func splitName(name string) (prefix, id string, ok bool) {
	if !frameio.IsSupported(name) {
		return "", "", false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, pre := range []string{LumPrefix, ColorPrefix} {
		if strings.HasPrefix(stem, pre) && len(stem) > len(pre) {
			return pre, strings.TrimPrefix(stem, pre), true
		}
	}
	return "", "", false
}

// DiscoverPairs matches lum_<id>.<ext> with raw_<id>.<ext> in `dir`.
// Pairs come back newest first (IDs are timestamps, so lexical order
// works); limit > 0 keeps only that many.
func DiscoverPairs(dir string, limit int) (Discovery, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Discovery{}, fmt.Errorf("readdir '%s': %w", dir, err)
	}

	lums, cols := map[string]string{}, map[string]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		pre, id, ok := splitName(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if pre == LumPrefix {
			lums[id] = path
		} else {
			cols[id] = path
		}
	}

	d := Discovery{}
	for id, lum := range lums {
		if col, exists := cols[id]; exists {
			d.Pairs = append(d.Pairs, Pair{ID: id, LumPath: lum, ColorPath: col})
		} else {
			d.Unmatched = append(d.Unmatched, lum)
		}
	}
	for id, col := range cols {
		if _, exists := lums[id]; !exists {
			d.Unmatched = append(d.Unmatched, col)
		}
	}

	sort.Slice(d.Pairs, func(i, j int) bool { return d.Pairs[i].ID > d.Pairs[j].ID })
	sort.Strings(d.Unmatched)

	if limit > 0 && len(d.Pairs) > limit {
		d.Pairs = d.Pairs[:limit]
	}
	return d, nil
}

// IDFromPath recovers the capture ID from a luminance filename, falling
// back to the bare stem for files that don't follow the naming scheme.
func IDFromPath(path string) string {
	name := filepath.Base(path)
	if _, id, ok := splitName(name); ok {
		return id
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
