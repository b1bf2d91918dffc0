// Package assets resolves symbolic SVG asset ids to bytes. The default set is embedded; any fs.FS
// can replace or extend it.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var ErrAssetNotFound = errors.New("asset not found")

//go:embed svgs
var embedded embed.FS

// Resolver maps an asset id such as "pieces/cburnett/w_k" to SVG bytes.
type Resolver interface {
	Resolve(id string) ([]byte, error)
}

// FSResolver reads "<id>.svg" from a file system.
type FSResolver struct {
	fsys fs.FS
}

func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{fsys: fsys}
}

// NewDirResolver serves assets from a directory on disk.
func NewDirResolver(dir string) (*FSResolver, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("svgs path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("svgs path %s is not a directory", dir)
	}
	return NewFSResolver(os.DirFS(dir)), nil
}

func (r *FSResolver) Resolve(id string) ([]byte, error) {
	name := path.Clean(strings.TrimPrefix(id, "/")) + ".svg"
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}
		return nil, fmt.Errorf("read asset %s: %w", id, err)
	}
	return data, nil
}

// Families lists the piece families available below "pieces/".
func (r *FSResolver) Families() []string {
	entries, err := fs.ReadDir(r.fsys, "pieces")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// Embedded returns the bundled asset set.
func Embedded() *FSResolver {
	sub, err := fs.Sub(embedded, "svgs")
	if err != nil {
		panic(err)
	}
	return NewFSResolver(sub)
}

// Chain tries each resolver in order and returns the first hit.
type Chain []Resolver

func (c Chain) Resolve(id string) ([]byte, error) {
	for _, r := range c {
		data, err := r.Resolve(id)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrAssetNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
}

// PieceID is the id of a piece asset, e.g. "pieces/cburnett/b_q" or "pieces/cburnett/w_k_check".
func PieceID(family string, piece nchess.Piece, variant string) string {
	id := fmt.Sprintf("pieces/%s/%s_%s", family, colorChar(piece.Color()), roleChar(piece.Type()))
	if variant != "" {
		id += "_" + variant
	}
	return id
}

// TerminationID is the id of a termination glyph, colored when color is not NoColor.
func TerminationID(glyph string, color nchess.Color) string {
	if color == nchess.NoColor {
		return "terminations/" + glyph
	}
	return fmt.Sprintf("terminations/%s_%s", glyph, colorChar(color))
}

// Library resolves piece and termination assets of one family with fallbacks.
type Library struct {
	resolver Resolver
	family   string
}

// NewLibrary checks that family provides at least the white king.
func NewLibrary(r Resolver, family string) (*Library, error) {
	if _, err := r.Resolve(PieceID(family, nchess.WhiteKing, "")); err != nil {
		return nil, fmt.Errorf("piece family %q: %w", family, err)
	}
	return &Library{resolver: r, family: family}, nil
}

func (l *Library) Family() string {
	return l.family
}

// Piece resolves a piece variant and falls back to the plain piece when the variant is missing.
func (l *Library) Piece(piece nchess.Piece, variant string) (string, []byte, error) {
	ids := []string{PieceID(l.family, piece, variant)}
	if variant != "" {
		ids = append(ids, PieceID(l.family, piece, ""))
	}
	return l.first(ids)
}

// Termination resolves a colored glyph and falls back to the uncolored one.
func (l *Library) Termination(glyph string, color nchess.Color) (string, []byte, error) {
	ids := []string{TerminationID(glyph, color)}
	if color != nchess.NoColor {
		ids = append(ids, TerminationID(glyph, nchess.NoColor))
	}
	return l.first(ids)
}

func (l *Library) first(ids []string) (string, []byte, error) {
	var lastErr error
	for _, id := range ids {
		data, err := l.resolver.Resolve(id)
		if err == nil {
			return id, data, nil
		}
		lastErr = err
		if !errors.Is(err, ErrAssetNotFound) {
			break
		}
	}
	return "", nil, lastErr
}

func colorChar(c nchess.Color) string {
	if c == nchess.Black {
		return "b"
	}
	return "w"
}

func roleChar(t nchess.PieceType) string {
	switch t {
	case nchess.King:
		return "k"
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return "p"
	}
}
