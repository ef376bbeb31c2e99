package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	app "github.com/jhoicas/concesionaria-api/internal/application/export"
)

const backupPrefix = "respaldo_"

var _ app.Sink = (*FileSink)(nil)

// FileSink guarda los respaldos en un directorio y conserva solo los keep más recientes.
type FileSink struct {
	dir  string
	keep int
}

func NewFileSink(dir string, keep int) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("directorio de respaldos: %w", err)
	}
	return &FileSink{dir: dir, keep: keep}, nil
}

// Put escribe a un temporal y renombra para no dejar archivos a medias.
func (s *FileSink) Put(_ context.Context, name string, data []byte) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("nombre de respaldo inválido: %q", name)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return s.prune()
}

func (s *FileSink) prune() error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for len(names) > s.keep {
		if err := os.Remove(filepath.Join(s.dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}
