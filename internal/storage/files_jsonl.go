package storage

import (
	"sort"

	"github.com/matsen/papermem/internal/paper"
)

// LocalFile links a file on disk to the paper it contains.
type LocalFile struct {
	Path    string   `json:"path"` // Absolute path
	PaperID paper.ID `json:"paper_id"`
}

// LoadLocalFiles reads the local file table. A missing file is an empty table.
func LoadLocalFiles(path string) (map[string]paper.ID, error) {
	files, err := readJSONL[LocalFile](path, "files")
	if err != nil {
		return nil, err
	}

	out := make(map[string]paper.ID, len(files))
	for _, f := range files {
		if f.Path == "" || f.PaperID == "" {
			continue
		}
		out[f.Path] = f.PaperID
	}
	return out, nil
}

// SaveLocalFiles writes the local file table sorted by path.
func SaveLocalFiles(path string, files map[string]paper.ID) error {
	list := make([]LocalFile, 0, len(files))
	for p, id := range files {
		list = append(list, LocalFile{Path: p, PaperID: id})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return writeJSONL(path, "files", list)
}
