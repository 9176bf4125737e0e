package engine

import (
	"fmt"
	"os"
	"sort"

	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/pdf"
	"github.com/matsen/papermem/internal/source"
)

// identifyFunc reads identifying metadata from a local PDF.
type identifyFunc func(path string) (pdf.Identity, error)

// Link records that the file at path holds the paper id.
func (e *Engine) Link(path string, id paper.ID) error {
	if _, err := e.Get(id); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("linking %s: %w", path, err)
	}
	e.registry.RecordLocalFile(path, id)
	return nil
}

// LocalFiles returns the local files linked to id, sorted.
func (e *Engine) LocalFiles(id paper.ID) []string {
	var out []string
	for path, linked := range e.registry.LocalFiles() {
		if linked == id {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// ObserveFile records that the user opened a local PDF. A file already linked
// to a paper counts as a visit of that paper; otherwise the PDF is searched
// for an arXiv id or DOI and the file is linked to the resulting record.
func (e *Engine) ObserveFile(path string, hints paper.Hints) (Observation, error) {
	return e.observeFile(path, hints, pdf.Identify)
}

// IdentifyFile reads the arXiv id, DOI and title of a local PDF. Files
// already linked to a paper are not read and yield an empty identity.
// It does not touch the store, so callers may run it concurrently.
func (e *Engine) IdentifyFile(path string) (pdf.Identity, error) {
	return e.identifyFile(path, pdf.Identify)
}

// ObserveIdentifiedFile is ObserveFile for a PDF whose identity was already
// read with IdentifyFile.
func (e *Engine) ObserveIdentifiedFile(path string, ident pdf.Identity, hints paper.Hints) (Observation, error) {
	if landing, ok := e.linkedLanding(path); ok {
		return e.Observe(landing, hints)
	}

	url := ident.URL()
	if url == "" {
		return Observation{}, fmt.Errorf("%w: no arXiv id or DOI in %s", ErrNotAPaper, path)
	}
	if hints.Title == "" {
		hints.Title = ident.Title
	}

	obs, err := e.Observe(url, hints)
	if err != nil {
		return Observation{}, err
	}
	e.registry.RecordLocalFile(path, obs.ID)
	return obs, nil
}

func (e *Engine) observeFile(path string, hints paper.Hints, identify identifyFunc) (Observation, error) {
	ident, err := e.identifyFile(path, identify)
	if err != nil {
		return Observation{}, err
	}
	return e.ObserveIdentifiedFile(path, ident, hints)
}

func (e *Engine) identifyFile(path string, identify identifyFunc) (pdf.Identity, error) {
	if _, ok := e.linkedLanding(path); ok {
		return pdf.Identity{}, nil
	}
	ident, err := identify(path)
	if err != nil {
		return pdf.Identity{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ident, nil
}

// linkedLanding returns the landing URL of the paper a local file is linked
// to, if that paper can still be found.
func (e *Engine) linkedLanding(path string) (string, bool) {
	id, ok := e.registry.LookupLocalFile(path)
	if !ok {
		return "", false
	}
	if landing, _, ok := e.registry.URLs(id); ok && landing != source.PlaceholderURL {
		return landing, true
	}
	if rec, ok := e.store.Get(id); ok {
		return rec.LandingURL, true
	}
	return "", false
}
