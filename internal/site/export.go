package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matheuskafuri/resourcehub/internal/directory"
	"go.uber.org/zap"
)

type ExportOptions struct {
	Dir      string
	SiteName string
	Dataset  directory.Dataset
	// RawDataset is copied verbatim to DatasetPath so the exported site can
	// load it like the hosted one.
	RawDataset  []byte
	DatasetPath string
	Presets     directory.Presets
	Renderer    directory.Renderer
	Logger      *zap.Logger
}

// Export writes index.html, one page per preset, the offline page, the
// stylesheet and the dataset under opts.Dir. It returns the written paths
// relative to Dir.
func Export(ctx context.Context, opts ExportOptions) ([]string, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("export: output directory is required")
	}
	if opts.SiteName == "" {
		opts.SiteName = "Resource Hub"
	}
	if opts.DatasetPath == "" {
		opts.DatasetPath = "data/resources.json"
	}
	if opts.Presets == nil {
		opts.Presets = directory.DefaultPresets()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lang := Lang(opts.Renderer.Locale)

	var written []string
	write := func(rel string, data []byte) error {
		path := filepath.Join(opts.Dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		written = append(written, rel)
		logger.Debug("exported", zap.String("path", rel), zap.Int("bytes", len(data)))
		return nil
	}

	render := func(key string) ([]byte, error) {
		root, title := "./", opts.SiteName
		if key != "" {
			root, title = "../", PresetLabel(key)+" · "+opts.SiteName
		}
		target := NewHTMLTarget(Page{
			Lang:     lang,
			Title:    title,
			SiteName: opts.SiteName,
			Root:     root,
			Presets:  PresetLinks(opts.Presets, key),
		})
		eng := directory.New(directory.Options{
			Target:   target,
			Form:     directory.NewMemoryForm(nil),
			Presets:  opts.Presets,
			Renderer: opts.Renderer,
			Logger:   logger,
		})
		defer eng.Close()
		eng.SetDataset(opts.Dataset)
		if key == "" {
			eng.Render()
		} else {
			eng.ApplyPreset(key, false)
		}
		if err := target.Err(); err != nil {
			return nil, fmt.Errorf("rendering %q: %w", key, err)
		}
		return target.Bytes(), nil
	}

	index, err := render("")
	if err != nil {
		return written, err
	}
	if err := write("index.html", index); err != nil {
		return written, err
	}

	for _, key := range opts.Presets.Keys() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		page, err := render(key)
		if err != nil {
			return written, err
		}
		if err := write("presets/"+key+".html", page); err != nil {
			return written, err
		}
	}

	offline, err := OfflinePage(opts.SiteName, lang)
	if err != nil {
		return written, fmt.Errorf("rendering offline page: %w", err)
	}
	if err := write("offline.html", offline); err != nil {
		return written, err
	}
	if err := write("css/styles.css", stylesheet); err != nil {
		return written, err
	}
	if opts.RawDataset != nil {
		if err := write(opts.DatasetPath, opts.RawDataset); err != nil {
			return written, err
		}
	}
	return written, nil
}
