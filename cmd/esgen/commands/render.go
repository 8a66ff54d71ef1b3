package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/UCNot/esgen-sub001/am"
	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
	"github.com/UCNot/esgen-sub001/logger"
	"github.com/UCNot/esgen-sub001/manifest"
)

// renderOptions selects how a manifest is turned into code
type renderOptions struct {
	// Format overrides both the manifest and the configured format when set
	Format     string
	Indent     string
	ImportFunc string
}

// renderOptionsFromConfig applies the configured generation settings
func renderOptionsFromConfig(cfg *am.Config, format string) renderOptions {
	return renderOptions{
		Format:     format,
		Indent:     cfg.GetIndent(),
		ImportFunc: cfg.Generate.ImportFunc,
	}
}

// bundleFormat picks the format: flag, then manifest, then configuration
func (o renderOptions) bundleFormat(m *manifest.Manifest, cfg *am.Config) (gen.Format, error) {
	switch {
	case o.Format != "":
		return gen.ParseFormat(o.Format)
	case m.Format != "":
		return m.BundleFormat(), nil
	default:
		return cfg.BundleFormat()
	}
}

// renderManifest loads the manifest at path and generates its code
func renderManifest(ctx context.Context, path string, cfg *am.Config, opts renderOptions) (string, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return "", err
	}

	format, err := opts.bundleFormat(m, cfg)
	if err != nil {
		return "", errors.Wrapf(err, "manifest %s", path)
	}

	snippets, err := m.Snippets(gen.NewModuleRegistry())
	if err != nil {
		return "", errors.Wrapf(err, "manifest %s", path)
	}

	text, err := gen.Generate(ctx, gen.GenerateOptions{
		Format:     format,
		Indent:     opts.Indent,
		ImportFunc: opts.ImportFunc,
		Logger:     logger.ComponentLogger("gen").With(logger.FieldFile, path),
	}, snippets...)
	if err != nil {
		return "", errors.Wrapf(err, "manifest %s", path)
	}
	return text, nil
}

// outputPath returns the file generated next to a manifest: app.yaml -> app.js
func outputPath(manifestPath string) string {
	return strings.TrimSuffix(manifestPath, filepath.Ext(manifestPath)) + ".js"
}
