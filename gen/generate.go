package gen

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/logger"
)

// GenerateOptions configures Generate.
type GenerateOptions struct {
	Format       Format
	Namespace    func(b *Bundle) *Namespace
	Imports      func(b *Bundle) *Imports
	Declarations func(b *Bundle) *Declarations
	Modules      *ModuleRegistry
	ImportFunc   string
	Indent       string
	Logger       *zap.SugaredLogger
}

func (o GenerateOptions) bundleConfig() BundleConfig {
	return BundleConfig{
		Format:       o.Format,
		Namespace:    o.Namespace,
		Imports:      o.Imports,
		Declarations: o.Declarations,
		Modules:      o.Modules,
		ImportFunc:   o.ImportFunc,
		Indent:       o.Indent,
		Logger:       o.Logger,
	}
}

// Generate emits snippets to a new bundle and returns the generated text.
//
// The text is returned only when every emitter succeeded. Otherwise the
// combined error of all failed emitters is returned.
func Generate(ctx context.Context, opts GenerateOptions, snippets ...Snippet) (string, error) {
	start := time.Now()
	bundle := NewBundle(ctx, opts.bundleConfig())

	body, spanErr := bundle.Span(NewCode().Write(snippets...))

	if err := bundle.Done(); err != nil {
		return "", errors.Wrap(err, "generating code")
	}
	if spanErr != nil {
		return "", errors.Wrap(spanErr, "generating code")
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "generating code")
	}

	text, err := bundle.Print(body).Text()
	if err != nil {
		return "", errors.Wrap(err, "printing code")
	}

	bundle.log.Debugw("Code generated",
		logger.FieldLines, countLines(text),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return text, nil
}

func countLines(text string) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			n++
		}
	}
	return n
}
