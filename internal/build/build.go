package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcncl/cppx/internal/config"
	apperrors "github.com/mcncl/cppx/internal/errors"
	"github.com/mcncl/cppx/internal/formatter"
	"github.com/mcncl/cppx/internal/transpiler"
)

// Result lists the files a Build wrote, as paths relative to the output
// directory, in walk order.
type Result struct {
	Transpiled []string
	Copied     []string
}

// Builder mirrors a source tree into an output tree, transpiling markup
// sources on the way.
type Builder struct {
	cfg        *config.Config
	transpiler *transpiler.Transpiler
	formatter  *formatter.Formatter
	logger     *slog.Logger
}

// NewBuilder creates a Builder from cfg. A nil logger discards debug output.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		cfg:        cfg,
		transpiler: transpiler.NewTranspilerWithConfig(cfg, logger),
		formatter:  formatter.NewFormatterWithConfig(cfg),
		logger:     logger,
	}
}

// Build walks srcDir and writes every regular file to the same relative path
// under dstDir. Files with the source extension are transpiled, renamed to
// the target extension and prefixed with the file header. Files that already
// have the target extension get the header too. Everything else is copied
// byte for byte. A missing srcDir builds nothing.
func (b *Builder) Build(srcDir, dstDir string) (Result, error) {
	var result Result

	info, err := os.Stat(srcDir)
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Debug("source directory missing, nothing to build", "src", srcDir)
		return result, nil
	}
	if err != nil {
		return result, apperrors.NewBuildError("failed to stat source directory", err)
	}
	if !info.IsDir() {
		return result, apperrors.NewBuildError(srcDir, apperrors.ErrNotDirectory)
	}

	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return result, apperrors.NewBuildError("failed to resolve source directory", err)
	}
	absDst, err := filepath.Abs(dstDir)
	if err != nil {
		return result, apperrors.NewBuildError("failed to resolve output directory", err)
	}
	if absSrc == absDst {
		return result, apperrors.NewBuildError(dstDir, apperrors.ErrSameDirectory)
	}

	err = filepath.WalkDir(absSrc, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Output nested inside the source tree is not re-read
			if path == absDst {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absSrc, path)
		if err != nil {
			return err
		}

		switch filepath.Ext(path) {
		case b.cfg.Output.SourceExt:
			out := strings.TrimSuffix(rel, b.cfg.Output.SourceExt) + b.cfg.Output.TargetExt
			if err := b.transpileFile(path, filepath.Join(absDst, out)); err != nil {
				return err
			}
			result.Transpiled = append(result.Transpiled, out)
		case b.cfg.Output.TargetExt:
			if err := b.copyFile(path, filepath.Join(absDst, rel), b.cfg.Output.FileHeader); err != nil {
				return err
			}
			result.Copied = append(result.Copied, rel)
		default:
			if err := b.copyFile(path, filepath.Join(absDst, rel), ""); err != nil {
				return err
			}
			result.Copied = append(result.Copied, rel)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return result, err
		}
		return result, apperrors.NewBuildError("failed to build "+srcDir, err)
	}

	b.logger.Debug("build finished", "src", srcDir, "dst", dstDir,
		"transpiled", len(result.Transpiled), "copied", len(result.Copied))
	return result, nil
}

func (b *Builder) transpileFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return apperrors.NewInputError("failed to read "+src, err)
	}

	code, stats := b.transpiler.ProcessWithStats(string(data))
	code = b.cfg.Output.FileHeader + code
	if b.cfg.Formatting.Gofmt {
		formatted, err := b.formatter.Format(code)
		if err != nil {
			return apperrors.NewFormatError(fmt.Sprintf("transpiled %s is not valid Go", src), err)
		}
		code = formatted
	}

	b.logger.Debug("transpiled file", "src", src, "dst", dst, "blocks", stats.Blocks)
	return writeFile(dst, []byte(code))
}

func (b *Builder) copyFile(src, dst, header string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return apperrors.NewInputError("failed to read "+src, err)
	}
	if header != "" {
		data = append([]byte(header), data...)
	}
	b.logger.Debug("copied file", "src", src, "dst", dst)
	return writeFile(dst, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewOutputError("failed to create directory for "+path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewOutputError("failed to write "+path, err)
	}
	return nil
}
