package commands

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vademecum/internal/ledger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewIngestCmd() *cobra.Command {
	var (
		files  []string
		dir    string
		source string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest vademecum PDFs into the medication store",
		Long: `Extract, segment, embed and store every medication section of one or
more PDFs. Files whose content hash matches the last recorded run are skipped
unless --force is given; the ledger lives at LEDGER_PATH.

Examples:
  vademecum ingest --file vademecum-2024.pdf
  vademecum ingest --dir ./pdfs
  vademecum ingest --file notes.pdf --source "Guía interna" --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := requirePersistentStore(cfg, "ingest"); err != nil {
				return err
			}

			docs := make([]document, 0, len(files))
			for _, f := range files {
				docs = append(docs, document{path: f, label: filepath.Base(f)})
			}
			if dir != "" {
				found, err := collectPDFs(dir)
				if err != nil {
					return err
				}
				docs = append(docs, found...)
			}
			if len(docs) == 0 {
				return errors.New("ingest: at least one --file or a --dir is required")
			}
			if source != "" {
				if len(docs) > 1 {
					return errors.New("ingest: --source applies to a single file")
				}
				docs[0].label = source
			}

			e, err := buildEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			l, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return err
			}
			defer l.Close()

			out := cmd.OutOrStdout()
			var processed, failed, skipped int
			for _, doc := range docs {
				label := doc.label

				hash, err := fileHash(doc.path)
				if err != nil {
					return err
				}
				if !force {
					unchanged, err := l.Unchanged(ctx, label, hash)
					if err != nil {
						return err
					}
					if unchanged {
						e.logger.Info("Document unchanged, skipping", zap.String("source", label))
						skipped++
						continue
					}
				}

				data, err := e.extractor.ReadDocument(doc.path)
				if err != nil {
					return err
				}
				result, err := e.ingestion.IngestDocument(ctx, data, label)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", label, err)
				}
				if err := l.Record(ctx, ledger.Entry{
					Source:    label,
					FileHash:  hash,
					Processed: result.Processed,
					Errors:    result.Errors,
				}); err != nil {
					return err
				}

				processed += result.Processed
				failed += result.Errors
				fmt.Fprintf(out, "%s\tprocessed=%d\terrors=%d\n", label, result.Processed, result.Errors)
			}

			fmt.Fprintf(out, "total\tprocessed=%d\terrors=%d\tskipped_files=%d\n", processed, failed, skipped)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "PDF to ingest (repeatable)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory scanned recursively for *.pdf")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Source label stored with each record (default: file name, or path relative to --dir)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-ingest files even when unchanged")

	return cmd
}

// document is a file to ingest and the source label recorded for it.
type document struct {
	path  string
	label string
}

// collectPDFs returns every *.pdf below dir in lexical order, labelled by its
// slash-separated path relative to dir.
func collectPDFs(dir string) ([]document, error) {
	var docs []document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		docs = append(docs, document{path: path, label: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].path < docs[j].path })
	return docs, nil
}

// fileHash calculates the MD5 hash of a file.
func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
