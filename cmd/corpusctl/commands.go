package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/corpus-admin/internal/config"
	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
	"github.com/kirillkom/corpus-admin/internal/core/usecase"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/corpusapi"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/export"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/textextract"
)

type cli struct {
	apiURL  string
	timeout time.Duration
	output  string
	out     io.Writer

	newAPI func(baseURL string, timeout time.Duration) ports.CorpusAPI
}

func newRootCommand(cfg config.Config, out io.Writer) *cobra.Command {
	c := &cli{
		out: out,
		newAPI: func(baseURL string, timeout time.Duration) ports.CorpusAPI {
			return corpusapi.NewWithOptions(baseURL, corpusapi.Options{Timeout: timeout})
		},
	}

	root := &cobra.Command{
		Use:           "corpusctl",
		Short:         "Manage the Islamic knowledge corpus from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", cfg.CorpusAPIURL, "corpus backend base URL")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 2*time.Minute, "per-request timeout")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "output format: table, json or yaml")

	root.AddCommand(
		c.documentsCommand(),
		c.uploadCommand(cfg.MaxUploadBytes),
		c.ingestCommand(),
		c.statusCommand(),
		c.exportCommand(),
	)
	return root
}

func (c *cli) api() ports.CorpusAPI {
	return c.newAPI(c.apiURL, c.timeout)
}

type filterFlags struct {
	scope      string
	sourceType string
	search     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scope, "scope", string(domain.ScopeVerified), "verified, user or all")
	cmd.Flags().StringVar(&f.sourceType, "type", domain.TypeAll, "source type or all")
	cmd.Flags().StringVarP(&f.search, "search", "q", "", "case-insensitive title or id substring")
}

func (f *filterFlags) filter() domain.Filter {
	filter := domain.DefaultFilter()
	filter.Scope = domain.ParseScope(f.scope)
	if f.sourceType != "" {
		filter.Type = f.sourceType
	}
	filter.Search = f.search
	return filter
}

func (c *cli) documentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List or delete corpus documents",
	}

	var filters filterFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := c.api().ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			return c.printDocuments(usecase.ApplyFilter(docs, filters.filter()))
		},
	}
	filters.register(list)

	var confirmed bool
	remove := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a document by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if !confirmed {
				return domain.NewValidationError("deletion of %q must be confirmed, pass --yes", id)
			}
			if err := c.api().DeleteDocument(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s\n", id)
			return nil
		},
	}
	remove.Flags().BoolVar(&confirmed, "yes", false, "confirm the deletion")

	cmd.AddCommand(list, remove)
	return cmd
}

type metadataFlags struct {
	title      string
	sourceType string
	language   string
}

func (m *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.title, "title", "", "document title")
	cmd.Flags().StringVar(&m.sourceType, "type", string(domain.DefaultSourceType), "source type")
	cmd.Flags().StringVar(&m.language, "language", domain.DefaultLanguage, "language code: ar, ru or kk")
}

func (m *metadataFlags) validate() (domain.SourceType, error) {
	sourceType, ok := domain.ParseSourceType(m.sourceType)
	if !ok {
		return "", domain.NewValidationError("unknown source type %q", m.sourceType)
	}
	if _, ok := domain.LookupLanguage(m.language); !ok {
		return "", domain.NewValidationError("unknown language %q", m.language)
	}
	return sourceType, nil
}

func (c *cli) uploadCommand(maxBytes int64) *cobra.Command {
	var meta metadataFlags
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a PDF, JSON or TXT file for background indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceType, err := meta.validate()
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			form := usecase.NewUploadForm(c.api(), nil, maxBytes)
			if meta.title != "" {
				form.SetTitle(meta.title)
			}
			form.SetSourceType(sourceType)
			form.SetLanguage(meta.language)
			if err := form.SelectFile(filepath.Base(args[0]), content); err != nil {
				return err
			}
			accepted, err := form.Submit(cmd.Context())
			if err != nil {
				return err
			}
			return c.printValue(accepted, fmt.Sprintf("%s: %s (%s)", accepted.Title, accepted.Message, accepted.Status))
		},
	}
	meta.register(cmd)
	return cmd
}

func (c *cli) ingestCommand() *cobra.Command {
	var (
		meta     metadataFlags
		file     string
		content  string
		author   string
		metadata map[string]string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index raw text synchronously",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sourceType, err := meta.validate()
			if err != nil {
				return err
			}
			text, err := c.ingestText(cmd.Context(), file, content)
			if err != nil {
				return err
			}

			req := domain.IngestRequest{
				Title:      meta.title,
				SourceType: sourceType,
				Language:   meta.language,
				Content:    text,
			}
			if len(metadata) > 0 || author != "" {
				req.Metadata = make(map[string]string, len(metadata)+1)
				for key, value := range metadata {
					req.Metadata[key] = value
				}
				if author != "" {
					req.Metadata["author"] = author
				}
			}

			result, err := usecase.NewIngestForm(c.api(), nil).Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.printValue(result, fmt.Sprintf("indexed %s as %s, %d chunks", result.Title, result.DocumentID, result.ChunkCount))
		},
	}
	meta.register(cmd)
	cmd.Flags().StringVar(&file, "file", "", "read content from a PDF, JSON or TXT file")
	cmd.Flags().StringVar(&content, "content", "", "content to index")
	cmd.Flags().StringVar(&author, "author", "", "author recorded in metadata")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "extra metadata as key=value pairs")
	cmd.MarkFlagsMutuallyExclusive("file", "content")
	return cmd
}

func (c *cli) ingestText(ctx context.Context, file, content string) (string, error) {
	if file == "" {
		return content, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return textextract.FromBytes(ctx, filepath.Base(file), data)
}

type statusReport struct {
	Health string `json:"health" yaml:"health"`
	Ready  string `json:"ready" yaml:"ready"`
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe backend liveness and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := c.api()
			report := statusReport{Health: domain.StatusUnavailable}
			health, healthErr := api.CheckHealth(cmd.Context())
			if healthErr == nil {
				report.Health = health.Status
			}
			report.Ready = api.CheckReady(cmd.Context()).Status

			if err := c.printValue(report, fmt.Sprintf("health: %s\nready: %s", report.Health, report.Ready)); err != nil {
				return err
			}
			return healthErr
		},
	}
}

func (c *cli) exportCommand() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "export FILE.xlsx",
		Short: "Write the filtered document list to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := c.api().ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			visible := usecase.ApplyFilter(docs, filters.filter())
			if err := writeWorkbook(args[0], visible); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %d documents to %s\n", len(visible), args[0])
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}

func writeWorkbook(path string, docs []domain.Document) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	return export.WriteDocumentsXLSX(file, docs)
}
