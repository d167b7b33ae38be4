package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func (c *cli) printDocuments(docs []domain.Document) error {
	if c.output != outputTable {
		return c.encode(docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(c.out, "no documents")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tLANGUAGE\tSCOPE\tCREATED")
	for _, doc := range docs {
		typeInfo, _ := domain.LookupSourceType(doc.SourceType)
		langInfo, _ := domain.LookupLanguage(doc.Language)
		scope := domain.ScopeVerified
		if !doc.Verified() {
			scope = domain.ScopeUser
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			doc.ID, doc.Title, typeInfo.Label, langInfo.Label, scope, doc.CreatedAt)
	}
	return tw.Flush()
}

// printValue writes summary in table mode and the encoded value otherwise.
func (c *cli) printValue(value any, summary string) error {
	if c.output == outputTable {
		_, err := fmt.Fprintln(c.out, summary)
		return err
	}
	return c.encode(value)
}

func (c *cli) encode(value any) error {
	switch c.output {
	case outputJSON:
		encoder := json.NewEncoder(c.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case outputYAML:
		encoder := yaml.NewEncoder(c.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return domain.NewValidationError("unknown output format %q", c.output)
	}
}
