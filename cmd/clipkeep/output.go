package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go.klb.dev/clipkeep/internal/item"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	previewColumn = 60
	shortID       = 12
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", formatTable, "output format: table|json|yaml")
}

func checkFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (want table, json or yaml)", f)
}

// encode writes v as JSON or YAML. YAML goes through JSON first so both
// formats use the same field names and raw metadata renders as a mapping.
func encode(w io.Writer, format string, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

func printItems(w io.Writer, format string, items []item.ClipItem) error {
	if format != formatTable {
		return encode(w, format, items)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No clips.")
		return err
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tID\tTYPE\tSOURCE\tTAGS\tCREATED\tPREVIEW\n")
	_, _ = fmt.Fprintf(tw, "\t--\t----\t------\t----\t-------\t-------\n")
	for _, it := range items {
		marker := ""
		if it.Pinned {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, short(it.ID), it.ContentType, it.SourceApp,
			strings.Join(it.Tags, ","), fmtAge(it.CreatedAt), oneLine(it.PreviewText),
		)
	}
	return tw.Flush()
}

func printItem(w io.Writer, format string, it item.ClipItem) error {
	if format != formatTable {
		return encode(w, format, it)
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID:\t%s\n", it.ID)
	_, _ = fmt.Fprintf(tw, "Type:\t%s\n", it.ContentType)
	_, _ = fmt.Fprintf(tw, "Source:\t%s\n", it.SourceApp)
	_, _ = fmt.Fprintf(tw, "Pinned:\t%t\n", it.Pinned)
	_, _ = fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(it.Tags, ", "))
	_, _ = fmt.Fprintf(tw, "Created:\t%s (%s)\n", it.CreatedAt.Local().Format(time.RFC3339), fmtAge(it.CreatedAt))
	_, _ = fmt.Fprintf(tw, "Last used:\t%s (%s)\n", it.LastUsedAt.Local().Format(time.RFC3339), fmtAge(it.LastUsedAt))
	_, _ = fmt.Fprintf(tw, "Preview:\t%s\n", oneLine(it.PreviewText))
	return tw.Flush()
}

func short(id string) string {
	if len(id) > shortID {
		return id[:shortID]
	}
	return id
}

// oneLine flattens whitespace and truncates s to the preview column.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewColumn {
		return s
	}
	return string([]rune(s)[:previewColumn-1]) + "…"
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
	return t.Local().Format("2006-01-02")
}
