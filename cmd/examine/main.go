package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"

	"github.com/bjyitu/aiexif/internal/database"
	"github.com/bjyitu/aiexif/internal/parser"
)

var bold = color.New(color.Bold)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("examine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbpath := fs.String("db", "", "Path to a sqlite or duckdb database")
	sampler := fs.String("sampler", "", "Only records generated with this sampler")
	fields := fs.String("field", "", "Comma separated source fields to include")
	prompt := fs.String("prompt", "", "Only records whose prompt contains this text")
	limit := fs.Int("limit", 10, "Maximum number of records")
	schema := fs.Bool("schema", false, "Print the table layout and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dbpath == "" {
		fs.Usage()
		return errors.New("missing database")
	}
	if _, err := os.Stat(*dbpath); err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	return database.WithDB(*dbpath, func(s *database.Store) error {
		if *schema {
			return printSchema(ctx, s, stdout)
		}
		records, err := s.Find(ctx, database.FindOptions{
			Fields:         splitList(*fields),
			Sampler:        *sampler,
			PromptContains: *prompt,
			Limit:          *limit,
		})
		if err != nil {
			return fmt.Errorf("error listing records: %w", err)
		}
		if len(records) == 0 {
			fmt.Fprintln(stdout, "No matching records.")
			return nil
		}
		for _, r := range records {
			printRecord(stdout, r)
		}
		return nil
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSchema(ctx context.Context, s *database.Store, w io.Writer) error {
	cols, err := s.TableInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "driver: %s\n", s.Driver())
	for _, col := range cols {
		fmt.Fprintf(w, "%s %s", col.Name, col.Type)
		if col.PrimaryKey {
			fmt.Fprint(w, " primary key")
		}
		fmt.Fprintln(w)
	}
	return nil
}

func printRecord(w io.Writer, r database.Record) {
	bold.Fprintf(w, "File: %s\n", r.Path)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n\n", r.Error)
		return
	}
	if r.SourceField != "" {
		fmt.Fprintf(w, "Source: %s\n", r.SourceField)
	}
	if r.Prompt != "" {
		fmt.Fprintf(w, "Prompt: %s\n", r.Prompt)
	}
	if r.NegativePrompt.Valid {
		fmt.Fprintf(w, "Negative prompt: %s\n", r.NegativePrompt.String)
	}
	// Parameters are stored as a JSON object in parameter order.
	gjson.Parse(r.Parameters).ForEach(func(k, v gjson.Result) bool {
		fmt.Fprintf(w, "  %s: %s\n", k.String(), v.String())
		return true
	})
	if r.Workflow != "" {
		if sum, ok := parser.SummarizeWorkflow(r.Workflow); ok {
			fmt.Fprintf(w, "Workflow: %d nodes, %d links [%s]\n", sum.Nodes, sum.Links, strings.Join(sum.NodeTypes, ", "))
		} else {
			fmt.Fprintln(w, "Workflow: unreadable")
		}
	}
	fmt.Fprintln(w)
}
