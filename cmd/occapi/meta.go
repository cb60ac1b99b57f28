package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/occapi/internal/entity"
	"github.com/briangreenhill/occapi/internal/meta"
)

// NewMetaCommand creates the meta command
func NewMetaCommand() *cobra.Command {
	var (
		metadataFile   string
		programmesFile string
		term           string
		label          string
		named          bool
	)

	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Show how a course metadata document applies to programmes",
		Long: `Resolve a course metadata document against a list of programmes and print
one row per programme, sorted by year, term and mandatory flag.

The programmes file is a JSON array of {"id", "label", "remote_id", "eqf_level"}
objects. With --named only the programmes the document names are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(metadataFile)
			if err != nil {
				return fmt.Errorf("read metadata: %w", err)
			}
			list, err := readProgrammes(programmesFile)
			if err != nil {
				return err
			}

			store := entity.NewMemoryStore()
			programmes := make(map[uuid.UUID]entity.Programme, len(list))
			for _, p := range list {
				store.AddProgramme(p)
				programmes[p.ID] = p
			}
			resolver := meta.NewResolver(store)

			if _, err := meta.ParseDocument(raw); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			if named {
				ctx := cmd.Context()
				if ctx == nil {
					ctx = context.Background()
				}
				programmes, err = resolver.ProgrammesByRemoteIDs(ctx, raw)
				if err != nil {
					return err
				}
			}

			course := entity.Course{ID: uuid.New(), Label: label, Term: term, Meta: raw}
			labels := func(id uuid.UUID) string { return programmes[id].Label }
			table := meta.Project(resolver.ForCourse(course, programmes), "Programme", labels)

			renderTable(cmd.OutOrStdout(), table.Header, table.Cells())
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataFile, "metadata", "", "course metadata document")
	cmd.Flags().StringVar(&programmesFile, "programmes", "", "programmes file")
	cmd.Flags().StringVar(&term, "term", "", "term of the course")
	cmd.Flags().StringVar(&label, "course", "", "course label")
	cmd.Flags().BoolVar(&named, "named", false, "only list programmes named by the document")
	_ = cmd.MarkFlagRequired("metadata")
	_ = cmd.MarkFlagRequired("programmes")

	return cmd
}

// readProgrammes loads programme definitions, giving any without an ID a fresh one
func readProgrammes(path string) ([]entity.Programme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read programmes: %w", err)
	}

	var list []entity.Programme
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse programmes %s: %w", path, err)
	}
	for i := range list {
		if list[i].ID == uuid.Nil {
			list[i].ID = uuid.New()
		}
	}
	return list, nil
}
