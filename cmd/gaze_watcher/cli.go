package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/OCAP2/gaze/internal/database"
	gormstorage "github.com/OCAP2/gaze/internal/storage/gorm"
	v1 "github.com/OCAP2/gaze/internal/storage/memory/export/v1"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

// runExport reads a sqlite dump. Without a session ID it lists the stored
// sessions; with one it writes that session in the v1 export format.
//
//	gaze_watcher export <db> [session-id] [-o file]
func runExport(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	outPath := fs.StringP("output", "o", "", "write the export to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("usage: gaze_watcher export <db> [session-id] [-o file]")
	}

	dbPath := rest[0]
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database not found: %w", err)
	}
	db, err := database.GetSqliteDB(dbPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	reader := gormstorage.New(gormstorage.Dependencies{DB: db})

	if len(rest) == 1 {
		return listSessions(reader, out)
	}

	sessionID, err := uuid.Parse(rest[1])
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", rest[1], err)
	}
	export, err := loadExport(reader, sessionID)
	if err != nil {
		return err
	}

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

func listSessions(reader *gormstorage.Backend, out io.Writer) error {
	sessions, err := reader.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions stored.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tHOST\tSTART\tDURATION")
	for _, s := range sessions {
		duration := "running"
		if !s.EndTime.IsZero() {
			duration = s.EndTime.Sub(s.StartTime).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Source, s.Host, s.StartTime.Local().Format(time.DateTime), duration)
	}
	return tw.Flush()
}

func loadExport(reader *gormstorage.Backend, sessionID uuid.UUID) (v1.Export, error) {
	sessions, err := reader.Sessions()
	if err != nil {
		return v1.Export{}, err
	}
	for _, s := range sessions {
		if s.ID != sessionID {
			continue
		}
		transitions, err := reader.Transitions(sessionID)
		if err != nil {
			return v1.Export{}, err
		}
		windows, err := reader.FrameStats(sessionID)
		if err != nil {
			return v1.Export{}, err
		}
		return v1.Build(s, transitions, windows), nil
	}
	return v1.Export{}, fmt.Errorf("session %s not found", sessionID)
}
