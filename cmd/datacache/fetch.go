package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/justifica/datacache"
	"github.com/justifica/datacache/internal/remote"
	"github.com/justifica/datacache/internal/resources"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch KEY",
	Short: "Read a cached resource",
	Long: `Read one of the bound resources (dashboard, students, justifications).

Each read is served from the cache while the entry is fresh and fetched
from the API otherwise.

Examples:
  datacache fetch dashboard
  datacache fetch justifications --json
  datacache fetch students --repeat 3 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	repeat     int
	force      bool
	outputJSON bool
	showTiming bool
)

func init() {
	fetchCmd.Flags().IntVarP(&repeat, "repeat", "n", 1, "number of reads")
	fetchCmd.Flags().BoolVarP(&force, "force", "f", false, "bypass the cache on every read")
	fetchCmd.Flags().BoolVar(&outputJSON, "json", false, "output the value as JSON")
	fetchCmd.Flags().BoolVar(&showTiming, "timing", false, "show read timing")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	key := datacache.Key(args[0])
	if repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	var value any
	for i := range repeat {
		before := s.store.Stats()
		start := time.Now()

		v, bound, err := s.set.Lookup(cmd.Context(), key, force)
		if !bound {
			return fmt.Errorf("no resource is bound to %q; known keys: %v", key, s.set.Bound())
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", key, err)
		}
		elapsed := time.Since(start)
		value = v

		if !outputJSON {
			fmt.Fprintf(out, "read %d: %s", i+1, source(before, s.store.Stats()))
			if showTiming {
				fmt.Fprintf(out, " (%s)", elapsed)
			}
			fmt.Fprintln(out)
		}
	}

	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	printValue(out, value)
	st := s.store.Stats()
	fmt.Fprintf(out, "hits: %d  misses: %d  hit rate: %.1f%%\n", st.Hits, st.Misses, st.HitRate())
	return nil
}

// source describes where a read was served from.
func source(before, after datacache.Stats) string {
	switch {
	case after.Hits > before.Hits:
		return "cache hit"
	case after.Misses > before.Misses:
		return "cache miss, fetched"
	default:
		return "forced refresh"
	}
}

func printValue(w io.Writer, v any) {
	switch v := v.(type) {
	case resources.Dashboard:
		st := v.Stats
		fmt.Fprintf(w, "Justifications: %d total, %d pending, %d approved, %d rejected\n",
			st.Total, st.Pending, st.Approved, st.Rejected)
		fmt.Fprintf(w, "Students:       %d total, %d active\n", st.TotalStudents, st.ActiveStudents)
		for _, r := range v.Recent {
			fmt.Fprintf(w, "  #%-5d %-10s %s  %s (%s)\n", r.ID, r.Status, r.Date, r.Student, r.Course)
		}
	case []remote.Student:
		fmt.Fprintf(w, "Students: %d\n", len(v))
		for _, st := range v {
			fmt.Fprintf(w, "  %-10s %s %s\n", st.StudentCode, st.FirstName, st.LastName)
		}
	case []remote.Justification:
		fmt.Fprintf(w, "Justifications: %d\n", len(v))
		for _, j := range v {
			fmt.Fprintf(w, "  #%-5d %-10s %s\n", j.ID, resources.StatusLabel(j.Status), j.StudentName)
		}
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}
