package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/justifica/datacache/internal/remote"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Change enrolment",
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import students from a YAML file",
	Long: `Import students in bulk. FILE holds a YAML list, for example:

  - first_name: Ana
    last_name: Pérez
    student_code: A-1
    email: ana@example.edu
    career: Sistemas
    semester: "5"

A bulk import invalidates every cached entry.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Deactivate a student",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentChange,
}

var restoreCmd = &cobra.Command{
	Use:   "restore ID",
	Short: "Reactivate a student",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentChange,
}

func init() {
	studentsCmd.AddCommand(importCmd, deleteCmd, restoreCmd)
	rootCmd.AddCommand(studentsCmd)
}

// readStudents decodes a YAML list of students.
func readStudents(r io.Reader) ([]remote.NewStudent, error) {
	var students []remote.NewStudent
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&students); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding students: %w", err)
	}
	for i, st := range students {
		if st.StudentCode == "" {
			return nil, fmt.Errorf("student %d: student_code is required", i+1)
		}
	}
	return students, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	students, err := readStudents(f)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return fmt.Errorf("%s contains no students", args[0])
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.set.ImportStudents(cmd.Context(), students); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d students\n", len(students))
	return nil
}

func runStudentChange(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid student ID %q", args[0])
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	change, verb := s.set.DeleteStudent, "deactivated"
	if cmd.Name() == "restore" {
		change, verb = s.set.RestoreStudent, "reactivated"
	}
	if err := change(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Student %d %s\n", id, verb)
	return nil
}
