package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/peoplegraph/peoplegraph/internal/document"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify graph document integrity",
	Long: `Verify the graph document.

Errors (exit code 3): empty node ids, duplicate node ids, links with an empty
endpoint. These stop the document from loading.

Warnings: dangling links (an endpoint that is not a node) and self-loops.
These load fine; dangling links simply highlight nothing.`,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status string       `json:"status"`
	Nodes  int          `json:"nodes"`
	Links  int          `json:"links"`
	Issues []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	ID       string `json:"id,omitempty"`
	Index    *int   `json:"index,omitempty"`
	SourceID string `json:"source_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	// Read without validation so every problem gets reported
	doc, err := document.Read(cmd.Context(), cfg.DataPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	result := buildCheckResult(doc)

	if humanOutput {
		outputHuman("Checked %d nodes, %d links\n", result.Nodes, result.Links)
		if len(result.Issues) == 0 {
			Good.Println("No issues found")
		}
		for _, issue := range result.Issues {
			sev := Warn
			if issue.Severity == SeverityError {
				sev = Bad
			}
			outputHuman("  %s %s\n", sev.Sprintf("%-7s", issue.Severity), describeIssue(issue))
		}
	} else if err := outputJSON(result); err != nil {
		return err
	}

	if result.Status == "invalid" {
		os.Exit(ExitDataError)
	}
	return nil
}

// buildCheckResult collects every problem in doc.
func buildCheckResult(doc *document.Document) CheckResult {
	var issues []CheckIssue

	for i, n := range doc.Nodes {
		if n.ID == "" {
			issues = append(issues, CheckIssue{
				Type:     "empty_node_id",
				Severity: SeverityError,
				Index:    intPtr(i),
				Reason:   fmt.Sprintf("node %d has no id", i),
			})
		}
	}

	dups := document.DuplicateNodeIDs(doc)
	ids := make([]string, 0, len(dups))
	for id := range dups {
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		issues = append(issues, CheckIssue{
			Type:     "duplicate_node",
			Severity: SeverityError,
			ID:       id,
			Reason:   fmt.Sprintf("count=%d", dups[id]),
		})
	}

	for i, l := range doc.Links {
		if l.Source == "" || l.Target == "" {
			issues = append(issues, CheckIssue{
				Type:     "empty_endpoint",
				Severity: SeverityError,
				Index:    intPtr(i),
				SourceID: l.Source,
				TargetID: l.Target,
			})
		}
	}

	for _, d := range document.DetectDangling(doc) {
		if d.Source == "" || d.Target == "" {
			continue // Already reported as empty_endpoint
		}
		issues = append(issues, CheckIssue{
			Type:     "dangling_link",
			Severity: SeverityWarning,
			Index:    intPtr(d.Index),
			SourceID: d.Source,
			TargetID: d.Target,
			Reason:   d.Reason,
		})
	}

	for _, i := range document.SelfLoops(doc) {
		issues = append(issues, CheckIssue{
			Type:     "self_loop",
			Severity: SeverityWarning,
			Index:    intPtr(i),
			ID:       doc.Links[i].Source,
		})
	}

	status := "ok"
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			status = "invalid"
			break
		}
		status = "warnings"
	}

	// Ensure issues is an empty array, not null
	if issues == nil {
		issues = []CheckIssue{}
	}

	return CheckResult{
		Status: status,
		Nodes:  len(doc.Nodes),
		Links:  len(doc.Links),
		Issues: issues,
	}
}

func describeIssue(issue CheckIssue) string {
	switch issue.Type {
	case "dangling_link", "empty_endpoint":
		return fmt.Sprintf("%s: link %d %q -- %q %s", issue.Type, *issue.Index, issue.SourceID, issue.TargetID, issue.Reason)
	case "self_loop":
		return fmt.Sprintf("self_loop: link %d on %q", *issue.Index, issue.ID)
	case "duplicate_node":
		return fmt.Sprintf("duplicate_node: %q (%s)", issue.ID, issue.Reason)
	default:
		return fmt.Sprintf("%s: %s", issue.Type, issue.Reason)
	}
}

func intPtr(i int) *int {
	return &i
}
