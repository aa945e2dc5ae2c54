package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/raine/outfit-finder/internal/matching"
	"github.com/raine/outfit-finder/internal/storage"
)

func formatText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

type jsonOutcome struct {
	Ref    string           `json:"ref"`
	Report *matching.Report `json:"report,omitempty"`
	Kind   string           `json:"errorKind,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// printOutcomes writes every outcome to stdout and reports whether all of
// them succeeded.
func printOutcomes(outcomes []outcome, asJSON bool) bool {
	ok := true
	for _, o := range outcomes {
		if o.Err != nil {
			ok = false
		}
	}

	if asJSON {
		out := make([]jsonOutcome, 0, len(outcomes))
		for _, o := range outcomes {
			jo := jsonOutcome{Ref: o.Ref}
			if o.Err != nil {
				jo.Kind = errorKind(o.Err)
				jo.Error = o.Err.Error()
			} else {
				report := matching.BuildReport(o.Result)
				jo.Report = &report
			}
			out = append(out, jo)
		}
		jsonBytes, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to encode report: %v\n", err)
			return false
		}
		fmt.Println(string(jsonBytes))
		return ok
	}

	for i, o := range outcomes {
		if i > 0 {
			fmt.Println()
		}
		if o.Err != nil {
			fmt.Printf("%s: %s\n", o.Ref, userMessage(o.Err))
			continue
		}
		writeReport(os.Stdout, o.Ref, matching.BuildReport(o.Result))
	}
	return ok
}

func writeReport(w io.Writer, ref string, report matching.Report) {
	fmt.Fprintf(w, "%s (job %s)\n%s\n", ref, report.JobID, report.Summary)

	for _, item := range report.Items {
		fmt.Fprintf(w, "\n%s: %s\n", item.Category, item.Description)
		if len(item.Products) == 0 {
			fmt.Fprintf(w, "  %s\n", matching.MsgNoSimilarProducts)
			continue
		}
		fmt.Fprintf(w, "  %s\n", matching.Pluralize("similar product", "similar products", len(item.Products)))
		for _, p := range item.Products {
			marker := " "
			if p.IsCheapest {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s - %s - %s\n", marker, p.Brand, p.Name, p.PriceLabel)
			if p.ShopURL != "" {
				fmt.Fprintf(w, "      %s\n", p.ShopURL)
			}
		}
		if item.Cheapest != nil {
			fmt.Fprintf(w, "  Best price: %s from %s\n", item.Cheapest.PriceLabel, item.Cheapest.Brand)
		}
	}
}

func errorKind(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	if kind := analysis.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

// userMessage renders an error the way it should be shown to the person
// running the tool.
func userMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Cancelled"
	}
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		switch aerr.Kind {
		case analysis.KindUploadFailed:
			return formatText(`
				Failed to upload image. Please try again.
				  cause: %v
			`, aerr.Err)
		case analysis.KindPollTimeout:
			return aerr.Error() + " (use -resume to keep waiting)"
		}
		return aerr.Error()
	}
	return err.Error()
}

func printHistory(store *storage.SQLiteStore, limit int) error {
	jobs, err := store.ListJobs(limit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs yet")
		return nil
	}

	fmt.Printf("%s\n\n", matching.Pluralize("job", "jobs", len(jobs)))
	for _, j := range jobs {
		outcome := j.Outcome
		if outcome == "" {
			outcome = "unfinished"
		}
		name := j.FileName
		if name == "" {
			name = "-"
		}
		fmt.Printf("%s  %s  %-10s %-10s %s\n", j.CreatedAt.Local().Format("2006-01-02 15:04"), j.ID, j.Status, outcome, name)
		if j.Error != "" {
			fmt.Printf("    %s\n", j.Error)
		}
	}
	return nil
}

// describeJob summarizes what the ledger knows about a job before it is
// resumed.
func describeJob(j *storage.JobRecord) string {
	name := j.FileName
	if name == "" {
		name = "unknown file"
	}
	outcome := j.Outcome
	if outcome == "" {
		outcome = "unfinished"
	}
	text := fmt.Sprintf("Resuming job %s (%s, submitted %s, last outcome: %s)",
		j.ID, name, j.CreatedAt.Local().Format("2006-01-02 15:04"), outcome)
	if j.Error != "" {
		text += "\n  last error: " + j.Error
	}
	return text
}
