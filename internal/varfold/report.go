package varfold

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the outcome of one dispatched job.
type JobStatus string

const (
	// JobCompleted means the inference process exited cleanly
	JobCompleted JobStatus = "completed"

	// JobFailed means setup or the inference process failed
	JobFailed JobStatus = "failed"

	// JobSkipped means the job's output already existed
	JobSkipped JobStatus = "skipped"
)

// JobResult records one job's outcome for the batch report.
type JobResult struct {
	// Name is the job directory's base name, usually the variant id
	Name string `json:"name"`

	// Dir is the absolute job directory
	Dir string `json:"dir"`

	// Status of the dispatch
	Status JobStatus `json:"status"`

	// Seconds of wall time the job took
	Seconds float64 `json:"seconds,omitempty"`

	// Error message when the job failed
	Error string `json:"error,omitempty"`
}

// Report is the summary of one batch run, written as JSON next to the
// batch directory so long runs leave an inspectable trail.
type Report struct {
	// RunID uniquely identifies this batch invocation
	RunID string `json:"runId"`

	// Dir is the batch input directory
	Dir string `json:"dir"`

	// Time the batch started, ex: "2018/01/01 20:41:00"
	Time string `json:"time"`

	// Total number of jobs considered
	Total int `json:"total"`

	// Completed, Failed and Skipped job counts
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	// Jobs in dispatch order
	Jobs []JobResult `json:"jobs"`
}

// newReport starts a report for a batch over total jobs.
func newReport(dir string, total int) *Report {
	t := time.Now()

	return &Report{
		RunID: uuid.NewString(),
		Dir:   dir,
		Time: fmt.Sprintf(
			"%d/%02d/%02d %02d:%02d:%02d",
			t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(),
		),
		Total: total,
	}
}

// add records one job outcome and updates the counts.
func (r *Report) add(res JobResult) {
	r.Jobs = append(r.Jobs, res)

	switch res.Status {
	case JobCompleted:
		r.Completed++
	case JobFailed:
		r.Failed++
	case JobSkipped:
		r.Skipped++
	}
}

// log prints the batch summary as a table to stderr.
func (r *Report) log() {
	tw := tabwriter.NewWriter(os.Stderr, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "job\tstatus\tseconds\t\n")
	for _, j := range r.Jobs {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t\n", j.Name, j.Status, j.Seconds)
	}
	tw.Flush()

	stderr.Printf("completed %d, failed %d, skipped %d of %d jobs\n",
		r.Completed, r.Failed, r.Skipped, r.Total)

	if r.Failed > 0 {
		stderr.Println("failed jobs:")
		for _, j := range r.Jobs {
			if j.Status == JobFailed {
				stderr.Printf("  %s: %s\n", j.Name, j.Error)
			}
		}
	}
}

// write saves the report as indented JSON to path.
func (r *Report) write(path string) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(raw, '\n'), 0644)
}
