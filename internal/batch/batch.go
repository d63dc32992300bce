// Package batch runs sequences of vcpp calls described in a TOML file.
//
//	[[job]]
//	name = "hangul texture"
//	op = "texture"
//	command = 'create --format R8G8B8A8_UNORM "한글 띄어쓰기.tga" "out.ktx2"'
//
//	[[job]]
//	op = "diagnostic"
//	[job.options]
//	"boolean value" = true
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/aperturerobotics/go-vcpp-bridge/bridge"
	"github.com/pelletier/go-toml/v2"
)

// Job is one call in a batch file.
type Job struct {
	Name string `toml:"name"`
	Op   string `toml:"op"`
	// Command is a raw command line. It is tokenized by the dispatcher.
	Command *string `toml:"command"`
	// Args is a pre-tokenized argument list.
	Args            []string       `toml:"args"`
	Options         map[string]any `toml:"options"`
	ContinueOnError bool           `toml:"continue_on_error"`
	// OKCodes lists the result codes that count as success. Empty means 0.
	OKCodes []int32 `toml:"ok_codes"`

	op bridge.Op
}

// Label returns the job name, or its op and position when unnamed.
func (j *Job) Label(index int) string {
	if j.Name != "" {
		return j.Name
	}
	return fmt.Sprintf("#%d (%s)", index+1, j.Op)
}

type file struct {
	Jobs []Job `toml:"job"`
}

// Load reads and validates the batch file at path.
func Load(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates batch file contents. Unknown keys are
// rejected.
func Parse(data []byte) ([]Job, error) {
	var f file
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, errors.New("parse batch: no [[job]] entries")
	}
	for i := range f.Jobs {
		if err := f.Jobs[i].validate(); err != nil {
			return nil, fmt.Errorf("job %s: %w", f.Jobs[i].Label(i), err)
		}
	}
	return f.Jobs, nil
}

func (j *Job) validate() error {
	op, err := bridge.ParseOp(j.Op)
	if err != nil {
		return err
	}
	j.op = op
	if j.Command != nil && j.Args != nil {
		return errors.New("command and args are mutually exclusive")
	}
	if op == bridge.OpDiagnostic && (j.Command != nil || len(j.Args) != 0) {
		return errors.New("diagnostic jobs take no arguments")
	}
	if slices.Contains(j.OKCodes, bridge.NotCalled) {
		return errors.New("ok_codes cannot include the not-called sentinel")
	}
	return nil
}

// Dispatcher runs one call. *bridge.Bridge implements it.
type Dispatcher interface {
	Run(ctx context.Context, op bridge.Op, cmd string, options any) (int32, error)
	RunArgs(ctx context.Context, op bridge.Op, args []string, options any) (int32, error)
}

var _ Dispatcher = (*bridge.Bridge)(nil)

// Result is the outcome of one job.
type Result struct {
	Index int
	Job   *Job
	// RC is the native result code, or bridge.NotCalled.
	RC  int32
	Err error
}

// Failed reports whether the call was not made or returned a code outside
// the job's OKCodes.
func (r Result) Failed() bool {
	if r.Err != nil || r.RC == bridge.NotCalled {
		return true
	}
	if r.Job == nil || len(r.Job.OKCodes) == 0 {
		return r.RC != 0
	}
	return !slices.Contains(r.Job.OKCodes, r.RC)
}

// JobError reports a failed job.
type JobError struct {
	Index int
	Name  string
	RC    int32
	Err   error
}

func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("job %s: result code %d", e.Name, e.RC)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Run executes jobs in order. It stops at the first failed job unless that
// job sets continue_on_error, and returns the results of every job that
// ran. The error joins one *JobError per failed job.
func Run(ctx context.Context, d Dispatcher, jobs []Job, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	results := make([]Result, 0, len(jobs))
	var errs []error
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		job := &jobs[i]
		if err := job.validate(); err != nil {
			errs = append(errs, &JobError{Index: i, Name: job.Label(i), RC: bridge.NotCalled, Err: err})
			break
		}

		var options any
		if job.Options != nil {
			options = job.Options
		}

		res := Result{Index: i, Job: job}
		if job.Command != nil {
			res.RC, res.Err = d.Run(ctx, job.op, *job.Command, options)
		} else {
			res.RC, res.Err = d.RunArgs(ctx, job.op, job.Args, options)
		}
		results = append(results, res)

		le := logger.With(slog.String("job", job.Label(i)), slog.String("op", job.op.String()))
		if !res.Failed() {
			le.Info("job finished", slog.Int("rc", int(res.RC)))
			continue
		}
		le.Error("job failed", slog.Int("rc", int(res.RC)), slog.Any("error", res.Err))
		errs = append(errs, &JobError{Index: i, Name: job.Label(i), RC: res.RC, Err: res.Err})
		if !job.ContinueOnError {
			break
		}
	}
	return results, errors.Join(errs...)
}
