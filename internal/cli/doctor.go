package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"gnconf/internal/genargs"
	"gnconf/internal/locator"
)

// Doctor check statuses.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// DoctorResult holds the result of one check.
type DoctorResult struct {
	Name    string
	Status  string
	Message string
}

// Diagnose runs every check without printing anything.
func Diagnose(req Request) []DoctorResult {
	var results []DoctorResult
	add := func(name, status, format string, args ...any) {
		results = append(results, DoctorResult{Name: name, Status: status, Message: fmt.Sprintf(format, args...)})
	}

	// 1. Host
	rel, relErr := req.Host.ToolRelPath()
	if relErr != nil {
		add("Host", StatusFail, "host %q has no gn binary layout", req.Host)
	} else {
		add("Host", StatusPass, "%s (expects %s)", req.Host, rel)
	}

	// 2. Base directory
	if info, err := osStat(req.BaseDir); err != nil {
		add("Base Dir", StatusFail, "cannot read %s: %v", req.BaseDir, err)
	} else if !info.IsDir() {
		add("Base Dir", StatusFail, "%s is not a directory", req.BaseDir)
	} else {
		add("Base Dir", StatusPass, "%s", req.BaseDir)
	}

	// 3. Generator binary
	if relErr == nil {
		tool, err := locateFn(req.Host, req.BaseDir)
		if err != nil {
			add("Generator", StatusFail, "%v", err)
		} else {
			add("Generator", StatusPass, "%s", tool)
			results = append(results, checkFormat(req, tool))
		}
	}

	// 4. Options
	if args, err := genargs.Build(req.OutDir, req.Options); err != nil {
		add("Options", StatusFail, "%v", err)
	} else {
		add("Options", StatusPass, "%q", args[2:])
	}

	// 5. Output directory
	out := req.OutDir
	if out != "" && !filepath.IsAbs(out) {
		out = filepath.Join(req.BaseDir, out)
	}
	if out == "" {
		add("Out Dir", StatusFail, "output directory is empty")
	} else if info, err := osStat(out); err != nil {
		add("Out Dir", StatusPass, "%s will be created by gn", out)
	} else if !info.IsDir() {
		add("Out Dir", StatusFail, "%s exists and is not a directory", out)
	} else {
		add("Out Dir", StatusPass, "%s exists", out)
	}
	return results
}

func checkFormat(req Request, tool locator.ToolPath) DoctorResult {
	want := locator.ExpectedFormat(req.Host)
	got, err := inspectFn(tool.String())
	switch {
	case err != nil:
		return DoctorResult{Name: "Binary Format", Status: StatusWarn, Message: err.Error()}
	case got == locator.FormatUnknown:
		return DoctorResult{Name: "Binary Format", Status: StatusWarn, Message: fmt.Sprintf("could not identify format, expected %s", want)}
	case got != want:
		return DoctorResult{Name: "Binary Format", Status: StatusFail, Message: fmt.Sprintf("%s binary in the %s layout", got, req.Host)}
	}
	return DoctorResult{Name: "Binary Format", Status: StatusPass, Message: string(got)}
}

// RunDoctor prints the checks and a summary. Returns 0 when nothing failed.
func RunDoctor(req Request, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "Running gnconf checks...\n\n")
	results := Diagnose(req)

	passCount, failCount, warnCount := 0, 0, 0
	for _, r := range results {
		icon := "✓"
		switch r.Status {
		case StatusFail:
			icon = "✗"
			failCount++
		case StatusWarn:
			icon = "⚠"
			warnCount++
		default:
			passCount++
		}
		fmt.Fprintf(stdout, "  %s %-14s %s\n", icon, r.Name, r.Message)
	}
	fmt.Fprintf(stdout, "\n%d passed, %d warnings, %d failed\n", passCount, warnCount, failCount)
	if failCount > 0 {
		fmt.Fprintln(stderr, "gnconf: doctor found problems")
		return ExitFailure
	}
	return ExitOK
}
