// ABOUTME: ConversionDriver: per-file backup, read, sort, validate, write,
// ABOUTME: reload, validate pipeline with rollback logging across four channels

package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nainya/digdoc/internal/logger"
	"github.com/nainya/digdoc/internal/metrics"
	"github.com/nainya/digdoc/pkg/fileformat"
	"github.com/nainya/digdoc/pkg/ruleset"
	"github.com/nainya/digdoc/pkg/validate"
)

// FormatFactory constructs a fresh FileFormat bound to rs. The driver is
// generic over the concrete serialization adapter: it only depends on the
// fileformat.FileFormat capability, never on a specific XML dialect.
type FormatFactory func(rs *ruleset.RuleSet) fileformat.FileFormat

// Driver runs the per-file conversion pipeline of §4.5: backup, read via
// the RDF format, attach a METS format to the same Document, sort, validate,
// write, reload, and certify via the tokenizer-validator.
type Driver struct {
	RuleSet *ruleset.RuleSet
	NewRDF  FormatFactory
	NewMETS FormatFactory
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

// fileState tracks the short-circuiting flags of a single file's pipeline
// run, per the model's single-writer discipline: each stage checks these
// before proceeding.
type fileState struct {
	flagErrorBackup   bool
	flagError         bool
	conversionFailure bool
}

func (s *fileState) blocked() bool {
	return s.flagErrorBackup || s.flagError || s.conversionFailure
}

// Result describes the outcome of converting a single file.
type Result struct {
	Path     string
	Outcome  string // "commit", "rollback", "ugh"
	Reason   string
	Err      error
}

// RunDirectory walks basePath recursively, running ConvertFile on every
// file named meta.xml. Per-file failures are logged and do not abort the
// walk; an I/O error from the walk itself stops it and is returned along
// with the results gathered so far.
func (d *Driver) RunDirectory(basePath string) ([]Result, error) {
	if d.Metrics != nil {
		d.Metrics.DriverRunsTotal.Inc()
	}
	if d.Log != nil {
		d.Log.LogDriverStart(basePath, "")
	}

	var results []Result
	walkErr := filepath.WalkDir(basePath, func(path string, de os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() || de.Name() != "meta.xml" {
			return nil
		}
		results = append(results, d.ConvertFile(path))
		return nil
	})

	if d.Log != nil {
		committed, rolledBack := 0, 0
		for _, r := range results {
			switch r.Outcome {
			case "commit":
				committed++
			case "rollback", "ugh":
				rolledBack++
			}
		}
		d.Log.LogDriverDone(len(results), committed, rolledBack)
	}

	return results, walkErr
}

// ConvertFile runs the eight-step pipeline against a single meta.xml path.
func (d *Driver) ConvertFile(path string) Result {
	start := time.Now()
	st := &fileState{}

	backupPath, err := d.backup(path, st)
	if st.blocked() {
		return d.rollback(path, "backup", err)
	}

	rdfFormat := d.NewRDF(d.RuleSet)
	if _, err := rdfFormat.Read(path); err != nil {
		st.flagError = true
		return d.rollback(path, "read", err)
	}
	origCopy := rdfFormat.Document().Copy()

	metsFormat := d.NewMETS(d.RuleSet)
	metsFormat.SetDocument(rdfFormat.Document())
	rdfFormat.Document().SortMetadataRecursively(d.RuleSet)

	contentReport := (validate.ContentValidator{}).Validate(rdfFormat.Document(), d.RuleSet, path)
	if d.Metrics != nil {
		d.Metrics.RecordContentViolations(len(contentReport.Violations))
	}

	if !validate.Equals(rdfFormat.Document(), metsFormat.Document()) {
		if d.Metrics != nil {
			d.Metrics.RecordEqualsMismatch()
		}
		st.conversionFailure = true
		return d.rollback(path, "equals-self-check", fmt.Errorf("rdf and mets documents diverged"))
	}

	if _, err := metsFormat.Write(path); err != nil {
		st.flagError = true
		return d.rollback(path, "write", err)
	}
	d.logSave(path, "wrote METS file")

	reloaded := d.NewMETS(d.RuleSet)
	if _, err := reloaded.Read(path); err != nil {
		st.flagError = true
		return d.rollback(path, "reload", err)
	}

	stem := strings.TrimSuffix(path, filepath.Ext(path))
	fromMetsPath := stem + ".fromMets.rdf.xml"
	origPath := stem + ".orig.rdf.xml"

	rdfOfReload := d.NewRDF(d.RuleSet)
	rdfOfReload.SetDocument(reloaded.Document())
	if _, err := rdfOfReload.Write(fromMetsPath); err != nil {
		st.flagError = true
		return d.rollback(path, "write-from-mets", err)
	}
	d.logSave(path, "wrote "+fromMetsPath)

	rdfOfOrig := d.NewRDF(d.RuleSet)
	rdfOfOrig.SetDocument(origCopy)
	if _, err := rdfOfOrig.Write(origPath); err != nil {
		st.flagError = true
		return d.rollback(path, "write-orig", err)
	}
	d.logSave(path, "wrote "+origPath)

	tokReport, err := (validate.TokenizerValidator{}).Validate(backupPath, fromMetsPath)
	if err != nil {
		if d.Metrics != nil {
			d.Metrics.RecordFileOutcome("ugh", "")
		}
		if d.Log != nil {
			d.Log.LogUgh(path, err)
		}
		return Result{Path: path, Outcome: "ugh", Err: err}
	}

	if !tokReport.Equal {
		if d.Metrics != nil {
			d.Metrics.RecordTokenizerMismatch()
		}
		return d.rollback(path, "tokenizer", fmt.Errorf("%s", tokReport.Diagnostic))
	}

	if d.Metrics != nil {
		d.Metrics.RecordFileOutcome("commit", "")
		d.Metrics.RecordStageDuration("full-pipeline", time.Since(start))
	}
	if d.Log != nil {
		d.Log.LogCommit(path, time.Since(start))
	}
	return Result{Path: path, Outcome: "commit"}
}

// backup derives an unused meta(N).bak path next to path and copies the
// input there. On any I/O failure it sets flagErrorBackup and returns the
// error without a usable backup path.
func (d *Driver) backup(path string, st *fileState) (string, error) {
	backupPath, err := nextBackupPath(path)
	if err != nil {
		st.flagErrorBackup = true
		return "", err
	}
	if err := copyFile(path, backupPath); err != nil {
		st.flagErrorBackup = true
		return "", err
	}
	d.logSave(path, "wrote backup "+backupPath)
	return backupPath, nil
}

// nextBackupPath returns "meta.bak" if unused, otherwise the first of
// "meta(1).bak", "meta(2).bak", ... that doesn't already exist.
func nextBackupPath(path string) (string, error) {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	candidate := filepath.Join(dir, base+".bak")
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	} else if err != nil {
		return "", err
	}

	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s(%d).bak", base, n))
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func (d *Driver) logSave(path, action string) {
	if d.Log != nil {
		d.Log.LogSave(path, action)
	}
}

func (d *Driver) rollback(path, stage string, err error) Result {
	if d.Metrics != nil {
		d.Metrics.RecordFileOutcome("rollback", stage)
	}
	if d.Log != nil {
		d.Log.LogRollback(path, stage, err)
	}
	return Result{Path: path, Outcome: "rollback", Reason: stage, Err: err}
}
