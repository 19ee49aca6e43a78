// internal/engagement/generator/batch.go
package generator

import (
	"context"
	"path/filepath"

	"engagement-letters/internal/common/metrics"
	"engagement-letters/internal/engagement/persistence"

	"github.com/google/uuid"
)

// GenerateFromJSON loads a saved record and writes its letter, or both
// letters of a dual record.
func (g *Generator) GenerateFromJSON(ctx context.Context, path string) ([]*Result, error) {
	rec, err := persistence.Load(path)
	if err != nil {
		return nil, err
	}
	if rec.IsDual() {
		dual, err := g.GenerateDual(ctx, rec.Dual)
		return dual.Results(), err
	}
	res, err := g.Generate(ctx, rec.Single, "")
	if err != nil {
		return nil, err
	}
	return []*Result{res}, nil
}

// BatchItem is the outcome for one record file.
type BatchItem struct {
	File    string    `json:"file"`
	Results []*Result `json:"results,omitempty"`
	Err     error     `json:"-"`
	Error   string    `json:"error,omitempty"`
}

type BatchReport struct {
	ID    string      `json:"id"`
	Dir   string      `json:"dir"`
	Items []BatchItem `json:"items"`
}

// Generated counts the letters written.
func (r *BatchReport) Generated() int {
	n := 0
	for _, it := range r.Items {
		n += len(it.Results)
	}
	return n
}

// Failed counts the files with at least one error.
func (r *BatchReport) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}

// Batch generates letters for every .json file in dir, one file at a time.
// A failing file is recorded and the batch moves on. Only an unreadable
// directory or a cancelled context stops it early.
func (g *Generator) Batch(ctx context.Context, dir string) (*BatchReport, error) {
	files, err := persistence.ListJSON(dir)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{ID: uuid.NewString(), Dir: dir}
	log := g.logger.WithFields(map[string]interface{}{"batchId": report.ID})
	log.Info("Batch started", map[string]interface{}{"dir": dir, "files": len(files)})

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		results, err := g.GenerateFromJSON(ctx, file)
		item := BatchItem{File: filepath.Base(file), Results: results, Err: err}
		if err != nil {
			item.Error = err.Error()
			metrics.BatchItems.WithLabelValues("failed").Inc()
			log.Warn("Batch item failed", map[string]interface{}{"file": item.File, "error": err.Error()})
		} else {
			metrics.BatchItems.WithLabelValues("generated").Inc()
		}
		report.Items = append(report.Items, item)
	}

	log.Info("Batch complete", map[string]interface{}{
		"generated": report.Generated(),
		"failed":    report.Failed(),
	})
	return report, nil
}
