package engine

import (
	"time"

	"db-sanity/internal/check"
	"db-sanity/internal/report"
	"db-sanity/internal/rules"
	"db-sanity/internal/schema"
	"db-sanity/internal/source"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"
)

// Options configure one audit run.
type Options struct {
	Fs     afero.Fs
	Layout Layout

	// Source overrides the directory source built from Layout.DataDir.
	Source source.Source
	// Relationships overrides the relationships file when non-nil.
	Relationships []schema.Relationship

	Checks        check.Options
	RestoreOnOff  bool
	ReportSkipped bool
	Workers       int // 0 means GOMAXPROCS

	Now    func() time.Time
	Logger zerolog.Logger

	// OnStart receives the number of steps (tables plus relationships)
	// once the inputs are known; OnStep is called from workers after each.
	OnStart func(total int)
	OnStep  func()
}

type tableOutcome struct {
	name   string
	table  *schema.Table
	checks []check.Result
	enums  []check.Result
}

// Run loads every table, checks it, checks the relationships between the
// loaded tables and assembles the report. It fails only when the data
// source or the relationships document is missing; unreadable tables and
// enum documents are logged and skipped.
func Run(opts Options) (*report.Report, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger

	src := opts.Source
	if src == nil {
		dir, err := source.NewDirSource(opts.Fs, opts.Layout.DataDir)
		if err != nil {
			return nil, err
		}
		src = dir
	}

	rels := opts.Relationships
	if rels == nil {
		var err error
		rels, err = rules.LoadRelationships(opts.Fs, opts.Layout.Relationships)
		if err != nil {
			return nil, err
		}
	}

	enums := loadEnums(opts, log)

	names, err := src.List()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	log.Info().Int("tables", len(names)).Int("relationships", len(rels)).
		Int("enum_tables", enums.Len()).Msg("starting sanity checks")

	if opts.OnStart != nil {
		opts.OnStart(len(names) + len(rels))
	}
	step := func() {
		if opts.OnStep != nil {
			opts.OnStep()
		}
	}

	rep := report.New(opts.Now())

	// Tables: each worker loads and checks one table into its own slot.
	tableMapper := iter.Mapper[string, tableOutcome]{MaxGoroutines: opts.Workers}
	outcomes := tableMapper.Map(names, func(name *string) tableOutcome {
		defer step()
		out := tableOutcome{name: *name}
		t, err := src.Load(*name)
		if err != nil {
			var le *source.LoadError
			if errors.As(err, &le) {
				log.Error().Err(le.Err).Str("table", le.Table).Str("path", le.Path).Msg("skipping table")
			} else {
				log.Error().Err(err).Str("table", *name).Msg("skipping table")
			}
			return out
		}
		out.table = t
		out.checks = check.TableChecks(t, opts.Checks)
		out.enums = check.EnumMembership(t, enums.Table(t.Name), opts.Checks)
		for _, r := range out.checks {
			logResult(log, "table", out.name, r)
		}
		for _, r := range out.enums {
			logResult(log, "table", out.name, r)
		}
		return out
	})

	loaded := make(map[string]*schema.Table, len(outcomes))
	for _, out := range outcomes {
		if out.table == nil {
			continue
		}
		loaded[out.name] = out.table
		rep.AddTable(out.name, out.table.Len(), out.checks, out.enums)
	}

	// Relationships: read-only over the loaded tables.
	relMapper := iter.Mapper[schema.Relationship, []check.Result]{MaxGoroutines: opts.Workers}
	relResults := relMapper.Map(rels, func(rel *schema.Relationship) []check.Result {
		defer step()
		results := checkRelationship(*rel, loaded, opts, log)
		for _, r := range results {
			logResult(log, "relationship", r.Relationship, r)
		}
		return results
	})

	for _, results := range relResults {
		rep.AddRelationships(results...)
	}

	s := rep.Summary()
	log.Info().Int("tables", s.Tables).Int("checks", s.Checks).Int("failed", s.Failed).Msg("sanity checks finished")
	return rep, nil
}

func loadEnums(opts Options, log zerolog.Logger) *schema.EnumDef {
	def, err := rules.LoadEnums(opts.Fs, opts.Layout.Enums, opts.RestoreOnOff)
	switch {
	case err == nil:
		return def
	case errors.Is(err, rules.ErrEnumsMissing):
		log.Warn().Str("path", opts.Layout.Enums).Msg("enums file not found, skipping enum checks")
	default:
		log.Warn().Err(err).Msg("could not read enums, skipping enum checks")
	}
	return schema.NewEnumDef()
}

func checkRelationship(rel schema.Relationship, loaded map[string]*schema.Table, opts Options, log zerolog.Logger) []check.Result {
	var missing []string
	for _, name := range []string{rel.ParentTable, rel.ChildTable} {
		if _, ok := loaded[name]; !ok && !containsString(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		log.Debug().Str("relationship", rel.Label()).Strs("missing", missing).Msg("skipping relationship")
		if opts.ReportSkipped {
			return []check.Result{check.Skipped(rel, missing)}
		}
		return nil
	}
	if !rel.Type.Known() {
		log.Warn().Str("relationship", rel.Label()).Str("type", string(rel.Type)).
			Msg("unknown relationship type, checking references only")
	}
	return check.Relationship(rel, loaded[rel.ParentTable], loaded[rel.ChildTable], opts.Checks)
}

func logResult(log zerolog.Logger, scopeKey, scope string, r check.Result) {
	ev := log.Info()
	if r.Failed() {
		ev = log.Warn()
	}
	ev = ev.Str(scopeKey, scope).Str("check", r.Check).Bool("passed", r.Passed)
	if r.Metric != nil {
		ev = ev.Float64("metric", *r.Metric)
	}
	if r.Details != nil && r.Failed() {
		ev = ev.Int("count", r.Details.Count)
	}
	ev.Msg("check")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
