package corpus

import (
	"fmt"
	"strings"
)

// Report summarizes one normalization pass.
type Report struct {
	Total        int `json:"total"`
	WithProblem  int `json:"with_problem"`
	WithSolution int `json:"with_solution"`
	WithBoth     int `json:"with_both"`
	Dropped      int `json:"dropped"`
}

// Add accumulates another report into r.
func (r *Report) Add(o Report) {
	r.Total += o.Total
	r.WithProblem += o.WithProblem
	r.WithSolution += o.WithSolution
	r.WithBoth += o.WithBoth
	r.Dropped += o.Dropped
}

// FieldMap declares how a source family's columns map onto the
// KnowledgeUnit schema. Candidate columns are probed in declared order
// and the first non-empty value wins.
type FieldMap struct {
	IDColumn        string
	ProductColumns  []string
	ProblemColumns  []string
	SolutionColumns []string
}

// Adapter maps one source family's tables to knowledge units.
type Adapter struct {
	kind   SourceKind
	fields FieldMap
}

// NewTechDocAdapter maps technical document exports: rows keyed by
// doc_id, solution text in solution_steps or step_description.
func NewTechDocAdapter() *Adapter {
	return &Adapter{
		kind: SourceTechDoc,
		fields: FieldMap{
			IDColumn:        "doc_id",
			ProductColumns:  []string{"product_id"},
			ProblemColumns:  []string{"problem_description", "product_information"},
			SolutionColumns: []string{"solution_steps", "step_description"},
		},
	}
}

// NewIncidentAdapter maps incident ticket exports: rows keyed by
// ticket_id, solution text in solution_details.
func NewIncidentAdapter() *Adapter {
	return &Adapter{
		kind: SourceIncident,
		fields: FieldMap{
			IDColumn:        "ticket_id",
			ProductColumns:  []string{"product_id"},
			ProblemColumns:  []string{"problem_description", "product_information"},
			SolutionColumns: []string{"solution_details", "solution_steps"},
		},
	}
}

// Kind returns the source family this adapter handles.
func (a *Adapter) Kind() SourceKind { return a.kind }

// Normalize converts the base table, left-joined with the optional
// metadata table on the family identifier column, into knowledge units.
// Rows with neither problem nor solution text are dropped and counted.
func (a *Adapter) Normalize(base Table, meta *Table) ([]KnowledgeUnit, Report, error) {
	var rep Report

	if !hasColumn(base.Columns, a.fields.IDColumn) {
		return nil, rep, fmt.Errorf("%w: table %q missing identifier column %q",
			ErrDataFormat, base.Name, a.fields.IDColumn)
	}

	metaByID := map[string]Row{}
	if meta != nil {
		if !hasColumn(meta.Columns, a.fields.IDColumn) {
			return nil, rep, fmt.Errorf("%w: metadata table %q missing identifier column %q",
				ErrDataFormat, meta.Name, a.fields.IDColumn)
		}
		for _, row := range meta.Rows {
			r := canonicalRow(row)
			if id := r[canonicalKey(a.fields.IDColumn)]; id != "" {
				metaByID[id] = r
			}
		}
	}

	idKey := canonicalKey(a.fields.IDColumn)
	units := make([]KnowledgeUnit, 0, len(base.Rows))
	for _, row := range base.Rows {
		rep.Total++

		merged := canonicalRow(row)
		sourceID := merged[idKey]
		if sourceID == "" {
			rep.Dropped++
			continue
		}
		// Left join: base values take precedence over metadata values.
		for k, v := range metaByID[sourceID] {
			if merged[k] == "" {
				merged[k] = v
			}
		}

		unit := KnowledgeUnit{
			UnitID:       UnitID(a.kind, sourceID),
			SourceID:     sourceID,
			ProductID:    firstNonEmpty(merged, a.fields.ProductColumns),
			ProblemText:  firstNonEmpty(merged, a.fields.ProblemColumns),
			SolutionText: firstNonEmpty(merged, a.fields.SolutionColumns),
			SourceKind:   a.kind,
		}
		if !unit.HasText() {
			rep.Dropped++
			continue
		}

		unit.Metadata = a.leftoverFields(merged)
		if unit.ProblemText != "" {
			rep.WithProblem++
		}
		if unit.SolutionText != "" {
			rep.WithSolution++
		}
		if unit.ProblemText != "" && unit.SolutionText != "" {
			rep.WithBoth++
		}
		units = append(units, unit)
	}

	return units, rep, nil
}

// leftoverFields collects merged columns not consumed by the field map.
func (a *Adapter) leftoverFields(merged Row) map[string]string {
	consumed := map[string]bool{canonicalKey(a.fields.IDColumn): true}
	for _, cols := range [][]string{a.fields.ProductColumns, a.fields.ProblemColumns, a.fields.SolutionColumns} {
		for _, c := range cols {
			consumed[canonicalKey(c)] = true
		}
	}

	var out map[string]string
	for k, v := range merged {
		if consumed[k] || v == "" {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}

// canonicalKey normalizes a column name so that exports using different
// casing conventions (StepDescription vs step_description) line up.
func canonicalKey(col string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), "_", "")
}

func canonicalRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[canonicalKey(k)] = cleanText(v)
	}
	return out
}

func hasColumn(columns []string, name string) bool {
	want := canonicalKey(name)
	for _, c := range columns {
		if canonicalKey(c) == want {
			return true
		}
	}
	return false
}

func firstNonEmpty(merged Row, candidates []string) string {
	for _, c := range candidates {
		if v := merged[canonicalKey(c)]; v != "" {
			return v
		}
	}
	return ""
}
