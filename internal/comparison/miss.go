package comparison

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	gseries "github.com/go-gota/gota/series"

	"charmcli/internal/series"
	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// Column labels of the merged miss table
const (
	MissActigraph  = "Actigraph"
	MissSmartwatch = "Smartwatch"
	MissCore       = "CORE"
)

const idColumn = "ID"

func missFrame(ids []string, values []float64, name string) dataframe.DataFrame {
	norm := make([]string, len(ids))
	for i, id := range ids {
		norm[i] = domain.NormalizeID(id)
	}
	return dataframe.New(
		gseries.New(norm, gseries.String, idColumn),
		gseries.New(values, gseries.Float, name),
	)
}

// MergeMiss joins the three device miss tables on participant ID. Only
// participants present in every table are kept.
func MergeMiss(acti []domain.ActiMissRecord, watch []domain.WatchMissRecord, core []domain.CoreMissRecord) (dataframe.DataFrame, error) {
	var ids []string
	var values []float64
	for _, r := range acti {
		ids, values = append(ids, r.ID), append(values, r.NoWear)
	}
	a := missFrame(ids, values, MissActigraph)

	ids, values = nil, nil
	for _, r := range watch {
		ids, values = append(ids, r.ID), append(values, r.NoWear)
	}
	w := missFrame(ids, values, MissSmartwatch)

	ids, values = nil, nil
	for _, r := range core {
		ids, values = append(ids, r.ID), append(values, r.NoWear)
	}
	c := missFrame(ids, values, MissCore)

	merged := a.InnerJoin(w, idColumn).InnerJoin(c, idColumn)
	if merged.Err != nil {
		return merged, fmt.Errorf("merge miss tables: %w", merged.Err)
	}
	return merged, nil
}

// DescribeMiss summarises every device column of a merged miss table
func DescribeMiss(df dataframe.DataFrame) *series.Table {
	columns := []string{MissActigraph, MissSmartwatch, MissCore}
	desc := make([]stats.Description, len(columns))
	for i, name := range columns {
		desc[i] = stats.Describe(df.Col(name).Float())
	}

	tbl := series.NewTable(append([]string{""}, columns...)...)
	rows := []struct {
		label string
		value func(d stats.Description) interface{}
	}{
		{"count", func(d stats.Description) interface{} { return d.Count }},
		{"mean", func(d stats.Description) interface{} { return d.Mean }},
		{"std", func(d stats.Description) interface{} { return d.Std }},
		{"min", func(d stats.Description) interface{} { return d.Min }},
		{"25%", func(d stats.Description) interface{} { return d.Q25 }},
		{"50%", func(d stats.Description) interface{} { return d.Q50 }},
		{"75%", func(d stats.Description) interface{} { return d.Q75 }},
		{"max", func(d stats.Description) interface{} { return d.Max }},
	}
	for _, r := range rows {
		cells := []interface{}{r.label}
		for _, d := range desc {
			cells = append(cells, r.value(d))
		}
		tbl.Append(cells...)
	}
	return tbl
}

// MergedTable renders a merged miss frame as a Table
func MergedTable(df dataframe.DataFrame) *series.Table {
	tbl := series.NewTable(idColumn, MissActigraph, MissSmartwatch, MissCore)
	ids := df.Col(idColumn).Records()
	a := df.Col(MissActigraph).Float()
	w := df.Col(MissSmartwatch).Float()
	c := df.Col(MissCore).Float()
	for i, id := range ids {
		tbl.Append(id, a[i], w[i], c[i])
	}
	return tbl
}
