package agent

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-agent/internal/store"
)

const (
	employeeText = "Employee Name: Jane Doe\nAnnual Salary: $85,000\nDepartment: Finance"
	w2Text       = `Form W-2 Wage and Tax Statement
Employer identification number (EIN): 12-3456789
Employee's social security number: 123-45-6789
Employee Name: John Smith
Federal income tax withheld: $9,500.00
Social security wages: $72,000.00
Medicare wages: $72,000.00`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc, err := NewService(Options{Dir: dir, MaxFileSize: 1024 * 1024, Workers: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, dir
}

func TestNewService_RequiresDir(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)
}

func TestLoadForm(t *testing.T) {
	svc, dir := newTestService(t)
	path := writeFile(t, dir, "employee.txt", employeeText)

	doc, err := svc.LoadForm(context.Background(), "employee.txt")
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.NotEmpty(t, doc.ID)
	v, ok := doc.Fields.Get("Employee Name")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", v.String())

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, doc.ID, list[0].ID)
}

func TestLoadForm_Errors(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "scan.png", "\x89PNG\r\n")
	writeFile(t, dir, "big.txt", strings.Repeat("x", 1024*1024+1))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", "missing.txt", ErrNotFound},
		{"outside", "../escape.txt", ErrOutsideDirectory},
		{"image", "scan.png", ErrUnsupportedFormat},
		{"too large", "big.txt", ErrFileTooLarge},
		{"directory", "sub", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LoadForm(context.Background(), tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadForms(t *testing.T) {
	svc, dir := newTestService(t)
	names := []string{"a.txt", "b.txt", "c.txt", "d.txt"}
	for i, name := range names {
		writeFile(t, dir, name, "Employee Name: Person "+string(rune('A'+i)))
	}

	docs, err := svc.LoadForms(context.Background(), names)
	require.NoError(t, err)
	require.Len(t, docs, 4)
	for i, doc := range docs {
		assert.Equal(t, filepath.Join(dir, names[i]), doc.Path, "input order kept")
	}

	_, err = svc.LoadForms(context.Background(), []string{"a.txt", "nope.txt"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.LoadForms(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGet(t *testing.T) {
	svc, dir := newTestService(t)
	path := writeFile(t, dir, "employee.txt", employeeText)
	ctx := context.Background()

	// loaded on demand by path
	doc, err := svc.Get(ctx, "employee.txt")
	require.NoError(t, err)

	byID, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byID.ID)

	byAbs, err := svc.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byAbs.ID, "stored document reused")

	// a newer file is processed again
	writeFile(t, dir, "employee.txt", employeeText+"\nManager: Bob Stone")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	reloaded, err := svc.Get(ctx, "employee.txt")
	require.NoError(t, err)
	assert.NotEqual(t, doc.ID, reloaded.ID)
	assert.True(t, reloaded.Fields.Has("Manager"))

	_, err = svc.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Get(ctx, "0b6c9d3e-unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForget(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "employee.txt", employeeText)
	ctx := context.Background()

	doc, err := svc.LoadForm(ctx, "employee.txt")
	require.NoError(t, err)
	require.NoError(t, svc.Forget(ctx, "employee.txt"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.ErrorIs(t, svc.Forget(ctx, doc.ID), ErrNotFound)
}

func TestFieldsTablesClassify(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "w2.txt", w2Text)
	writeFile(t, dir, "items.csv", "Item,Qty,Price\nPen,2,$1.50\nPad,1,$3.00\n")
	ctx := context.Background()

	fields, err := svc.Fields(ctx, "w2.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "w2", fields.SchemaType)
	assert.Equal(t, fields.Fields.Len(), fields.Count)
	assert.Nil(t, fields.Matches)

	scored, err := svc.Fields(ctx, "w2.txt", true)
	require.NoError(t, err)
	require.NotEmpty(t, scored.Matches)
	for i, m := range scored.Matches {
		assert.Greater(t, m.Confidence, 0.3)
		assert.LessOrEqual(t, m.Confidence, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, m.Confidence, scored.Matches[i-1].Confidence)
		}
	}

	tables, err := svc.Tables(ctx, "items.csv")
	require.NoError(t, err)
	require.Equal(t, 1, tables.Count)
	assert.Equal(t, []string{"Item", "Qty", "Price"}, tables.Tables[0].Headers)
	assert.Empty(t, tables.Totals)

	classified, err := svc.Classify(ctx, "w2.txt")
	require.NoError(t, err)
	assert.Equal(t, "w2", classified.SchemaType)
	assert.Equal(t, "W-2", classified.DisplayName)
	require.NotNil(t, classified.Best)
	require.NotEmpty(t, classified.Candidates)
	assert.Equal(t, "w2", classified.Candidates[0].SchemaType)
}

func TestTablesTotalsAndAggregate(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "invoice.csv", "Item,Qty,Price\nPen,2,$1.50\nPad,1,$3.00\nTotal,3,$4.50\n")
	ctx := context.Background()

	res, err := svc.Tables(ctx, "invoice.csv")
	require.NoError(t, err)
	require.Len(t, res.Totals, 1)
	assert.Equal(t, 0, res.Totals[0].Table)
	assert.Equal(t, "Total", res.Totals[0].Label)
	assert.Equal(t, map[string]float64{"Qty": 3, "Price": 4.5}, res.Totals[0].Values)

	agg, err := svc.AggregateTables(ctx, "invoice.csv", "price", "avg")
	require.NoError(t, err)
	assert.Equal(t, "avg", agg.Operation)
	require.Len(t, agg.Values, 1)
	assert.InDelta(t, 3.0, agg.Values[0].Value, 1e-9)

	missing, err := svc.AggregateTables(ctx, "invoice.csv", "Discount", "sum")
	require.NoError(t, err)
	assert.Empty(t, missing.Values)

	_, err = svc.AggregateTables(ctx, "invoice.csv", "Price", "median")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AggregateTables(ctx, "invoice.csv", " ", "sum")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateFields(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "w2.txt", w2Text)
	writeFile(t, dir, "employee.txt", employeeText)
	ctx := context.Background()

	res, err := svc.ValidateFields(ctx, "w2.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "w2", res.SchemaType)
	assert.Len(t, res.Expected, 8)
	assert.Greater(t, res.Completeness, 0.0)
	assert.Less(t, res.Completeness, 1.0)
	assert.NotContains(t, res.Missing, "Employee Name")

	_, err = svc.ValidateFields(ctx, "w2.txt", "no_such_form")
	assert.ErrorIs(t, err, ErrInvalidInput)

	res, err = svc.ValidateFields(ctx, "employee.txt", "job_application")
	require.NoError(t, err)
	assert.Contains(t, res.Missing, "Applicant Name")
}

func TestAsk(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "employee.txt", employeeText)
	ctx := context.Background()

	answer, err := svc.Ask(ctx, "employee.txt", "What is the employee name?")
	require.NoError(t, err)
	assert.Equal(t, "The Employee Name is: Jane Doe", answer.Answer)
	assert.Equal(t, 0.9, answer.Confidence)

	_, err = svc.Ask(ctx, "employee.txt", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func salaryFiles(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	for _, p := range []struct{ name, person, salary string }{
		{"a.txt", "Ann", "$50,000"},
		{"b.txt", "Bob", "$60,000"},
		{"c.txt", "Cid", "$70,000"},
	} {
		writeFile(t, dir, p.name, "Employee Name: "+p.person+"\nAnnual Salary: "+p.salary)
		names = append(names, p.name)
	}
	return names
}

func TestAskMultipleAndAnalyze(t *testing.T) {
	svc, dir := newTestService(t)
	names := salaryFiles(t, dir)
	ctx := context.Background()

	answer, err := svc.AskMultiple(ctx, names, "What is the annual salary?")
	require.NoError(t, err)
	assert.Contains(t, answer.Context, "["+filepath.Join(dir, "b.txt")+"]: Annual Salary: $60,000")

	analysis, err := svc.Analyze(ctx, names, "What is the average salary?")
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.TotalDocuments)
	assert.Contains(t, analysis.Insights, "Average Annual Salary: $60,000.00 (range: $50,000.00 - $70,000.00)")

	single, err := svc.Analyze(ctx, names[:1], "What is the average salary?")
	require.NoError(t, err)
	assert.Equal(t, 1, single.TotalDocuments)
	assert.Contains(t, single.CommonFields, "Annual Salary")
	assert.Empty(t, single.FieldSummary)
	assert.NotEmpty(t, single.Answer)

	empty, err := svc.Analyze(ctx, nil, "q")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalDocuments)
}

func TestSummarizeAndCompare(t *testing.T) {
	svc, dir := newTestService(t)
	names := salaryFiles(t, dir)
	ctx := context.Background()

	summary, err := svc.Summarize(ctx, "a.txt", "narrative")
	require.NoError(t, err)
	assert.Contains(t, summary.FullText, "Ann")

	_, err = svc.Summarize(ctx, "a.txt", "haiku")
	assert.ErrorIs(t, err, ErrInvalidInput)

	multi, err := svc.SummarizeMultiple(ctx, names)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(multi, "MULTI-FORM SUMMARY (3 forms)"))

	cmp, err := svc.Compare(ctx, "a.txt", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"Employee Name", "Annual Salary"}, cmp.CommonFields)
	assert.Len(t, cmp.Differences, 2)
}

func TestRetrieve(t *testing.T) {
	svc, dir := newTestService(t)
	names := salaryFiles(t, dir)
	ctx := context.Background()

	snippets, err := svc.Retrieve(ctx, names[:1], "annual salary", 0)
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	assert.Contains(t, snippets[0].Text, "Annual Salary")

	multi, err := svc.Retrieve(ctx, names, "annual salary", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(multi), 2)

	_, err = svc.Retrieve(ctx, names, "", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExport(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "employee.txt", employeeText)
	ctx := context.Background()

	md, err := svc.Export(ctx, "employee.txt", "markdown", "")
	require.NoError(t, err)
	assert.Equal(t, "text", md.Encoding)
	assert.True(t, strings.HasPrefix(md.Content, "# Form Extraction Report"))

	xlsx, err := svc.Export(ctx, "employee.txt", "xlsx", "")
	require.NoError(t, err)
	assert.Equal(t, "base64", xlsx.Encoding)
	raw, err := base64.StdEncoding.DecodeString(xlsx.Content)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(raw[:2]))

	written, err := svc.Export(ctx, "employee.txt", "csv", "out/employee.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "employee.csv"), written.OutputPath)
	data, err := os.ReadFile(written.OutputPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Field,Value\n"))

	_, err = svc.Export(ctx, "employee.txt", "csv", "../escape.csv")
	assert.ErrorIs(t, err, ErrOutsideDirectory)
	_, err = svc.Export(ctx, "employee.txt", "docx", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSearch(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "w2_2024.txt", w2Text)
	writeFile(t, dir, "taxes/w2-2023.pdf", "%PDF-1.4")
	writeFile(t, dir, "invoice.csv", "a,b")
	writeFile(t, dir, "photo.png", "\x89PNG")
	writeFile(t, dir, ".hidden/w2.txt", "x")
	ctx := context.Background()

	all, err := svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalCount)

	w2, err := svc.Search(ctx, "", "w2")
	require.NoError(t, err)
	assert.Equal(t, 2, w2.TotalCount)

	sub, err := svc.Search(ctx, "taxes", "2023 w2")
	require.NoError(t, err)
	require.Len(t, sub.Files, 1)
	assert.Equal(t, "pdf", sub.Files[0].FileType)

	_, err = svc.Search(ctx, "../", "")
	assert.ErrorIs(t, err, ErrOutsideDirectory)
	_, err = svc.Search(ctx, "invoice.csv", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchesQuery(t *testing.T) {
	tests := []struct {
		file  string
		query string
		want  bool
	}{
		{"W2_2024.pdf", "", true},
		{"W2_2024.pdf", "w2_2024", true},
		{"W2_2024.pdf", "2024 w2", true},
		{"annual-report.txt", "report annual", true},
		{"annual-report.txt", "invoice", false},
	}
	for _, tt := range tests {
		if got := matchesQuery(tt.file, tt.query); got != tt.want {
			t.Errorf("matchesQuery(%q, %q) = %v, want %v", tt.file, tt.query, got, tt.want)
		}
	}
}

func TestServerInfo(t *testing.T) {
	svc, dir := newTestService(t)
	writeFile(t, dir, "employee.txt", employeeText)
	ctx := context.Background()

	info, err := svc.ServerInfo(ctx, "mcp-form-agent", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, dir, info.DefaultDirectory)
	assert.Equal(t, "term", info.RetrievalStrategy)
	assert.Contains(t, info.SchemaTypes, "w2")
	assert.Contains(t, info.ExportFormats, "xlsx")
	assert.Len(t, info.DirectoryContents, 1)
	assert.Equal(t, 0, info.DocumentsLoaded)
	assert.Contains(t, info.UsageGuidance, "form_load")

	// listings are cached until cleared
	writeFile(t, dir, "second.txt", employeeText)
	info, err = svc.ServerInfo(ctx, "mcp-form-agent", "1.2.3")
	require.NoError(t, err)
	assert.Len(t, info.DirectoryContents, 1)

	svc.ClearCache()
	info, err = svc.ServerInfo(ctx, "mcp-form-agent", "1.2.3")
	require.NoError(t, err)
	assert.Len(t, info.DirectoryContents, 2)
}

func TestService_SQLiteStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "employee.txt", employeeText)
	ctx := context.Background()

	st, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "forms.db"), nil)
	require.NoError(t, err)
	svc, err := NewService(Options{Dir: dir, Store: st})
	require.NoError(t, err)
	defer svc.Close()

	doc, err := svc.LoadForm(ctx, "employee.txt")
	require.NoError(t, err)
	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Fields.Keys(), got.Fields.Keys())
}
