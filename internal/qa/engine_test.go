package qa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-agent/internal/document"
	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/source"
)

func newDoc(path, schemaType, text string, fields *extraction.FieldMap) *document.Document {
	if fields == nil {
		fields = extraction.NewFieldMap()
	}
	return &document.Document{
		ID:                   path,
		Path:                 path,
		FileType:             "txt",
		RawText:              text,
		Fields:               fields,
		Tables:               [][][]string{},
		SchemaType:           schemaType,
		ExtractionConfidence: 0.8,
	}
}

func processed(t *testing.T, path, text string) *document.Document {
	t.Helper()
	doc, err := document.NewProcessor(nil, nil).Process(context.Background(), source.Content{
		Path:     path,
		FileType: source.FileTypeText,
		Text:     text,
	})
	require.NoError(t, err)
	return doc
}

const employeeText = "Employee Name: Jane Doe\nAnnual Salary: $85,000\nDepartment: Finance"

func TestEngine_AnswerFieldQuestion(t *testing.T) {
	doc := processed(t, "employee.txt", employeeText)

	got, err := NewEngine(nil, nil).Answer(context.Background(), "What is the employee name?", doc)
	require.NoError(t, err)
	assert.Equal(t, "The Employee Name is: Jane Doe", got.Answer)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, []string{"Employee Name"}, got.SourceFields)
	assert.Contains(t, got.Context, "Employee Name: Jane Doe")
}

func TestEngine_AnswerQuantity(t *testing.T) {
	doc := processed(t, "employee.txt", employeeText)

	got, err := NewEngine(nil, nil).Answer(context.Background(), "How much is the annual salary?", doc)
	require.NoError(t, err)
	assert.Equal(t, "The amount is: $85,000.00", got.Answer)
	assert.Equal(t, 0.7, got.Confidence)
	assert.Equal(t, []string{"Annual Salary"}, got.SourceFields)
}

func TestEngine_AnswerW2(t *testing.T) {
	doc := processed(t, "w2.txt", `Form W-2 Wage and Tax Statement
Employer identification number (EIN): 12-3456789
Employee's social security number: 123-45-6789
Employee Name: John Smith
Federal income tax withheld: $9,500.00
Social security wages: $72,000.00
Medicare wages: $72,000.00`)
	require.Equal(t, "w2", doc.SchemaType)

	got, err := NewEngine(nil, nil).Answer(context.Background(), "What is the employee name?", doc)
	require.NoError(t, err)
	assert.Equal(t, "The Employee Name is: John Smith", got.Answer)
	assert.NotContains(t, got.Context, "123-45-6789")
}

func TestEngine_AnswerNoContext(t *testing.T) {
	doc := processed(t, "employee.txt", employeeText)

	got, err := NewEngine(nil, nil).Answer(context.Background(), "Is there a zebra?", doc)
	require.NoError(t, err)
	assert.Equal(t, NoAnswer, got.Answer)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Empty(t, got.Context)
	assert.NotNil(t, got.SourceFields)
}

func TestEngine_AnswerTruncatesContext(t *testing.T) {
	long := make([]byte, 0, 700)
	for len(long) < 600 {
		long = append(long, "budget item "...)
	}
	fields := fieldsOf("Budget Item", extraction.Text(string(long)))
	doc := newDoc("b.txt", "", "", fields)

	got, err := NewEngine(nil, nil).Answer(context.Background(), "budget item", doc)
	require.NoError(t, err)
	assert.Len(t, got.Context, 500)
}

func salaryDocs() []*document.Document {
	var docs []*document.Document
	for _, d := range []struct {
		path   string
		name   string
		salary float64
		raw    string
	}{
		{"a.txt", "Ann", 50000, "$50,000"},
		{"b.txt", "Bob", 60000, "$60,000"},
		{"c.txt", "Cid", 70000, "$70,000"},
	} {
		fields := fieldsOf(
			"Employee Name", extraction.Text(d.name),
			"Annual Salary", extraction.Currency(d.salary, d.raw),
		)
		docs = append(docs, newDoc(d.path, "job_application", "", fields))
	}
	return docs
}

func TestEngine_AnswerMultiple(t *testing.T) {
	got, err := NewEngine(nil, nil).AnswerMultiple(context.Background(), "What is the annual salary?", salaryDocs())
	require.NoError(t, err)

	assert.Equal(t, "[a.txt]: Annual Salary: $50,000", got.Answer)
	assert.Equal(t, 0.7, got.Confidence)
	assert.Equal(t, []string{"Annual Salary"}, got.SourceFields)
	assert.Equal(t,
		"[a.txt]: Annual Salary: $50,000\n\n[b.txt]: Annual Salary: $60,000\n\n[c.txt]: Annual Salary: $70,000",
		got.Context)
}

func TestEngine_AnalyzeSalaries(t *testing.T) {
	a, err := NewEngine(nil, nil).Analyze(context.Background(), "What is the average salary?", salaryDocs())
	require.NoError(t, err)

	assert.Equal(t, 3, a.TotalDocuments)
	assert.Equal(t, []string{"Employee Name", "Annual Salary"}, a.CommonFields)
	assert.Equal(t, []string{"job_application", "job_application", "job_application"}, a.SchemaTypes)

	require.Contains(t, a.FieldSummary, "Annual Salary")
	assert.Equal(t, FieldStats{Count: 3, Sum: 180000, Average: 60000, Min: 50000, Max: 70000}, a.FieldSummary["Annual Salary"])
	assert.NotContains(t, a.FieldSummary, "Employee Name")

	assert.Equal(t, []string{
		"All forms are of type: job_application",
		"All forms share these fields: Employee Name, Annual Salary",
		"Average Annual Salary: $60,000.00 (range: $50,000.00 - $70,000.00)",
	}, a.Insights)
	assert.Equal(t, "[a.txt]: Annual Salary: $50,000", a.Answer)
}

func TestEngine_AnalyzeMixed(t *testing.T) {
	docs := salaryDocs()
	docs[1].SchemaType = "onboarding"
	docs[2].SchemaType = ""
	docs[2].Fields = fieldsOf("Bonus Amount", extraction.Number(10))

	a, err := NewEngine(nil, nil).Analyze(context.Background(), "anything", docs)
	require.NoError(t, err)
	assert.Empty(t, a.CommonFields)
	assert.Equal(t, "Forms include 2 different types: job_application, onboarding", a.Insights[0])
	assert.NotContains(t, a.FieldSummary, "Bonus Amount", "numeric in only one document")
	assert.Contains(t, a.FieldSummary, "Annual Salary")
}

func TestEngine_AnalyzeSingleDocument(t *testing.T) {
	a, err := NewEngine(nil, nil).Analyze(context.Background(), "What is the average salary?", salaryDocs()[:1])
	require.NoError(t, err)

	assert.Equal(t, 1, a.TotalDocuments)
	assert.Equal(t, []string{"Employee Name", "Annual Salary"}, a.CommonFields)
	assert.Empty(t, a.FieldSummary, "a single value is not summarized")
	assert.Equal(t, []string{
		"All forms are of type: job_application",
		"All forms share these fields: Employee Name, Annual Salary",
	}, a.Insights)
	assert.Equal(t, "[a.txt]: Annual Salary: $50,000", a.Answer)
}

func TestEngine_AnalyzeNoDocuments(t *testing.T) {
	a, err := NewEngine(nil, nil).Analyze(context.Background(), "q", nil)
	require.NoError(t, err)

	assert.Equal(t, &Analysis{
		CommonFields: []string{},
		SchemaTypes:  []string{},
		FieldSummary: map[string]FieldStats{},
		Insights:     []string{},
	}, a)
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(nil, nil).Answer(ctx, "q", salaryDocs()[0])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompare(t *testing.T) {
	a := newDoc("a.txt", "w2", "", fieldsOf(
		"Name", extraction.Text("Jane"),
		"Amount", extraction.Integer(10),
		"Only A", extraction.Text("x"),
	))
	b := newDoc("b.txt", "w2", "", fieldsOf(
		"Only B", extraction.Text("y"),
		"Amount", extraction.Integer(12),
		"Name", extraction.Text("Jane"),
	))

	c := Compare(a, b)
	assert.Equal(t, []string{"Name", "Amount"}, c.CommonFields)
	assert.Equal(t, []string{"Only A"}, c.OnlyInFirst)
	assert.Equal(t, []string{"Only B"}, c.OnlyInSecond)
	assert.Equal(t, map[string]Difference{
		"Amount": {First: extraction.Integer(10), Second: extraction.Integer(12)},
	}, c.Differences)
	assert.True(t, c.SameSchema)

	b.SchemaType = "w4"
	assert.False(t, Compare(a, b).SameSchema)
}
