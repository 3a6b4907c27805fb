package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Loading and discovery
	FormLoadDescription = `Load a form from disk, extract its fields and tables, and classify its type.

**When to use:** First step for any document you want to query. Accepts text, PDF (including fillable AcroForm fields), JSON, CSV, HTML, Markdown, XML and Excel files.

**Why it's useful:** Turns an unstructured file into a structured record with typed fields (text, number, currency, date, boolean, list), normalized tables and a schema guess with confidence.

**Examples:**
• Load a tax form: "Load w2-2024.pdf and tell me what type of form it is"
• Load a spreadsheet: "Load payroll.xlsx so I can ask about salaries"

**Common workflows:**
1. form_load → form_fields → form_ask
2. form_search → form_load each match → form_analyze

**Best practices:** The returned id can be used in every other tool; paths work too and are loaded on demand.`

	FormSearchDescription = `Find loadable forms in the configured directory.

**When to use:** You don't know the exact file name, or want to see which documents are available.

**Why it's useful:** Walks the directory (hidden folders skipped) and lists every supported file, with fuzzy file-name matching.

**Examples:**
• "Find all W-2 files" → query "w2"
• "What invoices are there?" → query "invoice"

**Best practices:** Leave directory empty to search the configured directory; combine several words to narrow results.`

	FormListDescription = `List the documents already loaded in the store.

**When to use:** To recall ids of previously processed forms or check what has been loaded.

**Best practices:** Cheap; does not touch the file system.`

	// Inspection
	FormFieldsDescription = `Return the extracted key/value fields of a form with their inferred types.

**When to use:** You need the raw structured data: names, amounts, dates, checkboxes.

**Why it's useful:** Values carry their kind, so currency amounts and dates can be compared and aggregated. Social security numbers are masked. Set confidence to see every labelled match with a 0-1 score.

**Examples:**
• "Show me every field on the claim form"
• "What did the applicant fill in?"`

	FormTablesDescription = `Return the tables found in a form, normalized with headers and a table type.

**When to use:** The document contains line items, schedules, contact lists or inventories.

**Why it's useful:** Ragged rows are padded, headers are detected or generated, and each table is typed as financial, contact, schedule, inventory or general. Total rows are reported separately, and aggregate with column computes sum, avg, min, max or count of that column.

**Examples:**
• "List the line items on this invoice"
• "What is the sum of the Amount column?" (aggregate=sum, column=Amount)`

	FormClassifyDescription = `Classify a form against the schema catalog (W-2, 1099, insurance claims, job and loan applications, contracts and more).

**When to use:** You need to know what kind of document this is, or how confident the match is.

**Why it's useful:** Returns the best match plus every candidate with matched indicators, so borderline cases can be judged.`

	FormValidateDescription = `Check a form's fields against the fields its schema expects.

**When to use:** Verifying that a form is complete before submitting or approving it.

**Why it's useful:** Reports completeness as a ratio and lists missing fields.

**Best practices:** Omit schema_type to validate against the detected type.`

	// Questions and analysis
	FormAskDescription = `Answer a natural-language question about one form.

**When to use:** Questions like "What is the employee name?", "How much was withheld?", "When was this signed?".

**Why it's useful:** Gathers the relevant fields and sentences, then answers with a confidence score and the fields the answer came from.

**Best practices:** Answers are template based; check confidence and source_fields, and fall back to form_fields for exact values.`

	FormAskMultipleDescription = `Answer one question across several forms.

**When to use:** "What is the salary on each of these offers?" or any question whose answer is spread across documents.

**Why it's useful:** Context from each form is labelled with its path, so answers stay attributable.`

	FormAnalyzeDescription = `Analyze forms together: common fields, schema mix, numeric totals and averages, plus an answer to a question.

**When to use:** Comparing a batch of similar forms, e.g. averaging salaries across applications or totaling invoice amounts.

**Why it's useful:** Produces insights such as "Average Annual Salary: $60,000.00 (range: $50,000.00 - $70,000.00)".`

	FormSummarizeDescription = `Summarize one form, or several forms at once.

**When to use:** A quick human-readable overview is needed.

**Why it's useful:** Key information is ranked by the form category (tax, employment, ...), highlights cover identity, dates and amounts, and notable items flag signatures, low confidence and tables.

**Best practices:** style is "bullets" (default) or "narrative"; pass several ids in documents for a multi-form summary.`

	FormCompareDescription = `Compare two forms field by field.

**When to use:** Spotting changes between versions of a form, or differences between two applicants.

**Why it's useful:** Lists common fields, fields only in either form, and differing values side by side.`

	FormRetrieveDescription = `Rank the most relevant parts (fields, table rows, text passages) of one or more forms for a query.

**When to use:** You want the evidence behind an answer, or to search inside documents.

**Why it's useful:** Uses term overlap, or embedding similarity when an embedding service is configured.`

	FormExportDescription = `Export a processed form as JSON, CSV, Markdown or Excel.

**When to use:** Handing extracted data to another system or person.

**Best practices:** xlsx content is returned base64 encoded unless output_path is given; output paths must stay inside the configured directory.`

	FormServerInfoDescription = `Get server capabilities, configuration limits, available tools and the forms in the configured directory.

**When to use:** At the start of a session, to discover what can be done and what files are available.`
)

// Tool is a summary of one MCP tool for discovery responses
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

var tools = []Tool{
	{
		Name:        "form_load",
		Description: FormLoadDescription,
		Usage:       "Load and process a form before querying it.",
		Parameters:  "path (required): path to the file, absolute or relative to the configured directory",
	},
	{
		Name:        "form_search",
		Description: FormSearchDescription,
		Usage:       "Find supported files in the configured directory.",
		Parameters:  "directory (optional): directory to search, query (optional): fuzzy file-name match",
	},
	{
		Name:        "form_list",
		Description: FormListDescription,
		Usage:       "List documents already loaded.",
		Parameters:  "No parameters required",
	},
	{
		Name:        "form_fields",
		Description: FormFieldsDescription,
		Usage:       "Get typed key/value fields of a form.",
		Parameters:  "document (required): document id or path, confidence (optional): true to add scored matches",
	},
	{
		Name:        "form_tables",
		Description: FormTablesDescription,
		Usage:       "Get normalized tables of a form, or aggregate one column.",
		Parameters:  "document (required): document id or path, aggregate (optional): sum|avg|min|max|count, column (required with aggregate)",
	},
	{
		Name:        "form_classify",
		Description: FormClassifyDescription,
		Usage:       "Identify the form type.",
		Parameters:  "document (required): document id or path",
	},
	{
		Name:        "form_validate",
		Description: FormValidateDescription,
		Usage:       "Check completeness against the expected fields of a schema.",
		Parameters:  "document (required): document id or path, schema_type (optional): schema to validate against",
	},
	{
		Name:        "form_ask",
		Description: FormAskDescription,
		Usage:       "Ask a question about one form.",
		Parameters:  "document (required): document id or path, question (required)",
	},
	{
		Name:        "form_ask_multiple",
		Description: FormAskMultipleDescription,
		Usage:       "Ask one question across several forms.",
		Parameters:  "documents (required): comma-separated ids or paths, question (required)",
	},
	{
		Name:        "form_analyze",
		Description: FormAnalyzeDescription,
		Usage:       "Aggregate forms; one form still reports its fields and an answer.",
		Parameters:  "documents (required): comma-separated ids or paths, question (optional)",
	},
	{
		Name:        "form_summarize",
		Description: FormSummarizeDescription,
		Usage:       "Summarize one or several forms.",
		Parameters:  "documents (required): comma-separated ids or paths, style (optional): bullets or narrative",
	},
	{
		Name:        "form_compare",
		Description: FormCompareDescription,
		Usage:       "Compare two forms.",
		Parameters:  "first (required), second (required): document ids or paths",
	},
	{
		Name:        "form_retrieve",
		Description: FormRetrieveDescription,
		Usage:       "Rank relevant parts of forms for a query.",
		Parameters:  "documents (required): comma-separated ids or paths, query (required), top_k (optional)",
	},
	{
		Name:        "form_export",
		Description: FormExportDescription,
		Usage:       "Export extracted data.",
		Parameters:  "document (required), format (optional): json, csv, markdown or xlsx, output_path (optional)",
	},
	{
		Name:        "form_server_info",
		Description: FormServerInfoDescription,
		Usage:       "Discover capabilities and available files.",
		Parameters:  "No parameters required",
	},
}

// Tools returns every tool in registration order
func Tools() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	for _, t := range tools {
		if t.Name == toolName {
			return t.Description
		}
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all tools in registration order
func GetAllToolNames() []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}
