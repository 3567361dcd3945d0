package prompt

const taskDescription = `You are an expert Regulatory Compliance Auditor. Analyze the enforcement notice and identify the specific operational failures related to transaction monitoring or fraud.`

const schemaDescription = `For each failure, provide:
1. "area": a short title of the violation.
2. "description": a brief description of what the regulator found.
3. "severity": one of "High", "Medium" or "Low".
4. "dial_fix": the recommended dial fix for a fraud model.`

const defaultTemplate = `{{.Task}}

Identify the top {{.MaxFindings}} failures.

{{.Schema}}

"dial_fix" MUST be exactly one of: {{range $i, $f := .Fixes}}{{if $i}}, {{end}}'{{$f}}'{{end}}.

Format your output ONLY as a valid JSON list of objects like this, with no other text:
[
  {"area": "Title", "description": "Description", "severity": "High", "dial_fix": "Fix Name"}
]
{{if .HasFile}}
The enforcement notice is attached as a file.
{{else}}
## Enforcement Notice

{{.Content}}
{{end}}`
