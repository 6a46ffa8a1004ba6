package brief

// briefPromptTemplate renders the project-brief request. The five section
// headings are part of the product contract; clients render them verbatim.
const briefPromptTemplate = `You are an operations lead writing a concise project brief.

Project: {{.Name}}
Client: {{.Client}}
Description: {{.Description}}
{{- if .Objectives}}
Objectives:
{{- range .Objectives}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Team}}
Team:
{{- range .Team}}
- {{.Name}}{{if .Roles}} ({{join .Roles ", "}}){{end}}
{{- end}}
{{- end}}

Write a markdown brief with exactly these five sections:
## Executive Summary
## Objectives
## Scope
## Team & Roles
## Timeline & Milestones

Keep it under 400 words. Do not invent facts not implied by the input.`

// breakdownPromptTemplate asks for a machine-readable plan. The response must
// be a single JSON object; anything else is discarded by the parser.
const breakdownPromptTemplate = `You are planning engineering work for a new project.

Description: {{.Description}}
{{- if .Team}}
Available team members (use their ids for assigneeId):
{{- range .Team}}
- {{.ID}}: {{.Name}}{{if .Roles}} ({{join .Roles ", "}}){{end}}
{{- end}}
{{- end}}

Respond with ONLY a JSON object, no prose and no code fences, shaped as:
{
  "features": [
    {
      "featureName": "...",
      "tasks": [
        {
          "name": "...",
          "description": "...",
          "assigneeId": "...",
          "acceptanceCriteria": ["..."],
          "startDay": 0,
          "endDay": 3
        }
      ]
    }
  ],
  "milestones": [
    {"title": "...", "description": "...", "dayOffset": 7}
  ]
}

startDay, endDay and dayOffset are working-day offsets from project kickoff.`
