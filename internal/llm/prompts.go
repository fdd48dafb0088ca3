package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(promptFS, "prompts/*.tmpl"))

// Prompt names.
const (
	PromptClassify       = "classify"
	PromptExtractClauses = "extract_clauses"
	PromptScoreClause    = "score_clause"
)

// RenderPrompt executes the "<name>.system" and "<name>.user" templates with data.
func RenderPrompt(name string, data any) (system, user string, err error) {
	system, err = execute(name+".system", data)
	if err != nil {
		return "", "", err
	}
	user, err = execute(name+".user", data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
