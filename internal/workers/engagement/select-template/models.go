// internal/workers/engagement/select-template/models.go
package selecttemplate

type Input struct {
	LoanType   string `json:"loanType"`
	LetterType string `json:"letterType"`
}

type Output struct {
	TemplateID   string   `json:"templateId"`
	TemplateFile string   `json:"templateFile"`
	Exists       bool     `json:"exists"`
	DisplayName  string   `json:"displayName"`
	Available    []string `json:"available,omitempty"`
}
