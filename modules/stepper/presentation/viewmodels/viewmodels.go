package viewmodels

import "github.com/iota-uz/onboarding/modules/stepper/domain/refdata"

type Step struct {
	Index              int               `json:"index"`
	Key                string            `json:"key"`
	Label              string            `json:"label"`
	RequiresValidation bool              `json:"requiresValidation"`
	Saves              bool              `json:"saves"`
	Fields             []string          `json:"fields"`
	Required           []string          `json:"required,omitempty"`
	Labels             map[string]string `json:"labels,omitempty"`
	RowField           string            `json:"rowField,omitempty"`
}

type Wizard struct {
	Name       string             `json:"name"`
	Label      string             `json:"label"`
	BasePath   string             `json:"basePath"`
	Categories []refdata.Category `json:"categories"`
	Steps      []Step             `json:"steps"`
}

type Option struct {
	ID    int64  `json:"id,omitempty"`
	Value string `json:"value"`
	Label string `json:"label"`
}
