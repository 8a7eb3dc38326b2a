package agent

import (
	"context"
)

// DocumentKind selects which structured document a DocumentEngine produces.
type DocumentKind string

const (
	DocumentDataModel DocumentKind = "datamodel"
	DocumentForm      DocumentKind = "formio_form"
	DocumentTestCases DocumentKind = "testcases"
)

// DocumentRequest describes one generation job. SourcePaths are
// workspace-relative files the generator may consult (an existing datamodel
// for a form, a form for test cases).
type DocumentRequest struct {
	Kind        DocumentKind `json:"kind"`
	Description string       `json:"description"`
	SourcePaths []string     `json:"source_paths,omitempty"`
}

// DocumentEngine produces structured documents (datamodel XML, form
// definitions, test case suites) on demand. The result is returned as the
// tool result, never written to disk by the engine; persisting it goes
// through write_file and the proposal flow like any other mutation.
type DocumentEngine interface {
	GenerateDocument(ctx context.Context, req DocumentRequest) (string, error)
}

// DocumentTools registers the generator tools backed by an engine. A nil
// engine keeps the tools visible but failing with a configuration message,
// so the model learns the capability exists yet is switched off.
type DocumentTools struct {
	engine DocumentEngine
}

// NewDocumentTools wraps an engine; engine may be nil.
func NewDocumentTools(engine DocumentEngine) *DocumentTools {
	return &DocumentTools{engine: engine}
}

// RegisterAll adds the document generator tools to a registry.
func (dt *DocumentTools) RegisterAll(r *Registry) {
	r.Register(Tool{
		Name:        "generate_datamodel",
		Description: "Generate datamodel XML from a natural-language description of the data structure.",
		Handler:     dt.generateDataModel,
	})
	r.Register(Tool{
		Name:        "generate_formio_form",
		Description: "Generate a Form.io form definition (JSON), optionally based on an existing datamodel or form file.",
		Handler:     dt.generateForm,
	})
	r.Register(Tool{
		Name:        "generate_testcases",
		Description: "Generate test case XML for a datamodel or form, from a natural-language description.",
		Handler:     dt.generateTestCases,
	})
}

type generateDataModelArgs struct {
	Description string `json:"description"`
}

func (dt *DocumentTools) generateDataModel(ctx context.Context, args map[string]any) (string, error) {
	var in generateDataModelArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	return dt.generate(ctx, DocumentRequest{
		Kind:        DocumentDataModel,
		Description: in.Description,
	})
}

type generateFormArgs struct {
	Description      string `json:"description"`
	DataModelPath    string `json:"datamodel_path"`
	SourceFormioPath string `json:"source_formio_path"`
}

func (dt *DocumentTools) generateForm(ctx context.Context, args map[string]any) (string, error) {
	var in generateFormArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	req := DocumentRequest{
		Kind:        DocumentForm,
		Description: in.Description,
	}
	if in.DataModelPath != "" {
		req.SourcePaths = append(req.SourcePaths, in.DataModelPath)
	}
	if in.SourceFormioPath != "" {
		req.SourcePaths = append(req.SourcePaths, in.SourceFormioPath)
	}
	return dt.generate(ctx, req)
}

type generateTestCasesArgs struct {
	Description   string `json:"description"`
	DataModelPath string `json:"datamodel_path"`
}

func (dt *DocumentTools) generateTestCases(ctx context.Context, args map[string]any) (string, error) {
	var in generateTestCasesArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	req := DocumentRequest{
		Kind:        DocumentTestCases,
		Description: in.Description,
	}
	if in.DataModelPath != "" {
		req.SourcePaths = append(req.SourcePaths, in.DataModelPath)
	}
	return dt.generate(ctx, req)
}

func (dt *DocumentTools) generate(ctx context.Context, req DocumentRequest) (string, error) {
	if dt.engine == nil {
		return "Error: document generation is not configured", nil
	}
	return dt.engine.GenerateDocument(ctx, req)
}
