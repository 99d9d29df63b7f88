// Package planner implements §4.I: turning a Requirement into a
// dependency-respecting TaskDAG by constraining a single model call to
// emit JSON conforming to a task-graph schema.
//
// Grounded on the teacher's internal/agent call-and-parse shape (the
// planner is "itself an Agent execution" per spec §4.I, so it reuses
// agentexec's provider-selection plumbing rather than re-implementing
// it) and `santhosh-tekuri/jsonschema/v5` for schema enforcement, a
// dependency the teacher itself never needed but which the rest of the
// example pack pulls in for structured-output validation.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/radiumhq/radium/internal/agentexec"
	"github.com/radiumhq/radium/internal/errtax"
	"github.com/radiumhq/radium/internal/modelcache"
	"github.com/radiumhq/radium/internal/provideradapter"
	"github.com/radiumhq/radium/internal/routing"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// SourceKind classifies how a requirement's source string was detected,
// per spec §4.I: "local file, remote ticket, or REQ id — detection is by
// regex and filesystem probe."
type SourceKind string

const (
	SourceFile    SourceKind = "file"
	SourceReqID   SourceKind = "req_id"
	SourceTicket  SourceKind = "ticket"
)

var reqIDPattern = regexp.MustCompile(`^REQ-[0-9]+$`)

// DetectSource classifies source: an existing filesystem path is
// SourceFile, a string matching REQ-<digits> is SourceReqID, anything
// else is treated as an opaque remote ticket reference.
func DetectSource(source string) SourceKind {
	trimmed := strings.TrimSpace(source)
	if reqIDPattern.MatchString(trimmed) {
		return SourceReqID
	}
	if _, err := os.Stat(trimmed); err == nil {
		return SourceFile
	}
	return SourceTicket
}

// taskSpec mirrors one element of the schema-constrained task array.
type taskSpec struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	DependsOn     []string `json:"depends_on"`
	AssignedAgent string   `json:"assigned_agent,omitempty"`
	Input         string   `json:"input"`
}

type taskGraphDoc struct {
	Tasks []taskSpec `json:"tasks"`
}

// Planner turns Requirements into TaskDAGs via a schema-constrained model
// call.
type Planner struct {
	Router      *routing.Router
	Cache       *modelcache.Cache
	NewProvider agentexec.ProviderFactory

	schema *jsonschema.Schema
}

// New compiles the task-graph schema once and returns a ready Planner.
func New(router *routing.Router, cache *modelcache.Cache, newProvider agentexec.ProviderFactory) (*Planner, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("task-graph.json", strings.NewReader(taskGraphSchema)); err != nil {
		return nil, fmt.Errorf("planner: add schema resource: %w", err)
	}
	schema, err := compiler.Compile("task-graph.json")
	if err != nil {
		return nil, fmt.Errorf("planner: compile schema: %w", err)
	}
	return &Planner{Router: router, Cache: cache, NewProvider: newProvider, schema: schema}, nil
}

// Plan renders promptTemplate against requirement, calls the model with a
// JSON-schema-constrained response format, validates the result, and
// returns a TaskDAG whose acyclicity and referential integrity have
// already been checked.
func (p *Planner) Plan(ctx context.Context, requirement radiumtypes.Requirement, promptTemplate string) (*radiumtypes.TaskDAG, error) {
	prompt := strings.ReplaceAll(promptTemplate, "{requirement_title}", requirement.Title)
	prompt = strings.ReplaceAll(prompt, "{requirement_source}", requirement.Source)

	req := &radiumtypes.ModelRequest{
		Messages: []radiumtypes.Message{radiumtypes.TextMessage(radiumtypes.RoleUser, prompt)},
		ResponseFormat: radiumtypes.ResponseFormat{
			Kind:   radiumtypes.ResponseJSONSchema,
			Schema: json.RawMessage(taskGraphSchema),
			Name:   "task_graph",
		},
	}

	resp, err := p.call(ctx, req)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil, errtax.SerializationError("planner: model output is not valid JSON: " + err.Error())
	}
	if err := p.schema.Validate(parsed); err != nil {
		return nil, errtax.SerializationError("planner: model output does not conform to task-graph schema: " + err.Error())
	}

	var doc taskGraphDoc
	if err := json.Unmarshal([]byte(resp.Content), &doc); err != nil {
		return nil, errtax.SerializationError("planner: re-decoding validated JSON: " + err.Error())
	}

	dag := &radiumtypes.TaskDAG{RequirementID: requirement.ID}
	for _, spec := range doc.Tasks {
		dag.Tasks = append(dag.Tasks, &radiumtypes.Task{
			ID:            spec.ID,
			Title:         spec.Title,
			DependsOn:     spec.DependsOn,
			AssignedAgent: spec.AssignedAgent,
			Input:         spec.Input,
			Status:        radiumtypes.TaskPending,
		})
	}
	if err := dag.Validate(); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	return dag, nil
}

func (p *Planner) call(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	target, _ := p.Router.Select(ctx, req, routing.TierSmart)
	modelType := routing.ClassifyModelType(target.Provider)
	key := modelcache.NewKey(modelType, target.Model, "")
	provider, err := p.Cache.GetOrCreate(ctx, key, func(ctx context.Context) (provideradapter.Provider, error) {
		return p.NewProvider(ctx, modelType, target.Model, "")
	})
	if err != nil {
		return nil, err
	}
	return provider.Generate(ctx, req)
}
