package integrand

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/njchilds90/integrand/internal/dispatch"
	"github.com/njchilds90/integrand/internal/input"
	"github.com/njchilds90/integrand/internal/mathtext"
	"github.com/njchilds90/integrand/internal/parser"
	"github.com/njchilds90/integrand/symbolic"
)

// ============================================================
// JSON tool interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall runs a tool with a default solver.
func HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	return NewSolver().HandleToolCall(ctx, req)
}

// HandleToolCall dispatches one JSON tool call. Failures are reported in
// ToolResponse.Error, never as a panic.
func (s *Solver) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		str, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return str, nil
	}
	optString := func(key string) (string, error) {
		if _, ok := req.Params[key]; !ok {
			return "", nil
		}
		return getString(key)
	}
	optNumber := func(key string) (*float64, error) {
		v, ok := req.Params[key]
		if !ok || v == nil {
			return nil, nil
		}
		switch n := v.(type) {
		case float64:
			return &n, nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("param %s must be a number", key)
			}
			return &f, nil
		case string:
			f, err := dispatch.ParseBound(n)
			if err != nil {
				return nil, fmt.Errorf("param %s: %v", key, err)
			}
			return &f, nil
		}
		return nil, fmt.Errorf("param %s must be a number", key)
	}
	canonical := func() (mathtext.Text, error) {
		text, err := getString("expression")
		if err != nil {
			return mathtext.Text{}, err
		}
		srcName, err := optString("source")
		if err != nil {
			return mathtext.Text{}, err
		}
		src, err := input.ParseSource(srcName)
		if err != nil {
			return mathtext.Text{}, err
		}
		return mathtext.Canonicalize(input.Raw{Source: src, Text: text}.Candidate())
	}

	switch req.Tool {
	case "integrate":
		expr, err := getString("expression")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		r := Request{Expression: expr}
		if r.Source, err = optString("source"); err != nil {
			return ToolResponse{Error: err.Error()}
		}
		modeName, err := optString("mode")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if r.Mode, err = dispatch.ParseMode(modeName); err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if r.Lower, err = optNumber("lower"); err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if r.Upper, err = optNumber("upper"); err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if p, ok := req.Params["plot"].(bool); ok {
			r.Plot = p
		}
		resp, err := s.Solve(ctx, r)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		str := resp.Antiderivative
		if resp.Numeric != nil {
			str = strconv.FormatFloat(*resp.Numeric, 'g', -1, 64)
		}
		return ToolResponse{Result: resp, LaTeX: resp.Display, String: str}

	case "normalize":
		text, err := canonical()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: text.String(), String: text.String()}

	case "parse":
		text, err := canonical()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		expr, err := parser.Parse(text)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: symbolic.Tree(expr.Expr()), LaTeX: expr.LaTeX(), String: expr.String()}

	case "diff":
		text, err := canonical()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		expr, err := parser.Parse(text)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		d := symbolic.Diff(expr.Expr(), parser.Var)
		return ToolResponse{Result: symbolic.Tree(d), LaTeX: d.LaTeX(), String: d.String()}

	case "schema":
		return ToolResponse{Result: ToolSpec(), String: "tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ToolSpec returns the JSON schema of every tool for agent registration.
func ToolSpec() string {
	exprProps := map[string]string{"expression": "string", "source": "string"}
	tools := []map[string]interface{}{
		ts("integrate", "Integrate a function of x. mode is indefinite, definite or area; definite modes need lower and upper",
			[]string{"expression"},
			map[string]string{"expression": "string", "source": "string", "mode": "string", "lower": "number", "upper": "number", "plot": "boolean"}),
		ts("normalize", "Rewrite spoken phrases and OCR glyphs into canonical expression text", []string{"expression"}, exprProps),
		ts("parse", "Parse an expression and return its tree, canonical string and LaTeX", []string{"expression"}, exprProps),
		ts("diff", "Derivative d/dx of an expression", []string{"expression"}, exprProps),
		ts("schema", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
