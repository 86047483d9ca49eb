package symbolic

import "encoding/json"

// ============================================================
// JSON Serialization
// ============================================================

// Tree returns the expression as nested maps keyed by "type".
func Tree(e Expr) map[string]interface{} { return e.toJSON() }

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}
