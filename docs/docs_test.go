package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocIsRegistered(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("ReadDoc: %v", err)
	}
	var parsed struct {
		Info  struct{ Title string }     `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not valid json: %v", err)
	}
	if parsed.Info.Title != "avpulse API" {
		t.Fatalf("title=%q", parsed.Info.Title)
	}
	for _, p := range []string{"/api/v1/summary", "/api/v1/analysis", "/api/v1/report", "/api/v1/snapshots", "/healthz", "/readyz"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
}
