package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/ineed/pkg/openapi"
)

func TestConfigNewSpec(t *testing.T) {
	t.Setenv("TEST_OPENAPI_SERVER", "https://api.ineed.app")

	cfg := openapi.Config{}
	if err := cfg.Finalize(&openapi.ConfigEnv{ServerURL: "TEST_OPENAPI_SERVER"}); err != nil {
		t.Fatal(err)
	}

	spec := cfg.NewSpec("1.2.0")

	if spec.OpenAPI != "3.1.0" || spec.Info.Title != "iNeed API" || spec.Info.Version != "1.2.0" {
		t.Errorf("info = %+v", spec.Info)
	}
	if spec.Info.Description == "" {
		t.Error("description default missing")
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "https://api.ineed.app" {
		t.Errorf("servers = %+v", spec.Servers)
	}
}

func TestComponents(t *testing.T) {
	c := openapi.NewComponents()

	for _, name := range []string{"PageRequest", "CursorRequest"} {
		if c.Schemas[name] == nil {
			t.Errorf("schema %s missing", name)
		}
	}
	if _, ok := c.Schemas["CursorRequest"].Properties["pageSize"]; !ok {
		t.Error("CursorRequest.pageSize missing")
	}
	for _, name := range []string{"BadRequest", "Unauthorized", "NotFound", "TooManyRequests"} {
		if c.Responses[name] == nil {
			t.Errorf("response %s missing", name)
		}
	}
	if c.SecuritySchemes["bearerAuth"].Scheme != "bearer" {
		t.Error("bearer scheme missing")
	}

	c.AddSchemas(map[string]*openapi.Schema{"Listing": {Type: "object"}})
	if c.Schemas["Listing"] == nil {
		t.Error("AddSchemas did not merge")
	}
}

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec("t", "1")
	get := &openapi.Operation{Summary: "feed"}
	post := &openapi.Operation{Summary: "search feed"}

	spec.AddOperation("GET", "/listings/feed", get)
	spec.AddOperation("post", "/listings/feed", post)
	spec.AddOperation("TRACE", "/ignored", get)

	item := spec.Paths["/listings/feed"]
	if item == nil || item.Get != get || item.Post != post {
		t.Fatalf("path item = %+v", item)
	}
	if _, ok := spec.Paths["/ignored"]; ok {
		t.Error("unsupported method registered a path")
	}
}

func TestRefs(t *testing.T) {
	if got := openapi.SchemaRef("Listing").Ref; got != "#/components/schemas/Listing" {
		t.Errorf("SchemaRef = %s", got)
	}
	if got := openapi.ResponseRef("NotFound").Ref; got != "#/components/responses/NotFound" {
		t.Errorf("ResponseRef = %s", got)
	}
	if got := openapi.ArrayOf("Category"); got.Type != "array" || got.Items.Ref != "#/components/schemas/Category" {
		t.Errorf("ArrayOf = %+v", got)
	}
	body := openapi.RequestBodyMultipart("file")
	if body.Content["multipart/form-data"].Schema.Properties["file"].Format != "binary" {
		t.Error("multipart body missing binary file field")
	}
}

func TestServeSpec(t *testing.T) {
	spec := openapi.NewSpec("iNeed API", "0.1.0")
	spec.AddOperation("GET", "/categories", &openapi.Operation{
		Summary:   "List categories",
		Responses: map[int]*openapi.Response{200: openapi.ResponseJSON("ok", openapi.ArrayOf("Category"))},
	})

	data, err := spec.JSON()
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	paths := decoded["paths"].(map[string]any)
	if _, ok := paths["/categories"]; !ok {
		t.Errorf("paths = %v", paths)
	}
}
