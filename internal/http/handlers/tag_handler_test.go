package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

type tagRep struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestTagEndpoints_CRUDAndUniqueness(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/api/tags/", "u1", map[string]any{"name": "horror"}, false)
	if code != http.StatusCreated {
		t.Fatalf("create = %d %+v", code, env)
	}
	var tg tagRep
	decodeData(t, env, &tg)
	if tg.ID == 0 || tg.Name != "horror" {
		t.Fatalf("data = %+v", tg)
	}

	// Duplicate name is a field-level failure.
	code, env = f.do(t, http.MethodPost, "/api/tags/", "u1", map[string]any{"name": "horror"}, false)
	if code != http.StatusBadRequest {
		t.Fatalf("duplicate = %d", code)
	}
	var details map[string][]string
	if err := json.Unmarshal(env.Details, &details); err != nil {
		t.Fatalf("details: %v", err)
	}
	if details["name"][0] != "tag with this name already exists." {
		t.Fatalf("details = %v", details)
	}

	path := fmt.Sprintf("/api/tags/%d/", tg.ID)

	// Rename.
	code, env = f.do(t, http.MethodPut, path, "u1", map[string]any{"name": "gothic"}, false)
	if code != http.StatusOK {
		t.Fatalf("rename = %d", code)
	}
	decodeData(t, env, &tg)
	if tg.Name != "gothic" {
		t.Fatalf("renamed = %+v", tg)
	}

	// List includes it.
	var data struct {
		Count   int64    `json:"count"`
		Results []tagRep `json:"results"`
	}
	code, env = f.do(t, http.MethodGet, "/api/tags/", "", nil, false)
	if code != http.StatusOK {
		t.Fatalf("list = %d", code)
	}
	decodeData(t, env, &data)
	if data.Count != 1 || data.Results[0].Name != "gothic" {
		t.Fatalf("list = %+v", data)
	}

	// Delete, then 404.
	code, env = f.do(t, http.MethodDelete, path, "u1", nil, false)
	if code != http.StatusOK || env.Message != "删除成功" {
		t.Fatalf("delete = %d %+v", code, env)
	}
	code, env = f.do(t, http.MethodGet, path, "u1", nil, false)
	if code != http.StatusNotFound || env.Message != "Not found." {
		t.Fatalf("after delete = %d %q", code, env.Message)
	}
}

func TestTagEndpoints_AnonymousMutationRejected(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, http.MethodPost, "/api/tags/", "", map[string]any{"name": "x"}, false)
	if code != http.StatusForbidden || env.Message != "Authentication credentials were not provided." {
		t.Fatalf("anonymous = %d %q", code, env.Message)
	}
}
