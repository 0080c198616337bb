package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Profile is one named credential set in the config file.
type Profile struct {
	Name      string `hcl:"name,label"`
	APIKey    string `hcl:"api_key,optional"`
	ProjectID string `hcl:"project_id,optional"`
	BaseURL   string `hcl:"base_url,optional"`
	Timeout   string `hcl:"timeout,optional"`
}

// File is a decoded config file.
type File struct {
	DefaultProfile string     `hcl:"default_profile,optional"`
	Profiles       []*Profile `hcl:"profile,block"`
}

// Profile returns the profile called name, or nil.
func (f *File) Profile(name string) *Profile {
	for _, p := range f.Profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// LoadFile parses the HCL config file at path. A missing file yields an
// empty File.
func LoadFile(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("error accessing config file %s: %w", path, err)
	}
	return ParseFile(src, path)
}

// ParseFile decodes HCL source. filename is only used in diagnostics.
func ParseFile(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}

	var f File
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &f)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}

	seen := make(map[string]struct{}, len(f.Profiles))
	for _, p := range f.Profiles {
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("config file %s: duplicate profile %q", filename, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return &f, nil
}

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

// envFunc returns the value of an environment variable, or "" when unset.
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})
