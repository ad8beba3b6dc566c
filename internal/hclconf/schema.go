package hclconf

import "github.com/hashicorp/hcl/v2"

// componentArgs represents the content of the `arguments` block.
type componentArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// componentBlock represents a `component` block from a manifest file.
type componentBlock struct {
	Type string `hcl:"component_type,label"`
	Name string `hcl:"instance_name,label"`

	DependsOn []string `hcl:"depends_on,optional"`

	CreateTimeout  string `hcl:"create_timeout,optional"`
	StartTimeout   string `hcl:"start_timeout,optional"`
	StopTimeout    string `hcl:"stop_timeout,optional"`
	DestroyTimeout string `hcl:"destroy_timeout,optional"`

	Arguments *componentArgs `hcl:"arguments,block"`
}

// manifest represents the top-level structure of a manifest file.
type manifest struct {
	Components []*componentBlock `hcl:"component,block"`
	Body       hcl.Body          `hcl:",remain"`
}
