// Package hclconf loads application manifests written in HCL and translates
// them into the format-agnostic config model.
package hclconf
