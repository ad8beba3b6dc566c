package hclconf

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeArguments populates a handler input struct from evaluated manifest
// arguments. Fields are matched by their `hcl` tag (falling back to the
// field name); fields tagged optional may be absent, all others are
// required. Values convert through cty's conversion rules, so a manifest
// number fills an int field and so on.
func DecodeArguments(args map[string]cty.Value, inputStruct any) error {
	structVal := reflect.ValueOf(inputStruct)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("input struct must be a non-nil pointer, got %T", inputStruct)
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		lookupName := field.Name
		optional := false
		if tag := field.Tag.Get("hcl"); tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				lookupName = parts[0]
			}
			for _, p := range parts[1:] {
				if p == "optional" {
					optional = true
				}
			}
		}

		val, provided := args[lookupName]
		if !provided {
			if optional {
				continue
			}
			return fmt.Errorf("missing required argument %q", lookupName)
		}

		if err := decodeValue(val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("argument %q: %w", lookupName, err)
		}
	}
	return nil
}

// decodeValue converts a cty value into a Go pointer target, applying
// implicit conversions where cty allows them.
func decodeValue(val cty.Value, target any) error {
	impliedType, err := gocty.ImpliedType(reflect.ValueOf(target).Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}
	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w",
			val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}
