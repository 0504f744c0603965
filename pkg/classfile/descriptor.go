package classfile

import (
	"fmt"
	"strings"
)

// SplitMethodDescriptor splits a method descriptor into its parameter
// field descriptors and return descriptor.
func SplitMethodDescriptor(descriptor string) ([]string, string, error) {
	// Parse between ( and )
	start := strings.Index(descriptor, "(")
	end := strings.Index(descriptor, ")")
	if start != 0 || end == -1 {
		return nil, "", fmt.Errorf("invalid method descriptor: %s", descriptor)
	}

	params := descriptor[start+1 : end]
	var out []string
	i := 0
	for i < len(params) {
		n, err := fieldDescriptorLen(params[i:])
		if err != nil {
			return nil, "", fmt.Errorf("%w in %s", err, descriptor)
		}
		out = append(out, params[i:i+n])
		i += n
	}
	ret := descriptor[end+1:]
	if ret != "V" {
		if n, err := fieldDescriptorLen(ret); err != nil || n != len(ret) {
			return nil, "", fmt.Errorf("invalid return descriptor in %s", descriptor)
		}
	}
	return out, ret, nil
}

// fieldDescriptorLen returns the length of the field descriptor at the
// start of s.
func fieldDescriptorLen(s string) (int, error) {
	i := 0
	// Array: skip dimensions, then the element type
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return 0, fmt.Errorf("truncated type descriptor")
	}
	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi <= 1 {
			return 0, fmt.Errorf("unterminated class descriptor")
		}
		return i + semi + 1, nil
	}
	return 0, fmt.Errorf("invalid type descriptor char '%c'", s[i])
}

// ParamCount counts the number of parameters in a method descriptor.
func ParamCount(descriptor string) (int, error) {
	params, _, err := SplitMethodDescriptor(descriptor)
	return len(params), err
}

// ParamSlots counts the local-variable slots taken by the parameters of a
// method descriptor; long and double take two.
func ParamSlots(descriptor string) (int, error) {
	params, _, err := SplitMethodDescriptor(descriptor)
	if err != nil {
		return 0, err
	}
	slots := 0
	for _, p := range params {
		slots += DescriptorSize(p)
	}
	return slots, nil
}

// DescriptorSize is the number of slots a value of the given field
// descriptor occupies: 0 for V, 2 for J and D, 1 otherwise.
func DescriptorSize(desc string) int {
	switch desc {
	case "V":
		return 0
	case "J", "D":
		return 2
	}
	return 1
}

// IsVoidReturn checks if a method descriptor has void return type.
func IsVoidReturn(descriptor string) bool {
	return strings.HasSuffix(descriptor, ")V")
}
