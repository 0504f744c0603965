package vm

// JObject represents an instance of a class loaded from a class file.
// Fields are keyed by name; unset fields read as their default value.
type JObject struct {
	ClassName string
	Fields    map[string]Value
}

func NewJObject(className string) *JObject {
	return &JObject{ClassName: className, Fields: make(map[string]Value)}
}

func (o *JObject) JavaClass() string { return o.ClassName }
