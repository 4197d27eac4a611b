package treesitter

import (
	"testing"
)

func TestBuildMethodSignature(t *testing.T) {
	tests := []struct {
		name       string
		pkg        string
		class      string
		method     string
		params     []Parameter
		returnType string
		expected   string
	}{
		{
			name:       "Full signature with package and class",
			pkg:        "com.app",
			class:      "Service",
			method:     "run",
			params:     []Parameter{{Name: "count", Type: "int"}},
			returnType: "void",
			expected:   "com.app.Service#run(int):void",
		},
		{
			name:       "No package",
			pkg:        "",
			class:      "Q",
			method:     "m",
			params:     nil,
			returnType: "void",
			expected:   "Q#m():void",
		},
		{
			name:       "No class omits separator",
			pkg:        "com.app",
			class:      "",
			method:     "helper",
			params:     []Parameter{{Name: "s", Type: "String"}},
			returnType: "String",
			expected:   "com.app.helper(String):String",
		},
		{
			name:       "No package and no class",
			pkg:        "",
			class:      "",
			method:     "f",
			params:     nil,
			returnType: "int",
			expected:   "f():int",
		},
		{
			name:   "Qualified parameter types",
			pkg:    "p",
			class:  "P",
			method: "use",
			params: []Parameter{
				{Name: "a", Type: "A", TypePackage: "p"},
				{Name: "i", Type: "I", TypePackage: "p"},
			},
			returnType: "void",
			expected:   "p.P#use(p.A,p.I):void",
		},
		{
			name:       "Unknown parameter type becomes question mark",
			pkg:        "com.app",
			class:      "C",
			method:     "x",
			params:     []Parameter{{Name: "v", Type: ""}},
			returnType: "void",
			expected:   "com.app.C#x(?):void",
		},
		{
			name:       "Empty return type defaults to void",
			pkg:        "com.app",
			class:      "C",
			method:     "y",
			params:     nil,
			returnType: "",
			expected:   "com.app.C#y():void",
		},
		{
			name:   "Multiple unqualified parameters",
			pkg:    "org.demo",
			class:  "Calc",
			method: "add",
			params: []Parameter{
				{Name: "a", Type: "int"},
				{Name: "b", Type: "int"},
			},
			returnType: "int",
			expected:   "org.demo.Calc#add(int,int):int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildMethodSignature(tt.pkg, tt.class, tt.method, tt.params, tt.returnType)
			if got != tt.expected {
				t.Errorf("BuildMethodSignature() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildMethodSignature_Deterministic(t *testing.T) {
	params := []Parameter{
		{Name: "x", Type: "long"},
		{Name: "label", Type: "String"},
	}

	first := BuildMethodSignature("com.app", "Worker", "process", params, "boolean")
	for i := 0; i < 10; i++ {
		got := BuildMethodSignature("com.app", "Worker", "process", params, "boolean")
		if got != first {
			t.Fatalf("Signature changed between calls: %q vs %q", first, got)
		}
	}
}
