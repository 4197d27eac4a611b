package treesitter

import (
	"fmt"
	"strings"
)

// BuildMethodSignature builds the stable signature string used as the
// Method node identity.
//
// Format: <package>.<Class>#<method>(<paramType,...>):<returnType>
//
// Missing parts are omitted: without a package the leading "<package>."
// disappears, without a class the "#" separator disappears.
// Parameter types are package-qualified when the package is known and "?"
// stands in for a type that could not be determined. An empty return type
// defaults to "void".
func BuildMethodSignature(packageName, className, methodName string, parameters []Parameter, returnType string) string {
	pkg := ""
	if packageName != "" {
		pkg = packageName + "."
	}

	paramTypes := make([]string, 0, len(parameters))
	for _, p := range parameters {
		switch {
		case p.Type == "":
			paramTypes = append(paramTypes, "?")
		case p.TypePackage != "":
			paramTypes = append(paramTypes, p.TypePackage+"."+p.Type)
		default:
			paramTypes = append(paramTypes, p.Type)
		}
	}
	paramsStr := strings.Join(paramTypes, ",")

	ret := returnType
	if ret == "" {
		ret = "void"
	}

	if className != "" {
		return fmt.Sprintf("%s%s#%s(%s):%s", pkg, className, methodName, paramsStr, ret)
	}
	return fmt.Sprintf("%s%s(%s):%s", pkg, methodName, paramsStr, ret)
}
