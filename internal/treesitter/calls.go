package treesitter

import (
	"regexp"
	"strings"
)

// javaKeywordsToSkip lists keywords that match the call pattern but are
// never method invocations, e.g. "if (" or "return (".
var javaKeywordsToSkip = map[string]struct{}{
	"if":           {},
	"while":        {},
	"for":          {},
	"switch":       {},
	"catch":        {},
	"synchronized": {},
	"return":       {},
	"throw":        {},
	"new":          {},
	"assert":       {},
	"super":        {},
	"this":         {},
}

// callPattern matches method invocations: obj.method(), this.method(),
// super.method(), Class.staticMethod(), method()
var callPattern = regexp.MustCompile(`(?:(\w+)\.)?(\w+)\s*\(`)

// constructorPattern matches object creation: new Type(...), including
// qualified names and generic arguments (new com.app.Box<String>(...))
var constructorPattern = regexp.MustCompile(`\bnew\s+((?:\w+\.)*[A-Z]\w*)\s*(?:<[^>()]*>)?\s*\(`)

// ExtractCalls extracts method call sites from a Java method body using
// regex patterns. Capitalized bare names are skipped here; constructor
// invocations are captured separately by ExtractConstructorCalls.
func ExtractCalls(methodCode, containingClass string) []CallSite {
	if methodCode == "" {
		return nil
	}

	var calls []CallSite

	for _, match := range callPattern.FindAllStringSubmatch(methodCode, -1) {
		qualifier := match[1]
		methodName := match[2]

		// Skip keywords that look like calls
		if _, skip := javaKeywordsToSkip[strings.ToLower(methodName)]; skip {
			continue
		}

		// Skip constructors (capitalized names)
		if methodName[0] >= 'A' && methodName[0] <= 'Z' {
			continue
		}

		targetClass, callType := DetermineCallTarget(qualifier, containingClass)

		calls = append(calls, CallSite{
			MethodName:  methodName,
			TargetClass: targetClass,
			Qualifier:   qualifier,
			CallType:    callType,
		})
	}

	return calls
}

// DetermineCallTarget classifies a call site by its qualifier:
// no qualifier and "this" mean the enclosing class, "super" defers to
// inheritance, a capitalized qualifier is a static call on that class and
// anything else is an instance call on a variable.
func DetermineCallTarget(qualifier, containingClass string) (targetClass, callType string) {
	switch {
	case qualifier == "":
		return containingClass, CallTypeSameClass
	case qualifier == "this":
		return containingClass, CallTypeThis
	case qualifier == "super":
		return "super", CallTypeSuper
	case qualifier[0] >= 'A' && qualifier[0] <= 'Z':
		return qualifier, CallTypeStatic
	default:
		return qualifier, CallTypeInstance
	}
}

// ExtractConstructorCalls extracts object creation sites from a Java
// method body. resolvePackage maps a simple type name to its package;
// types written fully qualified resolve from their own prefix.
func ExtractConstructorCalls(methodCode string, resolvePackage func(string) string) []CallSite {
	if methodCode == "" {
		return nil
	}

	var calls []CallSite

	for _, match := range constructorPattern.FindAllStringSubmatch(methodCode, -1) {
		name, pkg := splitQualifiedType(match[1])
		if pkg == "" && resolvePackage != nil {
			pkg = resolvePackage(name)
		}

		calls = append(calls, CallSite{
			MethodName:    name,
			TargetClass:   name,
			TargetPackage: pkg,
			CallType:      CallTypeConstructor,
		})
	}

	return calls
}
