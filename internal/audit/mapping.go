// Package audit records security-relevant events: sign-in outcomes, token
// rotation, and session revocation.
package audit

import "strings"

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// Auth method overrides: sign-in and sign-out family methods are audited
// with their lifecycle verbs on the session resource.
var authMethodOverrides = map[string]ActionResource{
	"/credauth.auth.v1.AuthService/SignUp":     {Action: "register", Resource: "account"},
	"/credauth.auth.v1.AuthService/SignIn":     {Action: "login", Resource: "session"},
	"/credauth.auth.v1.AuthService/Refresh":    {Action: "refresh", Resource: "session"},
	"/credauth.auth.v1.AuthService/SignOut":    {Action: "logout", Resource: "session"},
	"/credauth.auth.v1.AuthService/SignOutAll": {Action: "logout_all", Resource: "session"},
}

// ParseFullMethod returns action and resource for a gRPC full method
// (e.g. /credauth.auth.v1.AuthService/SignIn). Auth lifecycle methods map to
// their named actions; other methods derive a verb from the method prefix and
// the resource from the service name.
func ParseFullMethod(fullMethod string) ActionResource {
	if ar, ok := authMethodOverrides[fullMethod]; ok {
		return ar
	}
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	serviceName := beforeSlash[dot+1:]
	return ActionResource{Action: methodToAction(method), Resource: serviceToResource(serviceName)}
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Create"):
		return "create"
	case strings.HasPrefix(method, "Update"):
		return "update"
	case strings.HasPrefix(method, "Delete"):
		return "delete"
	case strings.HasPrefix(method, "Revoke"):
		return "revoke"
	default:
		return strings.ToLower(method)
	}
}
