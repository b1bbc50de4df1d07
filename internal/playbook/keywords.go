package playbook

import "strings"

// taskKeywords are the task and block attributes that are never a module
// name, including the legacy privilege escalation keywords.
var taskKeywords = map[string]bool{
	"name":               true,
	"always":             true,
	"always_run":         true,
	"any_errors_fatal":   true,
	"args":               true,
	"async":              true,
	"become":             true,
	"become_exe":         true,
	"become_flags":       true,
	"become_method":      true,
	"become_user":        true,
	"block":              true,
	"changed_when":       true,
	"check_mode":         true,
	"collections":        true,
	"connection":         true,
	"debugger":           true,
	"delay":              true,
	"delegate_facts":     true,
	"delegate_to":        true,
	"diff":               true,
	"environment":        true,
	"failed_when":        true,
	"ignore_errors":      true,
	"ignore_unreachable": true,
	"listen":             true,
	"loop":               true,
	"loop_control":       true,
	"module_defaults":    true,
	"no_log":             true,
	"notify":             true,
	"poll":               true,
	"port":               true,
	"register":           true,
	"remote_user":        true,
	"rescue":             true,
	"retries":            true,
	"run_once":           true,
	"su":                 true,
	"su_user":            true,
	"sudo":               true,
	"sudo_user":          true,
	"tags":               true,
	"throttle":           true,
	"timeout":            true,
	"until":              true,
	"vars":               true,
	"when":               true,
}

func isTaskKeyword(key string) bool {
	return taskKeywords[key] || strings.HasPrefix(key, "with_")
}
