package core

import "testing"

// useTemplates replaces the registry with tpls for the duration of a test.
func useTemplates(t *testing.T, tpls ...EntityTemplate) {
	t.Helper()
	Clear()
	for _, tpl := range tpls {
		Register(tpl)
	}
	t.Cleanup(Clear)
}
