package order

import "strings"

// defaultTaskKey selects the fallback checklist.
const defaultTaskKey = "DEFAULT"

// taskTemplates maps a client-name fragment to the checklist created for new orders.
var taskTemplates = []struct {
	key   string
	tasks []string
}{
	{key: defaultTaskKey, tasks: []string{"Tarea 1 Genérica", "Tarea 2 Genérica"}},
	{key: "CLIENTE_A", tasks: []string{"Tarea A1", "Tarea A2"}},
}

// DefaultTasks returns the checklist for a new order of the client. The first
// template whose key appears in the upper-cased client name wins.
func DefaultTasks(client string) []string {
	upper := strings.ToUpper(client)
	var fallback []string
	for _, t := range taskTemplates {
		if t.key == defaultTaskKey {
			fallback = t.tasks
		}
		if strings.Contains(upper, t.key) {
			return append([]string(nil), t.tasks...)
		}
	}
	return append([]string(nil), fallback...)
}
