package config

import (
	"reflect"
	"strings"

	"github.com/cnosuke/deploy-gcp/executor"
)

// applyEnvBools re-reads every env-tagged bool field. configor turns any value
// other than false/0/f into true, so DEPLOY_BACKEND=no would enable the backend.
// Empty values are left alone, matching how configor treats them.
func applyEnvBools(v reflect.Value, lookupEnv func(string) (string, bool)) {
	v = reflect.Indirect(v)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		switch field.Kind() {
		case reflect.Struct:
			applyEnvBools(field, lookupEnv)
		case reflect.Bool:
			name := t.Field(i).Tag.Get("env")
			if name == "" {
				continue
			}
			if raw, ok := lookupEnv(name); ok && strings.TrimSpace(raw) != "" {
				field.SetBool(parseBool(name, raw))
			}
		}
	}
}

// parseBool treats 1, true, yes and y as true. CLI_SHOW_PROGRESS follows the
// runner, which also accepts on.
func parseBool(name, raw string) bool {
	if name == executor.EnvShowProgress {
		return executor.ParseEnvBool(raw)
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
