package env

import (
	"os"
	"strconv"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

func Read(env string) (string, bool) {
	return os.LookupEnv(env)
}

func ReadBool(env string) (valueAsBool bool, isPresent bool) {
	value, isPresent := Read(env)
	if !isPresent {
		return false, false
	}
	boolValue, err := strconv.ParseBool(value)
	return boolValue, err == nil
}

func ReadBoolOrDefault(key string, defaultValue bool) bool {
	value, isPresent := ReadBool(key)
	if isPresent {
		return value
	}
	return defaultValue
}

// EnsureVar tests the env variable and sets it if it doesn't exist. We tolerate any errors setting env variable and
// just log the warning
func EnsureVar(key, value string) {
	if _, exist := Read(key); !exist {
		if err := os.Setenv(key, value); err != nil {
			zap.S().Warnf("Failed to set environment variable \"%s\" to \"%s\": %s", key, value, err)
		}
	}
}

func ReadOrDefault(key string, dflt string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return dflt
	}
	return value
}

func ReadIntOrDefault(key string, dflt int) int {
	value := ReadOrDefault(key, strconv.Itoa(dflt))
	i, e := cast.ToIntE(value)
	if e != nil {
		return dflt
	}
	return i
}

// RevertEnvVariables saves current values of environment variables and restores them when the returned function is called.
// Intended to be used in tests as a defer statement.
// Make sure returned function is called in defer statement:
//
//	defer RevertEnvVariables(envVars)()
func RevertEnvVariables(envVars ...string) func() {
	originalEnvVars := make(map[string]string)
	for _, envVar := range envVars {
		originalEnvVars[envVar] = os.Getenv(envVar)
	}
	return func() {
		for envVar, value := range originalEnvVars {
			_ = os.Setenv(envVar, value)
		}
	}
}
