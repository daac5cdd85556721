package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterBooleanFlagParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{
			name:         "defaults_to_false",
			defaultValue: false,
			arguments:    []string{},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_without_value",
			defaultValue: false,
			arguments:    []string{"--feature"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "sets_false_with_equals",
			defaultValue: true,
			arguments:    []string{"--feature=false"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_false_with_no_literal",
			defaultValue: true,
			arguments:    []string{"--feature", "no"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_with_on_literal",
			defaultValue: false,
			arguments:    []string{"--feature", "on"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "ignores_non_boolean_trailing_value",
			defaultValue: false,
			arguments:    []string{"--feature", "maybe"},
			expected:     true,
			expectError:  false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "boolean-test"}
			flagSet := command.Flags()
			flagValue := !testCase.defaultValue
			registerBooleanFlag(flagSet, &flagValue, "feature", testCase.defaultValue, "toggle feature behaviour")
			normalizedArguments := normalizeBooleanFlagArguments(command, testCase.arguments)
			parseErr := command.ParseFlags(normalizedArguments)
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if len(testCase.arguments) == 0 && flagValue != testCase.defaultValue {
				t.Fatalf("expected default %t, got %t", testCase.defaultValue, flagValue)
			}
			if flagValue != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, flagValue)
			}
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	command := &cobra.Command{Use: "resolve-test"}
	var enabled bool
	var name string
	var list []string
	registerBooleanFlag(command.Flags(), &enabled, "enabled", false, "enabled")
	command.Flags().StringVar(&name, "name", "", "name")
	command.Flags().StringSliceVar(&list, "list", nil, "list")

	configuredTrue := true
	if !resolveBool(command.Flags(), "enabled", enabled, &configuredTrue, false) {
		t.Fatalf("expected configured value when the flag is unset")
	}
	if resolveBool(command.Flags(), "enabled", enabled, nil, false) {
		t.Fatalf("expected fallback when nothing is set")
	}
	if resolveString(command.Flags(), "name", name, "", "fallback") != "fallback" {
		t.Fatalf("expected fallback name")
	}
	if resolveList(command.Flags(), "list", list, []string{"configured"})[0] != "configured" {
		t.Fatalf("expected configured list")
	}

	if err := command.ParseFlags([]string{"--enabled=false", "--name", "flag", "--list="}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if resolveBool(command.Flags(), "enabled", enabled, &configuredTrue, true) {
		t.Fatalf("expected explicit flag to win")
	}
	if resolveString(command.Flags(), "name", name, "configured", "fallback") != "flag" {
		t.Fatalf("expected flag name")
	}
	resolvedList := resolveList(command.Flags(), "list", list, []string{"configured"})
	if resolvedList == nil || len(resolvedList) != 0 {
		t.Fatalf("expected an explicit empty list, got %#v", resolvedList)
	}
}

func TestResolveListSplitsWhitespaceSeparatedTokens(t *testing.T) {
	command := &cobra.Command{Use: "resolve-list-test"}
	var list []string
	command.Flags().StringSliceVar(&list, "list", nil, "list")

	if err := command.ParseFlags([]string{"--list", "vendor node_modules", "--list", "dist,\tbuild\n.cache"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	resolvedList := resolveList(command.Flags(), "list", list, nil)
	expected := []string{"vendor", "node_modules", "dist", "build", ".cache"}
	if len(resolvedList) != len(expected) {
		t.Fatalf("expected %v, got %#v", expected, resolvedList)
	}
	for index, value := range expected {
		if resolvedList[index] != value {
			t.Fatalf("expected %v, got %#v", expected, resolvedList)
		}
	}
}
